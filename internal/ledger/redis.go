package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisTxRetries = 8

// RedisLedger persists the game ledger in Redis. Mutations run under
// WATCH/MULTI optimistic transactions: reads WATCH the keys they touch,
// writes are staged and flushed through a TxPipeline, and the whole Update
// is retried when a concurrent writer invalidates a watched key.
type RedisLedger struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(redisURL string) (*RedisLedger, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis ledger")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisLedger{rdb: rdb, prefix: "chessledger:"}, nil
}

func (l *RedisLedger) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

func (l *RedisLedger) keyTotal() string { return l.prefix + "total_games" }
func (l *RedisLedger) keyPending() string { return l.prefix + "pending_game" }
func (l *RedisLedger) keyGame(id uint64) string {
	return l.prefix + "game:" + strconv.FormatUint(id, 10)
}

func (l *RedisLedger) View(ctx context.Context, fn func(ReadTx) error) error {
	return fn(&redisReadTx{ctx: ctx, ledger: l, cmd: l.rdb})
}

func (l *RedisLedger) Update(ctx context.Context, fn func(Tx) error) error {
	for attempt := 0; attempt < redisTxRetries; attempt++ {
		err := l.rdb.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{
				redisReadTx: redisReadTx{ctx: ctx, ledger: l, cmd: rtx},
				watch:       rtx,
				games:       make(map[uint64]GameRecord),
			}
			if err := fn(tx); err != nil {
				return err
			}
			pipe := rtx.TxPipeline()
			if tx.totalSet {
				pipe.Set(ctx, l.keyTotal(), strconv.FormatUint(tx.total, 10), 0)
			}
			if tx.pendingSet {
				pipe.Set(ctx, l.keyPending(), strconv.FormatUint(tx.pending, 10), 0)
			}
			for id, rec := range tx.games {
				raw, err := json.Marshal(&rec)
				if err != nil {
					return err
				}
				pipe.Set(ctx, l.keyGame(id), raw, 0)
			}
			_, err := pipe.Exec(ctx)
			return err
		}, l.keyTotal(), l.keyPending())
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTxConflict
}

// redisReadTx serves reads for both View and Update paths; cmd is either the
// plain client or the transactional connection.
type redisReadTx struct {
	ctx    context.Context
	ledger *RedisLedger
	cmd    redis.Cmdable
}

func (t *redisReadTx) TotalGames() (uint64, error) {
	return t.counter(t.ledger.keyTotal())
}

func (t *redisReadTx) PendingGame() (uint64, error) {
	return t.counter(t.ledger.keyPending())
}

func (t *redisReadTx) counter(key string) (uint64, error) {
	raw, err := t.cmd.Get(t.ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(raw, 10, 64)
}

func (t *redisReadTx) Game(id uint64) (GameRecord, error) {
	raw, err := t.cmd.Get(t.ctx, t.ledger.keyGame(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return GameRecord{}, nil
	}
	if err != nil {
		return GameRecord{}, err
	}
	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return GameRecord{}, fmt.Errorf("decode game %d: %w", id, err)
	}
	return rec, nil
}

type redisTx struct {
	redisReadTx
	watch *redis.Tx

	games      map[uint64]GameRecord
	total      uint64
	totalSet   bool
	pending    uint64
	pendingSet bool
}

func (t *redisTx) Game(id uint64) (GameRecord, error) {
	// game keys are discovered during the transaction; extend the WATCH set
	// before reading so a concurrent write forces a retry.
	if err := t.watch.Watch(t.ctx, t.ledger.keyGame(id)).Err(); err != nil {
		return GameRecord{}, err
	}
	return t.redisReadTx.Game(id)
}

func (t *redisTx) SetTotalGames(v uint64) error {
	t.total, t.totalSet = v, true
	return nil
}

func (t *redisTx) SetPendingGame(id uint64) error {
	t.pending, t.pendingSet = id, true
	return nil
}

func (t *redisTx) PutGame(id uint64, rec GameRecord) error {
	t.games[id] = rec
	return nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
