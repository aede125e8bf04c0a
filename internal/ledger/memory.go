package ledger

import (
	"context"
	"sync"
)

// MemoryLedger is the in-memory backend used by tests and by the no-storage
// development mode. A single mutex serializes calls, which also gives the
// one-mutating-call-at-a-time discipline the session core assumes.
type MemoryLedger struct {
	mu      sync.Mutex
	total   uint64
	pending uint64
	games   map[uint64]GameRecord
}

func NewMemory() *MemoryLedger {
	return &MemoryLedger{games: make(map[uint64]GameRecord)}
}

func (l *MemoryLedger) View(ctx context.Context, fn func(ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(&memTx{ledger: l})
}

func (l *MemoryLedger) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &memTx{ledger: l, staged: make(map[uint64]GameRecord)}
	if err := fn(tx); err != nil {
		return err
	}
	// commit staged writes
	if tx.totalSet {
		l.total = tx.total
	}
	if tx.pendingSet {
		l.pending = tx.pending
	}
	for id, rec := range tx.staged {
		l.games[id] = rec
	}
	return nil
}

func (l *MemoryLedger) Close() error { return nil }

type memTx struct {
	ledger *MemoryLedger

	staged     map[uint64]GameRecord
	total      uint64
	totalSet   bool
	pending    uint64
	pendingSet bool
}

func (t *memTx) TotalGames() (uint64, error) { return t.ledger.total, nil }
func (t *memTx) PendingGame() (uint64, error) { return t.ledger.pending, nil }

func (t *memTx) Game(id uint64) (GameRecord, error) {
	return t.ledger.games[id], nil
}

func (t *memTx) SetTotalGames(v uint64) error {
	t.total, t.totalSet = v, true
	return nil
}

func (t *memTx) SetPendingGame(id uint64) error {
	t.pending, t.pendingSet = id, true
	return nil
}

func (t *memTx) PutGame(id uint64, rec GameRecord) error {
	t.staged[id] = rec
	return nil
}
