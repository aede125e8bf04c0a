package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLedger is the embedded single-file backend. SQLite transactions give
// the all-or-nothing write semantics directly; BEGIN IMMEDIATE serializes
// mutating calls against each other.
type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer keeps SQLITE_BUSY out of the transaction path.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLedger) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS ledger_meta (
		name  TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO ledger_meta(name, value) VALUES ('total_games', 0);
	INSERT OR IGNORE INTO ledger_meta(name, value) VALUES ('pending_game', 0);

	CREATE TABLE IF NOT EXISTS games (
		id         INTEGER PRIMARY KEY,
		player_one TEXT NOT NULL DEFAULT '',
		player_two TEXT NOT NULL DEFAULT '',
		status     INTEGER NOT NULL DEFAULT 0,
		victor     INTEGER NOT NULL DEFAULT 0,
		turn       INTEGER NOT NULL DEFAULT 0,
		board      TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := l.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *SQLiteLedger) View(ctx context.Context, fn func(ReadTx) error) error {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(&sqliteTx{ctx: ctx, tx: tx})
}

func (l *SQLiteLedger) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&sqliteTx{ctx: ctx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) TotalGames() (uint64, error) { return t.counter("total_games") }
func (t *sqliteTx) PendingGame() (uint64, error) { return t.counter("pending_game") }

func (t *sqliteTx) counter(name string) (uint64, error) {
	var v uint64
	err := t.tx.QueryRowContext(t.ctx, `SELECT value FROM ledger_meta WHERE name = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", name, err)
	}
	return v, nil
}

func (t *sqliteTx) Game(id uint64) (GameRecord, error) {
	const query = `
		SELECT player_one, player_two, status, victor, turn, board
		FROM games WHERE id = ?`

	var rec GameRecord
	err := t.tx.QueryRowContext(t.ctx, query, id).Scan(
		&rec.PlayerOne,
		&rec.PlayerTwo,
		&rec.Status,
		&rec.Victor,
		&rec.Turn,
		&rec.Board,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, nil
	}
	if err != nil {
		return GameRecord{}, fmt.Errorf("select game %d: %w", id, err)
	}
	return rec, nil
}

func (t *sqliteTx) SetTotalGames(v uint64) error { return t.setCounter("total_games", v) }
func (t *sqliteTx) SetPendingGame(id uint64) error { return t.setCounter("pending_game", id) }

func (t *sqliteTx) setCounter(name string, v uint64) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE ledger_meta SET value = ? WHERE name = ?`, v, name)
	if err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}
	return nil
}

func (t *sqliteTx) PutGame(id uint64, rec GameRecord) error {
	const query = `
		INSERT INTO games (id, player_one, player_two, status, victor, turn, board)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			player_one = excluded.player_one,
			player_two = excluded.player_two,
			status     = excluded.status,
			victor     = excluded.victor,
			turn       = excluded.turn,
			board      = excluded.board`

	_, err := t.tx.ExecContext(t.ctx, query,
		id, rec.PlayerOne, rec.PlayerTwo, rec.Status, rec.Victor, rec.Turn, rec.Board)
	if err != nil {
		return fmt.Errorf("upsert game %d: %w", id, err)
	}
	return nil
}
