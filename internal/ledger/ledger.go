// Package ledger is the persistent key-value store behind the chess
// sessions: a monotonic game counter, the single pending-game slot, and the
// id-indexed game records. Every mutating call runs inside one all-or-nothing
// transaction; the session core relies on that instead of its own locking.
package ledger

import (
	"context"
	"errors"
)

// ErrTxConflict is returned when an optimistic transaction kept colliding
// with concurrent writers and gave up. The call performed no writes.
var ErrTxConflict = errors.New("ledger: transaction conflict")

// GameRecord is the persisted state of one game. The zero value is what a
// read of a nonexistent id yields — a property of the storage model, not an
// application error, so callers must not treat it as "game found".
type GameRecord struct {
	PlayerOne string `json:"player_one"`
	PlayerTwo string `json:"player_two"`
	Status    uint8  `json:"status"`
	Victor    uint8  `json:"victor"`
	Turn      uint8  `json:"turn"`
	Board     string `json:"board"` // packed 256-bit value, canonical hex
}

// IsZero reports whether the record is the default (absent) record.
func (r GameRecord) IsZero() bool {
	return r == GameRecord{}
}

// ReadTx exposes the persisted layout for reading.
type ReadTx interface {
	TotalGames() (uint64, error)
	PendingGame() (uint64, error)
	// Game returns the record for id, or the zero record when absent.
	Game(id uint64) (GameRecord, error)
}

// Tx adds writes. Writes become visible to other calls only if the
// transaction function returns nil. Whether a read inside the transaction
// observes an earlier write of the same transaction is backend-defined;
// callers must not depend on it.
type Tx interface {
	ReadTx
	SetTotalGames(v uint64) error
	SetPendingGame(id uint64) error
	PutGame(id uint64, rec GameRecord) error
}

// Ledger is the storage collaborator injected into the game registry and
// session state machine.
type Ledger interface {
	// View runs fn against a read-only snapshot.
	View(ctx context.Context, fn func(ReadTx) error) error
	// Update runs fn in a transaction. If fn returns an error, or the
	// backend aborts, none of the staged writes take effect and the error
	// is returned.
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}
