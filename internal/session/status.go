package session

// Status is the persisted lifecycle state of a game. The numeric codes are
// part of the on-ledger schema and are never remapped: PENDING=0,
// CONTINUING=1, STALEMATE=2, VICTORY=3. StatusIllegalMove is a transient
// result of PlayMove only and is never written to the ledger.
type Status uint8

const (
	StatusPending     Status = 0
	StatusContinuing  Status = 1
	StatusStalemate   Status = 2
	StatusVictory     Status = 3
	StatusIllegalMove Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusContinuing:
		return "continuing"
	case StatusStalemate:
		return "stalemate"
	case StatusVictory:
		return "victory"
	case StatusIllegalMove:
		return "illegal_move"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status accepts no further moves.
func (s Status) Terminal() bool {
	return s == StatusStalemate || s == StatusVictory
}
