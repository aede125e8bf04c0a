// Package rules adapts an external chess rules engine to the session core.
// The engine owns move legality and result classification; this package only
// translates between the ledger's board representation and the engine's.
package rules

import (
	"context"
	"fmt"

	nchess "github.com/corentings/chess/v2"

	"github.com/castlek/chessledger/internal/board"
)

// Verdict classifies the outcome of applying one move.
type Verdict uint8

const (
	VerdictIllegal Verdict = iota
	VerdictContinuing
	VerdictVictory
	VerdictStalemate
)

func (v Verdict) String() string {
	switch v {
	case VerdictContinuing:
		return "continuing"
	case VerdictVictory:
		return "victory"
	case VerdictStalemate:
		return "stalemate"
	default:
		return "illegal"
	}
}

// Outcome is the adapter's closed result type. Board and NextTurn are set
// only for VerdictContinuing, Winner only for VerdictVictory.
type Outcome struct {
	Verdict  Verdict
	Board    board.Board
	NextTurn board.Color
	Winner   board.Color
}

// Engine validates and applies a single move against a reconstructed board.
// A non-nil error means the position itself could not be processed (an
// encoding fault, not a rejected move); rejected moves come back as
// VerdictIllegal.
type Engine interface {
	Apply(ctx context.Context, b board.Board, turn board.Color, from, to board.Square) (Outcome, error)
}

// ChessEngine is the corentings/chess backed implementation.
//
// The packed board carries no castling rights and no en-passant target, so
// every position is reconstructed with both cleared: castling moves and
// en-passant captures are never legal here. That auxiliary state is lost by
// the storage format, not inferred back from board geometry.
type ChessEngine struct{}

func New() *ChessEngine { return &ChessEngine{} }

func (e *ChessEngine) Apply(ctx context.Context, b board.Board, turn board.Color, from, to board.Square) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if turn != board.White && turn != board.Black {
		return Outcome{}, fmt.Errorf("rules: invalid side to move %d", turn)
	}
	if !from.InBounds() || !to.InBounds() {
		return Outcome{Verdict: VerdictIllegal}, nil
	}

	fenOpt, err := nchess.FEN(positionFEN(b, turn))
	if err != nil {
		return Outcome{}, fmt.Errorf("rules: reconstruct position: %w", err)
	}
	game := nchess.NewGame(fenOpt)

	uci := uciString(b, turn, from, to)
	mv, err := nchess.UCINotation{}.Decode(game.Position(), uci)
	if err != nil {
		return Outcome{Verdict: VerdictIllegal}, nil
	}
	if err := game.Move(mv, nil); err != nil {
		return Outcome{Verdict: VerdictIllegal}, nil
	}

	switch game.Outcome() {
	case nchess.WhiteWon:
		return Outcome{Verdict: VerdictVictory, Winner: board.White}, nil
	case nchess.BlackWon:
		return Outcome{Verdict: VerdictVictory, Winner: board.Black}, nil
	case nchess.Draw:
		return Outcome{Verdict: VerdictStalemate}, nil
	}

	next := board.Black
	if game.Position().Turn() == nchess.White {
		next = board.White
	}
	return Outcome{
		Verdict:  VerdictContinuing,
		Board:    fromEngineBoard(game.Position().Board()),
		NextTurn: next,
	}, nil
}

// uciString renders (from, to) as a UCI move. The move surface carries no
// promotion piece; a pawn reaching the last rank auto-queens.
func uciString(b board.Board, turn board.Color, from, to board.Square) string {
	s := squareName(from) + squareName(to)
	p := b.At(from.Row, from.Col)
	if p.Type == board.Pawn && p.Color == turn {
		if (turn == board.White && to.Row == 7) || (turn == board.Black && to.Row == 0) {
			s += "q"
		}
	}
	return s
}

func squareName(sq board.Square) string {
	return string([]byte{byte('a' + sq.Col), byte('1' + sq.Row)})
}

func fromEngineBoard(eb *nchess.Board) board.Board {
	var b board.Board
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := nchess.NewSquare(nchess.File(col), nchess.Rank(row))
			piece := eb.Piece(sq)
			if piece == nchess.NoPiece {
				continue
			}
			b.Set(row, col, fromEnginePiece(piece))
		}
	}
	return b
}

func fromEnginePiece(p nchess.Piece) board.Piece {
	out := board.Piece{Color: board.White}
	if p.Color() == nchess.Black {
		out.Color = board.Black
	}
	switch p.Type() {
	case nchess.Pawn:
		out.Type = board.Pawn
	case nchess.Knight:
		out.Type = board.Knight
	case nchess.Bishop:
		out.Type = board.Bishop
	case nchess.Rook:
		out.Type = board.Rook
	case nchess.Queen:
		out.Type = board.Queen
	case nchess.King:
		out.Type = board.King
	}
	return out
}
