package rules

import (
	"context"
	"testing"

	"github.com/castlek/chessledger/internal/board"
)

func apply(t *testing.T, b board.Board, turn board.Color, from, to board.Square) Outcome {
	t.Helper()
	out, err := New().Apply(context.Background(), b, turn, from, to)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

func TestApplyLegalOpeningMove(t *testing.T) {
	// e2e4
	out := apply(t, board.Starting(), board.White,
		board.Square{Row: 1, Col: 4}, board.Square{Row: 3, Col: 4})
	if out.Verdict != VerdictContinuing {
		t.Fatalf("verdict: got %s", out.Verdict)
	}
	if out.NextTurn != board.Black {
		t.Fatalf("next turn: got %s", out.NextTurn)
	}
	if p := out.Board.At(3, 4); p.Type != board.Pawn || p.Color != board.White {
		t.Fatalf("e4: got %+v", p)
	}
	if !out.Board.At(1, 4).IsEmpty() {
		t.Fatalf("e2 should be empty after the move")
	}
}

func TestApplyRejectsIllegalMoves(t *testing.T) {
	cases := []struct {
		name     string
		from, to board.Square
	}{
		{"pawn three forward", board.Square{Row: 1, Col: 4}, board.Square{Row: 4, Col: 4}},
		{"rook through pawn", board.Square{Row: 0, Col: 0}, board.Square{Row: 4, Col: 0}},
		{"empty source square", board.Square{Row: 3, Col: 3}, board.Square{Row: 4, Col: 3}},
		{"opponent piece", board.Square{Row: 6, Col: 4}, board.Square{Row: 4, Col: 4}},
		{"out of bounds", board.Square{Row: 1, Col: 4}, board.Square{Row: 8, Col: 4}},
		{"negative square", board.Square{Row: -1, Col: 0}, board.Square{Row: 0, Col: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := apply(t, board.Starting(), board.White, tc.from, tc.to)
			if out.Verdict != VerdictIllegal {
				t.Fatalf("verdict: got %s, want illegal", out.Verdict)
			}
		})
	}
}

func TestApplyInvalidTurnColor(t *testing.T) {
	_, err := New().Apply(context.Background(), board.Starting(), board.ColorNone,
		board.Square{Row: 1, Col: 4}, board.Square{Row: 3, Col: 4})
	if err == nil {
		t.Fatalf("expected error for unset side to move")
	}
}

func TestApplyCheckmate(t *testing.T) {
	// fool's mate: 1. f3 e5 2. g4 Qh4#
	moves := []struct {
		turn     board.Color
		from, to board.Square
	}{
		{board.White, board.Square{Row: 1, Col: 5}, board.Square{Row: 2, Col: 5}},
		{board.Black, board.Square{Row: 6, Col: 4}, board.Square{Row: 4, Col: 4}},
		{board.White, board.Square{Row: 1, Col: 6}, board.Square{Row: 3, Col: 6}},
	}
	b := board.Starting()
	for i, mv := range moves {
		out := apply(t, b, mv.turn, mv.from, mv.to)
		if out.Verdict != VerdictContinuing {
			t.Fatalf("move %d: verdict %s", i, out.Verdict)
		}
		b = out.Board
	}
	out := apply(t, b, board.Black,
		board.Square{Row: 7, Col: 3}, board.Square{Row: 3, Col: 7})
	if out.Verdict != VerdictVictory {
		t.Fatalf("verdict: got %s, want victory", out.Verdict)
	}
	if out.Winner != board.Black {
		t.Fatalf("winner: got %s, want black", out.Winner)
	}
}

func TestApplyStalemate(t *testing.T) {
	// white Kf7 Qg5, black Kh8; Qg5-g6 leaves black with no legal move
	var b board.Board
	b.Set(6, 5, board.Piece{Type: board.King, Color: board.White})
	b.Set(4, 6, board.Piece{Type: board.Queen, Color: board.White})
	b.Set(7, 7, board.Piece{Type: board.King, Color: board.Black})

	out := apply(t, b, board.White,
		board.Square{Row: 4, Col: 6}, board.Square{Row: 5, Col: 6})
	if out.Verdict != VerdictStalemate {
		t.Fatalf("verdict: got %s, want stalemate", out.Verdict)
	}
}

// Castling rights are not part of the packed board and are cleared on
// reconstruction, so castling is never available after a persist/reload
// even when king and rook sit on their home squares. The position must
// still process without error.
func TestCastlingRightsLostAfterReload(t *testing.T) {
	var b board.Board
	b.Set(0, 4, board.Piece{Type: board.King, Color: board.White})
	b.Set(0, 7, board.Piece{Type: board.Rook, Color: board.White})
	b.Set(7, 4, board.Piece{Type: board.King, Color: board.Black})

	out := apply(t, b, board.White,
		board.Square{Row: 0, Col: 4}, board.Square{Row: 0, Col: 6})
	if out.Verdict != VerdictIllegal {
		t.Fatalf("castling after reload: got %s, want illegal", out.Verdict)
	}

	// an ordinary king move from the same position still works
	out = apply(t, b, board.White,
		board.Square{Row: 0, Col: 4}, board.Square{Row: 0, Col: 5})
	if out.Verdict != VerdictContinuing {
		t.Fatalf("king step: got %s, want continuing", out.Verdict)
	}
}

// The en-passant target suffers the same loss: a double pawn push in a
// previous (persisted) move leaves no capture target behind.
func TestEnPassantTargetLostAfterReload(t *testing.T) {
	var b board.Board
	b.Set(0, 4, board.Piece{Type: board.King, Color: board.White})
	b.Set(7, 4, board.Piece{Type: board.King, Color: board.Black})
	b.Set(4, 4, board.Piece{Type: board.Pawn, Color: board.White})  // e5
	b.Set(4, 3, board.Piece{Type: board.Pawn, Color: board.Black}) // d5, as if just pushed

	out := apply(t, b, board.White,
		board.Square{Row: 4, Col: 4}, board.Square{Row: 5, Col: 3})
	if out.Verdict != VerdictIllegal {
		t.Fatalf("en passant after reload: got %s, want illegal", out.Verdict)
	}
}

func TestPawnAutoPromotesToQueen(t *testing.T) {
	var b board.Board
	b.Set(0, 2, board.Piece{Type: board.King, Color: board.White})
	b.Set(6, 0, board.Piece{Type: board.Pawn, Color: board.White})
	b.Set(0, 7, board.Piece{Type: board.King, Color: board.Black})

	out := apply(t, b, board.White,
		board.Square{Row: 6, Col: 0}, board.Square{Row: 7, Col: 0})
	if out.Verdict != VerdictContinuing {
		t.Fatalf("promotion: got %s, want continuing", out.Verdict)
	}
	if p := out.Board.At(7, 0); p.Type != board.Queen || p.Color != board.White {
		t.Fatalf("a8 after promotion: got %+v", p)
	}
}

func TestTurnAlternates(t *testing.T) {
	b := board.Starting()
	out := apply(t, b, board.White,
		board.Square{Row: 1, Col: 4}, board.Square{Row: 3, Col: 4})
	if out.NextTurn != board.Black {
		t.Fatalf("after white's move: got %s", out.NextTurn)
	}
	out = apply(t, out.Board, board.Black,
		board.Square{Row: 6, Col: 4}, board.Square{Row: 4, Col: 4})
	if out.NextTurn != board.White {
		t.Fatalf("after black's move: got %s", out.NextTurn)
	}
}

// Any board reachable through the adapter must survive the packed codec
// unchanged.
func TestReachableBoardsRoundTrip(t *testing.T) {
	line := []struct {
		turn     board.Color
		from, to board.Square
	}{
		{board.White, board.Square{Row: 1, Col: 4}, board.Square{Row: 3, Col: 4}}, // e4
		{board.Black, board.Square{Row: 6, Col: 2}, board.Square{Row: 4, Col: 2}}, // c5
		{board.White, board.Square{Row: 0, Col: 6}, board.Square{Row: 2, Col: 5}}, // Nf3
		{board.Black, board.Square{Row: 6, Col: 3}, board.Square{Row: 5, Col: 3}}, // d6
		{board.White, board.Square{Row: 1, Col: 3}, board.Square{Row: 3, Col: 3}}, // d4
		{board.Black, board.Square{Row: 4, Col: 2}, board.Square{Row: 3, Col: 3}}, // cxd4
		{board.White, board.Square{Row: 2, Col: 5}, board.Square{Row: 3, Col: 3}}, // Nxd4
	}
	b := board.Starting()
	for i, mv := range line {
		out := apply(t, b, mv.turn, mv.from, mv.to)
		if out.Verdict != VerdictContinuing {
			t.Fatalf("move %d: verdict %s", i, out.Verdict)
		}
		b = out.Board
		decoded, err := board.Decode(board.Encode(b))
		if err != nil {
			t.Fatalf("move %d: decode: %v", i, err)
		}
		if decoded != b {
			t.Fatalf("move %d: codec altered the board", i)
		}
	}
}
