// Package board holds the logical chess board and the packed ledger codec.
package board

// Color identifies a chess side. The numeric values are part of the
// persisted schema: 0 means "no color" (unset victor, empty square).
type Color uint8

const (
	ColorNone Color = 0
	White     Color = 1
	Black     Color = 2
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Other returns the opposing side, or ColorNone for ColorNone.
func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return ColorNone
	}
}

// PieceType codes are part of the persisted schema and occupy the low three
// bits of a packed square.
type PieceType uint8

const (
	NoPieceType PieceType = 0
	Pawn        PieceType = 1
	Knight      PieceType = 2
	Bishop      PieceType = 3
	Rook        PieceType = 4
	Queen       PieceType = 5
	King        PieceType = 6
)

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// Piece is one occupied square. The zero Piece is an empty square.
type Piece struct {
	Type  PieceType
	Color Color
}

// IsEmpty reports whether the piece slot is unoccupied.
func (p Piece) IsEmpty() bool { return p.Type == NoPieceType }

// Square addresses one board cell. Row 0 is rank 1 (white's back rank),
// col 0 is file a.
type Square struct {
	Row int
	Col int
}

// InBounds reports whether the square lies on the 8x8 board.
func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// Board is the logical 8x8 position, indexed row*8+col.
type Board [64]Piece

// At returns the piece on (row, col). Out-of-range coordinates yield the
// empty piece.
func (b *Board) At(row, col int) Piece {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return Piece{}
	}
	return b[row*8+col]
}

// Set places p on (row, col). Out-of-range coordinates are ignored.
func (b *Board) Set(row, col int, p Piece) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return
	}
	b[row*8+col] = p
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Starting returns the standard chess starting position.
func Starting() Board {
	var b Board
	for col := 0; col < 8; col++ {
		b.Set(0, col, Piece{Type: backRank[col], Color: White})
		b.Set(1, col, Piece{Type: Pawn, Color: White})
		b.Set(6, col, Piece{Type: Pawn, Color: Black})
		b.Set(7, col, Piece{Type: backRank[col], Color: Black})
	}
	return b
}
