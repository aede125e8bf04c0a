package board

import (
	"encoding/hex"
	"fmt"
)

// State is the 256-bit packed board: each square owns a 4-bit field at bit
// offset index*4, index = row*8 + col. Within a field, bits 0-2 carry the
// piece type code and bit 3 the color (0 = white, 1 = black). Byte 0 holds
// squares 0 and 1 (square 0 in the low nibble), so the hex form reads a1, b1,
// c1, ... h8 left to right. This layout is a stable wire format; off-system
// viewers decode it directly.
type State [32]byte

const colorBit = 0x8

// invalid piece-type code: bits 0-2 all set maps to no piece.
const invalidTypeBits = 0x7

// IsZero reports whether no square is occupied.
func (s State) IsZero() bool {
	return s == State{}
}

// Hex returns the canonical 64-character lowercase hex encoding, byte 0 first.
func (s State) Hex() string {
	return hex.EncodeToString(s[:])
}

// ParseHex decodes the canonical hex form. The empty string is accepted as
// the zero state, matching the ledger's default-record semantics.
func ParseHex(v string) (State, error) {
	var s State
	if v == "" {
		return s, nil
	}
	if len(v) != 64 {
		return State{}, fmt.Errorf("packed board: want 64 hex chars, got %d", len(v))
	}
	raw, err := hex.DecodeString(v)
	if err != nil {
		return State{}, fmt.Errorf("packed board: %w", err)
	}
	copy(s[:], raw)
	return s, nil
}

func (s *State) nibble(index int) byte {
	v := s[index/2]
	if index%2 == 1 {
		return v >> 4
	}
	return v & 0x0f
}

func (s *State) setNibble(index int, v byte) {
	if index%2 == 1 {
		s[index/2] = s[index/2]&0x0f | v<<4
	} else {
		s[index/2] = s[index/2]&0xf0 | v&0x0f
	}
}

// Encode packs the board. Empty squares encode as an all-zero field; the
// color bit is only ever written for occupied squares.
func Encode(b Board) State {
	var s State
	for index := 0; index < 64; index++ {
		p := b[index]
		if p.IsEmpty() {
			continue
		}
		field := byte(p.Type) & invalidTypeBits
		if p.Color == Black {
			field |= colorBit
		}
		s.setNibble(index, field)
	}
	return s
}

// Decode unpacks a State. A field whose type bits are zero is an empty
// square regardless of its color bit. The one unassigned type code (7)
// cannot come from Encode and is rejected so that a corrupted value aborts
// the enclosing transaction instead of materializing a phantom piece.
func Decode(s State) (Board, error) {
	var b Board
	for index := 0; index < 64; index++ {
		field := s.nibble(index)
		typeBits := field & invalidTypeBits
		if typeBits == 0 {
			continue
		}
		if typeBits == invalidTypeBits {
			return Board{}, fmt.Errorf("packed board: invalid piece code %d at square %d", typeBits, index)
		}
		p := Piece{Type: PieceType(typeBits), Color: White}
		if field&colorBit != 0 {
			p.Color = Black
		}
		b[index] = p
	}
	return b, nil
}
