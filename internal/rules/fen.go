package rules

import (
	"strconv"
	"strings"

	"github.com/castlek/chessledger/internal/board"
)

var fenLetters = map[board.PieceType]byte{
	board.Pawn:   'p',
	board.Knight: 'n',
	board.Bishop: 'b',
	board.Rook:   'r',
	board.Queen:  'q',
	board.King:   'k',
}

// positionFEN renders the board and side to move as a FEN string with
// castling rights and en-passant target cleared and move clocks reset.
// Those fields are not part of the packed board format.
func positionFEN(b board.Board, turn board.Color) string {
	var sb strings.Builder
	for row := 7; row >= 0; row-- {
		empty := 0
		for col := 0; col < 8; col++ {
			p := b.At(row, col)
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			letter := fenLetters[p.Type]
			if p.Color == board.White {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row > 0 {
			sb.WriteByte('/')
		}
	}
	side := " w"
	if turn == board.Black {
		side = " b"
	}
	sb.WriteString(side)
	sb.WriteString(" - - 0 1")
	return sb.String()
}
