package xiangqi

import (
	"errors"
	"strings"
	"unicode"
)

// StartFEN is the standard starting position, Red to move.
const StartFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w"

var ErrInvalidFEN = errors.New("invalid FEN")

// EncodeFEN renders board and side to move. Rows run from Black's back rank
// (row 9) down to Red's, runs of empty squares compressed to digits, then a
// space and w or b.
func EncodeFEN(b *Board, turn Side) string {
	var sb strings.Builder
	for r := NumRows - 1; r >= 0; r-- {
		if r < NumRows-1 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < NumCols; c++ {
			pc := b.Squares[SquareOf(r, c)]
			if pc == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(pieceToChar(pc))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	sb.WriteByte(' ')
	if turn == Red {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	return sb.String()
}

// ParseFEN decodes a position produced by EncodeFEN. Anything structurally
// off yields ErrInvalidFEN and no partial board.
func ParseFEN(fen string) (*Board, Side, error) {
	parts := strings.Split(strings.TrimSpace(fen), " ")
	if len(parts) < 2 {
		return nil, NoSide, ErrInvalidFEN
	}
	rows := strings.Split(parts[0], "/")
	if len(rows) != NumRows {
		return nil, NoSide, ErrInvalidFEN
	}
	b := &Board{}
	for i, row := range rows {
		r := NumRows - 1 - i
		c := 0
		for _, ch := range row {
			if c >= NumCols {
				return nil, NoSide, ErrInvalidFEN
			}
			if ch >= '1' && ch <= '9' {
				c += int(ch - '0')
				continue
			}
			pt, ok := letterToPieceType[unicode.ToLower(ch)]
			if !ok {
				return nil, NoSide, ErrInvalidFEN
			}
			side := Black
			if unicode.IsUpper(ch) {
				side = Red
			}
			b.AddPiece(SquareOf(r, c), MakePiece(side, pt))
			c++
		}
		if c != NumCols {
			return nil, NoSide, ErrInvalidFEN
		}
	}
	var turn Side
	switch parts[1] {
	case "w":
		turn = Red
	case "b":
		turn = Black
	default:
		return nil, NoSide, ErrInvalidFEN
	}
	if turn == Black {
		b.hash ^= sideKey()
	}
	return b, turn, nil
}
