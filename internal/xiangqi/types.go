package xiangqi

import "fmt"

type Side int8

const (
	NoSide Side = -1
	Red    Side = 0
	Black  Side = 1
)

func (s Side) Opposite() Side {
	switch s {
	case Red:
		return Black
	case Black:
		return Red
	default:
		return NoSide
	}
}

func (s Side) String() string {
	switch s {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "none"
	}
}

type PieceType int8

const (
	PieceNone PieceType = iota
	PieceGeneral
	PieceAdvisor
	PieceElephant
	PieceHorse
	PieceRook
	PieceCannon
	PieceSoldier
)

// index maps a piece type to its bitboard slot within one color's block.
func (t PieceType) index() int { return int(t) - 1 }

// Piece packs type and color into one byte: 0 empty, >0 red, <0 black.
type Piece int8

func MakePiece(side Side, pt PieceType) Piece {
	if pt == PieceNone || side == NoSide {
		return 0
	}
	if side == Red {
		return Piece(pt)
	}
	return -Piece(pt)
}

func (p Piece) Type() PieceType {
	if p < 0 {
		return PieceType(-p)
	}
	return PieceType(p)
}

func (p Piece) Side() Side {
	if p == 0 {
		return NoSide
	}
	if p > 0 {
		return Red
	}
	return Black
}

const (
	NumRows    = 10
	NumCols    = 9
	NumSquares = NumRows * NumCols
)

// SquareOf converts row/col to a square index; RowOf and ColOf invert it.
func SquareOf(row, col int) int { return row*NumCols + col }
func RowOf(sq int) int          { return sq / NumCols }
func ColOf(sq int) int          { return sq % NumCols }

func onBoard(row, col int) bool {
	return row >= 0 && row < NumRows && col >= 0 && col < NumCols
}

// inPalace reports whether (row, col) lies inside side's palace. Red's palace
// spans rows 0-2, Black's rows 7-9, both over columns 3-5.
func inPalace(side Side, row, col int) bool {
	if col < 3 || col > 5 {
		return false
	}
	if side == Red {
		return row <= 2
	}
	if side == Black {
		return row >= 7
	}
	return false
}

// crossedRiver reports whether a piece of side standing on row has crossed the
// river. Red occupies rows 0-4, Black rows 5-9.
func crossedRiver(side Side, row int) bool {
	if side == Red {
		return row > 4
	}
	if side == Black {
		return row < 5
	}
	return false
}

// soldierForward is the row delta of a forward soldier step.
func soldierForward(side Side) int {
	if side == Red {
		return 1
	}
	if side == Black {
		return -1
	}
	return 0
}

// Coord is a board position. Row 0 is Red's back rank, row 9 Black's.
type Coord struct {
	Row int8 `json:"row"`
	Col int8 `json:"col"`
}

// NewCoord validates row/col and builds a Coord. Out-of-range input yields
// ErrOutOfBounds.
func NewCoord(row, col int) (Coord, error) {
	if !onBoard(row, col) {
		return Coord{}, ErrOutOfBounds
	}
	return Coord{Row: int8(row), Col: int8(col)}, nil
}

func (c Coord) Index() int { return SquareOf(int(c.Row), int(c.Col)) }

// CoordOf converts a square index to a Coord.
func CoordOf(sq int) Coord {
	return Coord{Row: int8(RowOf(sq)), Col: int8(ColOf(sq))}
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

type Move struct {
	From Coord `json:"from"`
	To   Coord `json:"to"`
}

func (m Move) String() string { return fmt.Sprintf("%v-%v", m.From, m.To) }
