package xiangqi

// Base piece values used for the board's incremental material score. Search
// and evaluation weights tune their own copies; these anchor the position
// bookkeeping itself.
const (
	ValSoldier  = 100
	ValAdvisor  = 200
	ValElephant = 200
	ValHorse    = 400
	ValCannon   = 450
	ValRook     = 900
	ValGeneral  = 10000
)

// Piece-square tables from Red's perspective; row 0 is Red's back rank. Black
// reads the same table with the row mirrored.

var pstSoldier = [NumRows][NumCols]int{
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{10, 10, 10, 10, 10, 10, 10, 10, 10},
	{20, 20, 20, 20, 20, 20, 20, 20, 20},
	{30, 30, 30, 30, 30, 30, 30, 30, 30},
	{40, 40, 40, 40, 40, 40, 40, 40, 40},
	{50, 50, 50, 50, 50, 50, 50, 50, 50},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
}

var pstHorse = [NumRows][NumCols]int{
	{0, -10, 0, 0, 0, 0, 0, -10, 0},
	{0, 5, 15, 5, 5, 5, 15, 5, 0},
	{5, 5, 10, 10, 10, 10, 10, 5, 5},
	{5, 10, 15, 20, 20, 20, 15, 10, 5},
	{5, 10, 15, 20, 20, 20, 15, 10, 5},
	{5, 10, 20, 25, 25, 25, 20, 10, 5},
	{5, 10, 20, 25, 25, 25, 20, 10, 5},
	{5, 10, 10, 10, 10, 10, 10, 10, 5},
	{0, 5, 5, 5, 5, 5, 5, 5, 0},
	{0, -10, 0, 0, 0, 0, 0, -10, 0},
}

var pstRook = [NumRows][NumCols]int{
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 10, 0, 10, 0, 10, 0, 10, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{10, 20, 20, 20, 20, 20, 20, 20, 10},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
}

var pstCannon = [NumRows][NumCols]int{
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 10, 0, 0, 0, 0, 0, 10, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{10, 10, 10, 10, 10, 10, 10, 10, 10},
	{10, 10, 10, 10, 10, 10, 10, 10, 10},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
}

// PieceValue returns the base material value of a piece type.
func PieceValue(pt PieceType) int {
	switch pt {
	case PieceGeneral:
		return ValGeneral
	case PieceAdvisor:
		return ValAdvisor
	case PieceElephant:
		return ValElephant
	case PieceHorse:
		return ValHorse
	case PieceRook:
		return ValRook
	case PieceCannon:
		return ValCannon
	case PieceSoldier:
		return ValSoldier
	default:
		return 0
	}
}

// pstValue returns the piece-square bonus for pt of side on (row, col).
func pstValue(pt PieceType, side Side, row, col int) int {
	r := row
	if side == Black {
		r = NumRows - 1 - row
	}
	switch pt {
	case PieceSoldier:
		return pstSoldier[r][col]
	case PieceHorse:
		return pstHorse[r][col]
	case PieceRook:
		return pstRook[r][col]
	case PieceCannon:
		return pstCannon[r][col]
	default:
		return 0
	}
}
