package xiangqi

import (
	"errors"
	"math/bits"
)

// Move rejection reasons, from coarse (wrong square) to fine (the move is
// shaped right but leaves the general exposed). ValidateMove returns the
// first one that applies.
var (
	ErrOutOfBounds        = errors.New("coordinate out of bounds")
	ErrNoPieceAtSource    = errors.New("no piece at source square")
	ErrNotYourTurn        = errors.New("piece belongs to the other side")
	ErrInvalidMovePattern = errors.New("move breaks the piece's pattern")
	ErrBlockedPath        = errors.New("path is blocked")
	ErrFriendlyTarget     = errors.New("target holds a friendly piece")
	ErrPalaceRestriction  = errors.New("piece may not leave the palace")
	ErrRiverRestriction   = errors.New("piece may not cross the river")
	ErrSelfCheck          = errors.New("move leaves own general in check")
	ErrRepetition         = errors.New("move repeats the position too often")
	ErrGameOver           = errors.New("game is already over")
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// betweenMask sets the bits strictly between positions a and b on a line.
func betweenMask(a, b int) uint16 {
	if a > b {
		a, b = b, a
	}
	return (uint16(1)<<uint(b) - 1) &^ (uint16(1)<<uint(a+1) - 1)
}

// CountBetween counts the pieces strictly between two squares that share a
// row or a column.
func (b *Board) CountBetween(from, to int) int {
	fr, fc := RowOf(from), ColOf(from)
	tr, tc := RowOf(to), ColOf(to)
	if fr == tr {
		return bits.OnesCount16(b.rowOcc[fr] & betweenMask(fc, tc))
	}
	return bits.OnesCount16(b.colOcc[fc] & betweenMask(fr, tr))
}

// ValidateMove checks mv for turn against the full rule set without mutating
// the board. nil means the move is legal, including that it leaves no
// self-check and no facing generals behind.
func (b *Board) ValidateMove(mv Move, turn Side) error {
	if !onBoard(int(mv.From.Row), int(mv.From.Col)) || !onBoard(int(mv.To.Row), int(mv.To.Col)) {
		return ErrOutOfBounds
	}
	from, to := mv.From.Index(), mv.To.Index()
	if from == to {
		return ErrInvalidMovePattern
	}
	pc := b.Squares[from]
	if pc == 0 {
		return ErrNoPieceAtSource
	}
	if pc.Side() != turn {
		return ErrNotYourTurn
	}
	if tgt := b.Squares[to]; tgt != 0 && tgt.Side() == turn {
		return ErrFriendlyTarget
	}
	if err := b.validatePattern(pc, from, to); err != nil {
		return err
	}
	sim := b.Clone()
	if _, err := sim.ApplyMove(mv, turn); err != nil {
		return err
	}
	if sim.IsInCheck(turn) || sim.IsFlyingGeneral() {
		return ErrSelfCheck
	}
	return nil
}

// validatePattern applies the per-piece movement rules. Bounds, ownership
// and the friendly-target case are already ruled out.
func (b *Board) validatePattern(pc Piece, from, to int) error {
	side := pc.Side()
	fr, fc := RowOf(from), ColOf(from)
	tr, tc := RowOf(to), ColOf(to)
	dRow, dCol := abs(tr-fr), abs(tc-fc)

	switch pc.Type() {
	case PieceGeneral:
		if dRow+dCol != 1 {
			return ErrInvalidMovePattern
		}
		if !inPalace(side, tr, tc) {
			return ErrPalaceRestriction
		}
	case PieceAdvisor:
		if dRow != 1 || dCol != 1 {
			return ErrInvalidMovePattern
		}
		if !inPalace(side, tr, tc) {
			return ErrPalaceRestriction
		}
	case PieceElephant:
		if dRow != 2 || dCol != 2 {
			return ErrInvalidMovePattern
		}
		if crossedRiver(side, tr) {
			return ErrRiverRestriction
		}
		if b.Squares[SquareOf((fr+tr)/2, (fc+tc)/2)] != 0 {
			return ErrBlockedPath
		}
	case PieceHorse:
		if !(dRow == 2 && dCol == 1 || dRow == 1 && dCol == 2) {
			return ErrInvalidMovePattern
		}
		var leg int
		if dRow == 2 {
			leg = SquareOf((fr+tr)/2, fc)
		} else {
			leg = SquareOf(fr, (fc+tc)/2)
		}
		if b.Squares[leg] != 0 {
			return ErrBlockedPath
		}
	case PieceRook:
		if dRow != 0 && dCol != 0 {
			return ErrInvalidMovePattern
		}
		if b.CountBetween(from, to) != 0 {
			return ErrBlockedPath
		}
	case PieceCannon:
		if dRow != 0 && dCol != 0 {
			return ErrInvalidMovePattern
		}
		screens := b.CountBetween(from, to)
		if b.Squares[to] == 0 {
			if screens != 0 {
				return ErrBlockedPath
			}
		} else if screens != 1 {
			return ErrBlockedPath
		}
	case PieceSoldier:
		if tr-fr == -soldierForward(side) {
			return ErrInvalidMovePattern
		}
		if dRow+dCol != 1 {
			return ErrInvalidMovePattern
		}
		if dRow == 0 && !crossedRiver(side, fr) {
			return ErrRiverRestriction
		}
	default:
		return ErrInvalidMovePattern
	}
	return nil
}
