package xiangqi

import "math/bits"

// IsAttacked reports whether bySide attacks sq. Probes run backwards from sq
// through the move tables: slider attacks are symmetric, the horse leg is
// recomputed beside the attacker, and soldier squares are the ones a capture
// of sq would launch from. Advisors, elephants and the general can never
// reach an enemy general, so they are skipped; general opposition is
// IsFlyingGeneral's business.
func (b *Board) IsAttacked(sq int, bySide Side) bool {
	t := Tables()
	r, c := RowOf(sq), ColOf(sq)

	rook := MakePiece(bySide, PieceRook)
	cannon := MakePiece(bySide, PieceCannon)
	horse := MakePiece(bySide, PieceHorse)
	soldier := MakePiece(bySide, PieceSoldier)

	for m := t.RookAttacks(c, b.rowOcc[r], NumCols); m != 0; m &= m - 1 {
		if b.Squares[SquareOf(r, bits.TrailingZeros16(m))] == rook {
			return true
		}
	}
	for m := t.RookAttacks(r, b.colOcc[c], NumRows); m != 0; m &= m - 1 {
		if b.Squares[SquareOf(bits.TrailingZeros16(m), c)] == rook {
			return true
		}
	}
	for m := t.CannonAttacks(c, b.rowOcc[r], NumCols); m != 0; m &= m - 1 {
		if b.Squares[SquareOf(r, bits.TrailingZeros16(m))] == cannon {
			return true
		}
	}
	for m := t.CannonAttacks(r, b.colOcc[c], NumRows); m != 0; m &= m - 1 {
		if b.Squares[SquareOf(bits.TrailingZeros16(m), c)] == cannon {
			return true
		}
	}

	for _, st := range t.HorseSteps(sq) {
		if b.Squares[st.To] != horse {
			continue
		}
		// The blocking leg sits next to the attacker, not next to sq.
		hr, hc := RowOf(int(st.To)), ColOf(int(st.To))
		var leg int
		if dr := r - hr; dr == 2 {
			leg = SquareOf(hr+1, hc)
		} else if dr == -2 {
			leg = SquareOf(hr-1, hc)
		} else if c-hc == 2 {
			leg = SquareOf(hr, hc+1)
		} else {
			leg = SquareOf(hr, hc-1)
		}
		if b.Squares[leg] == 0 {
			return true
		}
	}

	if fr := r - soldierForward(bySide); onBoard(fr, c) && b.Squares[SquareOf(fr, c)] == soldier {
		return true
	}
	// Lateral soldier captures stay on sq's row, so the river test uses it.
	if crossedRiver(bySide, r) {
		if c > 0 && b.Squares[SquareOf(r, c-1)] == soldier {
			return true
		}
		if c < NumCols-1 && b.Squares[SquareOf(r, c+1)] == soldier {
			return true
		}
	}
	return false
}

// IsInCheck reports whether side's general stands attacked.
func (b *Board) IsInCheck(side Side) bool {
	g := b.General(side)
	if g == -1 {
		return false
	}
	return b.IsAttacked(g, side.Opposite())
}

// IsFlyingGeneral reports whether the two generals face each other on an
// open file, which no move may leave behind.
func (b *Board) IsFlyingGeneral() bool {
	rg := b.General(Red)
	bg := b.General(Black)
	if rg == -1 || bg == -1 {
		return false
	}
	if ColOf(rg) != ColOf(bg) {
		return false
	}
	return b.colOcc[ColOf(rg)]&betweenMask(RowOf(rg), RowOf(bg)) == 0
}
