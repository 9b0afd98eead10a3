package xiangqi

import "math/bits"

// MaxMoves bounds the moves one side can have in any reachable position.
const MaxMoves = 128

// MoveList is a fixed-capacity move buffer that lives on the stack of its
// caller. Adds beyond capacity are dropped.
type MoveList struct {
	moves [MaxMoves]Move
	n     int
}

func (l *MoveList) Add(m Move) {
	if l.n < MaxMoves {
		l.moves[l.n] = m
		l.n++
	}
}

func (l *MoveList) Len() int { return l.n }

// Moves returns the filled prefix, valid until the next Add or Clear.
func (l *MoveList) Moves() []Move { return l.moves[:l.n] }

func (l *MoveList) Clear() { l.n = 0 }

// Filter keeps the moves keep returns true for, preserving order.
func (l *MoveList) Filter(keep func(Move) bool) {
	k := 0
	for i := 0; i < l.n; i++ {
		if keep(l.moves[i]) {
			l.moves[k] = l.moves[i]
			k++
		}
	}
	l.n = k
}

// GeneratePseudoMoves appends side's pattern-legal moves to dst. Self-check
// and facing generals are not yet filtered out.
func (b *Board) GeneratePseudoMoves(side Side, dst *MoveList) {
	t := Tables()

	bb := b.PieceBB(side, PieceRook)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		r, c := RowOf(sq), ColOf(sq)
		for m := t.RookAttacks(c, b.rowOcc[r], NumCols); m != 0; m &= m - 1 {
			b.addIfNotFriendly(dst, side, sq, SquareOf(r, bits.TrailingZeros16(m)))
		}
		for m := t.RookAttacks(r, b.colOcc[c], NumRows); m != 0; m &= m - 1 {
			b.addIfNotFriendly(dst, side, sq, SquareOf(bits.TrailingZeros16(m), c))
		}
	}

	bb = b.PieceBB(side, PieceCannon)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		r, c := RowOf(sq), ColOf(sq)
		for m := t.CannonAttacks(c, b.rowOcc[r], NumCols); m != 0; m &= m - 1 {
			b.addIfNotFriendly(dst, side, sq, SquareOf(r, bits.TrailingZeros16(m)))
		}
		for m := t.CannonAttacks(r, b.colOcc[c], NumRows); m != 0; m &= m - 1 {
			b.addIfNotFriendly(dst, side, sq, SquareOf(bits.TrailingZeros16(m), c))
		}
	}

	bb = b.PieceBB(side, PieceHorse)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		for _, st := range t.HorseSteps(sq) {
			if b.Squares[st.Via] == 0 {
				b.addIfNotFriendly(dst, side, sq, int(st.To))
			}
		}
	}

	bb = b.PieceBB(side, PieceElephant)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		for _, st := range t.ElephantSteps(sq) {
			if b.Squares[st.Via] == 0 {
				b.addIfNotFriendly(dst, side, sq, int(st.To))
			}
		}
	}

	bb = b.PieceBB(side, PieceAdvisor)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		for _, to := range t.AdvisorTargets(sq) {
			b.addIfNotFriendly(dst, side, sq, int(to))
		}
	}

	bb = b.PieceBB(side, PieceGeneral)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		for _, to := range t.GeneralTargets(sq) {
			b.addIfNotFriendly(dst, side, sq, int(to))
		}
	}

	bb = b.PieceBB(side, PieceSoldier)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		for _, to := range t.SoldierTargets(side, sq) {
			b.addIfNotFriendly(dst, side, sq, int(to))
		}
	}
}

func (b *Board) addIfNotFriendly(dst *MoveList, side Side, from, to int) {
	if b.Squares[to].Side() != side {
		dst.Add(Move{From: CoordOf(from), To: CoordOf(to)})
	}
}

// GenerateLegalMoves fills dst with side's legal moves, dropping any that
// leave the general in check or the generals facing.
func (b *Board) GenerateLegalMoves(side Side, dst *MoveList) {
	dst.Clear()
	b.GeneratePseudoMoves(side, dst)
	dst.Filter(func(mv Move) bool {
		captured, err := b.ApplyMove(mv, side)
		if err != nil {
			return false
		}
		ok := !b.IsInCheck(side) && !b.IsFlyingGeneral()
		b.UndoMove(mv, captured, side)
		return ok
	})
}

// HasLegalMoves reports whether side has at least one legal move, without
// collecting them all.
func (b *Board) HasLegalMoves(side Side) bool {
	var list MoveList
	b.GeneratePseudoMoves(side, &list)
	for _, mv := range list.Moves() {
		captured, err := b.ApplyMove(mv, side)
		if err != nil {
			continue
		}
		ok := !b.IsInCheck(side) && !b.IsFlyingGeneral()
		b.UndoMove(mv, captured, side)
		if ok {
			return true
		}
	}
	return false
}
