package xiangqi

import "math/bits"

// Bitboard is a 90-bit occupancy mask over the board squares, bit i set iff
// square i (row*9+col) holds a piece of the tracked subset. Squares 0-63 live
// in lo, 64-89 in hi.
type Bitboard struct {
	lo, hi uint64
}

func (b Bitboard) Test(sq int) bool {
	if sq < 64 {
		return b.lo&(1<<uint(sq)) != 0
	}
	return b.hi&(1<<uint(sq-64)) != 0
}

func (b *Bitboard) Set(sq int) {
	if sq < 64 {
		b.lo |= 1 << uint(sq)
	} else {
		b.hi |= 1 << uint(sq-64)
	}
}

func (b *Bitboard) Clear(sq int) {
	if sq < 64 {
		b.lo &^= 1 << uint(sq)
	} else {
		b.hi &^= 1 << uint(sq-64)
	}
}

func (b Bitboard) IsEmpty() bool { return b.lo == 0 && b.hi == 0 }

func (b Bitboard) Count() int {
	return bits.OnesCount64(b.lo) + bits.OnesCount64(b.hi)
}

func (b Bitboard) And(o Bitboard) Bitboard {
	return Bitboard{lo: b.lo & o.lo, hi: b.hi & o.hi}
}

func (b Bitboard) Or(o Bitboard) Bitboard {
	return Bitboard{lo: b.lo | o.lo, hi: b.hi | o.hi}
}

// PopLSB clears and returns the lowest set square, or -1 when empty.
func (b *Bitboard) PopLSB() int {
	if b.lo != 0 {
		sq := bits.TrailingZeros64(b.lo)
		b.lo &= b.lo - 1
		return sq
	}
	if b.hi != 0 {
		sq := bits.TrailingZeros64(b.hi)
		b.hi &= b.hi - 1
		return sq + 64
	}
	return -1
}

// Row extracts the 9 bits of row r, bit i for column i. Row 7 straddles the
// lo/hi word boundary.
func (b Bitboard) Row(r int) uint16 {
	s := uint(r * NumCols)
	if s >= 64 {
		return uint16(b.hi>>(s-64)) & 0x1FF
	}
	v := b.lo >> s
	if s > 0 {
		v |= b.hi << (64 - s)
	}
	return uint16(v) & 0x1FF
}

// FirstSquare returns the lowest set square without clearing it, or -1.
func (b Bitboard) FirstSquare() int {
	if b.lo != 0 {
		return bits.TrailingZeros64(b.lo)
	}
	if b.hi != 0 {
		return bits.TrailingZeros64(b.hi) + 64
	}
	return -1
}
