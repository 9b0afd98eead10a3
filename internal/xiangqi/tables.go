package xiangqi

import "sync"

// maxLine is the longest straight line on the board (a file of 10 squares).
// Rook and cannon tables cover full lines; shorter ranks mask down at query
// time.
const maxLine = NumRows

// Step is a precomputed destination paired with the square that must be empty
// for the step to be playable (the horse's leg or the elephant's eye).
type Step struct {
	To  int16
	Via int16
}

// AttackTables holds the precomputed move tables shared by move generation,
// check detection and evaluation. Build once via Tables.
type AttackTables struct {
	rook   [maxLine][1 << maxLine]uint16
	cannon [maxLine][1 << maxLine]uint16

	horse    [NumSquares][]Step
	elephant [NumSquares][]Step
	advisor  [NumSquares][]int16
	general  [NumSquares][]int16
	soldier  [2][NumSquares][]int16
}

var (
	tablesOnce sync.Once
	tables     *AttackTables
)

// Tables returns the shared move tables, building them on first use.
func Tables() *AttackTables {
	tablesOnce.Do(func() {
		tables = newAttackTables()
	})
	return tables
}

// RookAttacks returns the squares a rook on position idx of a line with the
// given occupancy can reach, captures included. length is the line length
// (9 for ranks, 10 for files); bits beyond it are ignored on both sides.
func (t *AttackTables) RookAttacks(idx int, occ uint16, length int) uint16 {
	mask := uint16(1<<uint(length)) - 1
	return t.rook[idx][occ&mask] & mask
}

// CannonAttacks returns the quiet squares before the first blocker plus the
// capture square behind exactly one screen, for a cannon on position idx.
func (t *AttackTables) CannonAttacks(idx int, occ uint16, length int) uint16 {
	mask := uint16(1<<uint(length)) - 1
	return t.cannon[idx][occ&mask] & mask
}

// HorseSteps lists the horse destinations from sq with their blocking legs.
func (t *AttackTables) HorseSteps(sq int) []Step { return t.horse[sq] }

// ElephantSteps lists the elephant destinations from sq with their eyes.
// Targets never cross the river relative to sq's half.
func (t *AttackTables) ElephantSteps(sq int) []Step { return t.elephant[sq] }

// AdvisorTargets lists the diagonal palace steps from sq.
func (t *AttackTables) AdvisorTargets(sq int) []int16 { return t.advisor[sq] }

// GeneralTargets lists the orthogonal palace steps from sq.
func (t *AttackTables) GeneralTargets(sq int) []int16 { return t.general[sq] }

// SoldierTargets lists the forward step and, once across the river, the
// lateral steps for a soldier of side on sq.
func (t *AttackTables) SoldierTargets(side Side, sq int) []int16 {
	return t.soldier[side][sq]
}

// horseOffsets pairs each destination delta with its leg delta.
var horseOffsets = [8][4]int{
	{-2, -1, -1, 0}, {-2, 1, -1, 0},
	{2, -1, 1, 0}, {2, 1, 1, 0},
	{-1, -2, 0, -1}, {-1, 2, 0, 1},
	{1, -2, 0, -1}, {1, 2, 0, 1},
}

var diagOffsets = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

var orthoOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

func newAttackTables() *AttackTables {
	t := &AttackTables{}

	for idx := 0; idx < maxLine; idx++ {
		for occ := 0; occ < 1<<maxLine; occ++ {
			t.rook[idx][occ] = slideAttacks(idx, uint16(occ), maxLine)
			t.cannon[idx][occ] = jumpAttacks(idx, uint16(occ), maxLine)
		}
	}

	for sq := 0; sq < NumSquares; sq++ {
		r, c := RowOf(sq), ColOf(sq)

		for _, o := range horseOffsets {
			tr, tc := r+o[0], c+o[1]
			if !onBoard(tr, tc) {
				continue
			}
			t.horse[sq] = append(t.horse[sq], Step{
				To:  int16(SquareOf(tr, tc)),
				Via: int16(SquareOf(r+o[2], c+o[3])),
			})
		}

		for _, o := range diagOffsets {
			tr, tc := r+2*o[0], c+2*o[1]
			if !onBoard(tr, tc) || !sameHalf(r, tr) {
				continue
			}
			t.elephant[sq] = append(t.elephant[sq], Step{
				To:  int16(SquareOf(tr, tc)),
				Via: int16(SquareOf(r+o[0], c+o[1])),
			})
		}

		for _, o := range diagOffsets {
			tr, tc := r+o[0], c+o[1]
			if !anyPalace(tr, tc) {
				continue
			}
			t.advisor[sq] = append(t.advisor[sq], int16(SquareOf(tr, tc)))
		}

		for _, o := range orthoOffsets {
			tr, tc := r+o[0], c+o[1]
			if !anyPalace(tr, tc) {
				continue
			}
			t.general[sq] = append(t.general[sq], int16(SquareOf(tr, tc)))
		}

		for side := Red; side <= Black; side++ {
			fr := r + soldierForward(side)
			if onBoard(fr, c) {
				t.soldier[side][sq] = append(t.soldier[side][sq], int16(SquareOf(fr, c)))
			}
			if crossedRiver(side, r) {
				for _, dc := range [2]int{-1, 1} {
					if onBoard(r, c+dc) {
						t.soldier[side][sq] = append(t.soldier[side][sq], int16(SquareOf(r, c+dc)))
					}
				}
			}
		}
	}

	return t
}

// sameHalf reports whether both rows sit on the same side of the river.
func sameHalf(r1, r2 int) bool {
	if r1 <= 4 {
		return r2 <= 4
	}
	return r2 >= 5
}

// anyPalace reports whether (row, col) lies in either palace. A one-square
// step cannot jump between palaces, so filtering targets against both keeps
// each general and advisor confined to its own.
func anyPalace(row, col int) bool {
	if col < 3 || col > 5 {
		return false
	}
	return (row >= 0 && row <= 2) || (row >= 7 && row <= 9)
}

// slideAttacks walks outward from idx, stopping on (and including) the first
// occupied square in each direction.
func slideAttacks(idx int, occ uint16, length int) uint16 {
	var attacks uint16
	for i := idx + 1; i < length; i++ {
		attacks |= 1 << uint(i)
		if occ&(1<<uint(i)) != 0 {
			break
		}
	}
	for i := idx - 1; i >= 0; i-- {
		attacks |= 1 << uint(i)
		if occ&(1<<uint(i)) != 0 {
			break
		}
	}
	return attacks
}

// jumpAttacks collects the empty squares before the first blocker and the
// first occupied square after it, the cannon's screen-capture pattern.
func jumpAttacks(idx int, occ uint16, length int) uint16 {
	var attacks uint16
	jumped := false
	for i := idx + 1; i < length; i++ {
		bit := uint16(1) << uint(i)
		if occ&bit != 0 {
			if jumped {
				attacks |= bit
				break
			}
			jumped = true
		} else if !jumped {
			attacks |= bit
		}
	}
	jumped = false
	for i := idx - 1; i >= 0; i-- {
		bit := uint16(1) << uint(i)
		if occ&bit != 0 {
			if jumped {
				attacks |= bit
				break
			}
			jumped = true
		} else if !jumped {
			attacks |= bit
		}
	}
	return attacks
}
