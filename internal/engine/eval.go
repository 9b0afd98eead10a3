package engine

import (
	"math/bits"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// Evaluator scores positions statically. Material and piece-square terms
// come from the board's incremental counters; mobility, king safety and
// palace structure are computed here. Every weight is read from the
// Config on each call so tuning files can reshape the evaluation
// without rebuilding.
type Evaluator struct {
	cfg *Config
}

func NewEvaluator(cfg *Config) *Evaluator { return &Evaluator{cfg: cfg} }

// Evaluate returns a static score for the position, positive when turn
// stands better.
func (e *Evaluator) Evaluate(b *xiangqi.Board, turn xiangqi.Side) int {
	score := e.evaluateRed(b)
	if turn == xiangqi.Black {
		return -score
	}
	return score
}

// evaluateRed scores from Red's perspective.
func (e *Evaluator) evaluateRed(b *xiangqi.Board) int {
	score := b.MaterialScore(xiangqi.Red) + b.PSTScore(xiangqi.Red) -
		b.MaterialScore(xiangqi.Black) - b.PSTScore(xiangqi.Black)

	redDefenders := b.PieceBB(xiangqi.Red, xiangqi.PieceAdvisor).Count() +
		b.PieceBB(xiangqi.Red, xiangqi.PieceElephant).Count()
	blackDefenders := b.PieceBB(xiangqi.Black, xiangqi.PieceAdvisor).Count() +
		b.PieceBB(xiangqi.Black, xiangqi.PieceElephant).Count()
	score += (redDefenders - blackDefenders) * e.cfg.DefenderBonus

	score += e.mobility(b, xiangqi.Red) - e.mobility(b, xiangqi.Black)
	score += e.structure(b, xiangqi.Red) - e.structure(b, xiangqi.Black)
	score -= e.kingDanger(b, xiangqi.Red)
	score += e.kingDanger(b, xiangqi.Black)

	return score
}

// mobility sums weighted, per-piece-capped destination counts for the
// long-range and advancing pieces. Rook and cannon counts come straight
// from the attack tables; horses count steps with a free leg, soldiers
// their unblocked target squares.
func (e *Evaluator) mobility(b *xiangqi.Board, side xiangqi.Side) int {
	cfg := e.cfg
	tables := xiangqi.Tables()
	occ := b.Occupied()
	total := 0

	bb := b.PieceBB(side, xiangqi.PieceRook)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		r, c := xiangqi.RowOf(sq), xiangqi.ColOf(sq)
		n := bits.OnesCount16(tables.RookAttacks(c, b.RowOccupancy(r), xiangqi.NumCols)) +
			bits.OnesCount16(tables.RookAttacks(r, b.ColOccupancy(c), xiangqi.NumRows))
		total += capAt(n, cfg.MobilityCap) * cfg.MobilityRook
	}

	bb = b.PieceBB(side, xiangqi.PieceCannon)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		r, c := xiangqi.RowOf(sq), xiangqi.ColOf(sq)
		n := bits.OnesCount16(tables.CannonAttacks(c, b.RowOccupancy(r), xiangqi.NumCols)) +
			bits.OnesCount16(tables.CannonAttacks(r, b.ColOccupancy(c), xiangqi.NumRows))
		total += capAt(n, cfg.MobilityCap) * cfg.MobilityCannon
	}

	bb = b.PieceBB(side, xiangqi.PieceHorse)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		n := 0
		for _, st := range tables.HorseSteps(sq) {
			if !occ.Test(int(st.Via)) {
				n++
			}
		}
		total += capAt(n, cfg.MobilityCap) * cfg.MobilityHorse
	}

	bb = b.PieceBB(side, xiangqi.PieceSoldier)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		n := 0
		for _, t := range tables.SoldierTargets(side, sq) {
			if b.Squares[t].Side() != side {
				n++
			}
		}
		total += capAt(n, cfg.MobilityCap) * cfg.MobilitySoldier
	}

	return total
}

// kingDanger totals the safety penalties for side's general: one per
// blocked palace escape square, plus the graduated cannon-exposure
// penalty for every enemy cannon bearing on the general's file or rank
// with at most one screen between.
func (e *Evaluator) kingDanger(b *xiangqi.Board, side xiangqi.Side) int {
	gen := b.General(side)
	if gen == -1 {
		return 0
	}
	cfg := e.cfg
	occ := b.Occupied()
	danger := 0

	for _, t := range xiangqi.Tables().GeneralTargets(gen) {
		if occ.Test(int(t)) {
			danger += cfg.KingEscapePenalty
		}
	}

	gr, gc := xiangqi.RowOf(gen), xiangqi.ColOf(gen)
	bb := b.PieceBB(side.Opposite(), xiangqi.PieceCannon)
	for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
		if xiangqi.RowOf(sq) != gr && xiangqi.ColOf(sq) != gc {
			continue
		}
		switch b.CountBetween(gen, sq) {
		case 0:
			danger += cfg.CannonExposureOpen
		case 1:
			danger += cfg.CannonExposureScreened
		}
	}

	return danger
}

// structure rewards advisors and elephants that guard each other: a
// full advisor pair with one on the palace center square, and an
// elephant pair linked through an open eye.
func (e *Evaluator) structure(b *xiangqi.Board, side xiangqi.Side) int {
	cfg := e.cfg
	bonus := 0

	advisors := b.PieceBB(side, xiangqi.PieceAdvisor)
	if advisors.Count() == 2 && advisors.Test(advisorCenter(side)) {
		bonus += cfg.StructureBonus
	}

	elephants := b.PieceBB(side, xiangqi.PieceElephant)
	if first := elephants.PopLSB(); first != -1 {
		if second := elephants.PopLSB(); second != -1 {
			occ := b.Occupied()
			for _, st := range xiangqi.Tables().ElephantSteps(first) {
				if int(st.To) == second && !occ.Test(int(st.Via)) {
					bonus += cfg.StructureBonus
					break
				}
			}
		}
	}

	return bonus
}

// advisorCenter is the palace midpoint, the square every advisor move
// passes through.
func advisorCenter(side xiangqi.Side) int {
	if side == xiangqi.Red {
		return xiangqi.SquareOf(1, 4)
	}
	return xiangqi.SquareOf(8, 4)
}

func capAt(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}
