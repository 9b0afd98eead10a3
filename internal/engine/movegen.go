package engine

import (
	"math/bits"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// scoredMove pairs a pseudo-legal move with its ordering score.
type scoredMove struct {
	mv    xiangqi.Move
	score int
}

// moveList is a fixed-capacity scored move buffer, filled by the
// generator and sorted best-first before the search walks it.
type moveList struct {
	moves [xiangqi.MaxMoves]scoredMove
	n     int
}

func (l *moveList) add(mv xiangqi.Move, score int) {
	if l.n < len(l.moves) {
		l.moves[l.n] = scoredMove{mv: mv, score: score}
		l.n++
	}
}

// sortByScore orders the list highest score first. Insertion sort: the
// list is short and the scoring already clusters it.
func (l *moveList) sortByScore() {
	for i := 1; i < l.n; i++ {
		m := l.moves[i]
		j := i - 1
		for j >= 0 && l.moves[j].score < m.score {
			l.moves[j+1] = l.moves[j]
			j--
		}
		l.moves[j+1] = m
	}
}

// retain keeps the moves satisfying keep, preserving order.
func (l *moveList) retain(keep func(xiangqi.Move) bool) {
	out := 0
	for i := 0; i < l.n; i++ {
		if keep(l.moves[i].mv) {
			l.moves[out] = l.moves[i]
			out++
		}
	}
	l.n = out
}

type genContext struct {
	board        *xiangqi.Board
	turn         xiangqi.Side
	list         *moveList
	ttMove       xiangqi.Move
	killers      [2]xiangqi.Move
	onlyCaptures bool
	enemy        xiangqi.Bitboard
}

// generateMoves fills dst with scored pseudo-legal moves for turn:
// the table move first, then captures by victim value minus a tenth of
// the attacker's, killer moves recorded at this ply, and finally the
// history score. Legality is the caller's job.
func (e *Engine) generateMoves(b *xiangqi.Board, turn xiangqi.Side, ttMove xiangqi.Move, ply int, dst *moveList) {
	var killers [2]xiangqi.Move
	if ply >= 0 && ply < len(e.killers) {
		killers = e.killers[ply]
	}
	e.generate(b, turn, ttMove, killers, false, dst)
}

// generateCaptures fills dst with scored captures only, for quiescence.
func (e *Engine) generateCaptures(b *xiangqi.Board, turn xiangqi.Side, dst *moveList) {
	e.generate(b, turn, xiangqi.Move{}, [2]xiangqi.Move{}, true, dst)
}

func (e *Engine) generate(b *xiangqi.Board, turn xiangqi.Side, ttMove xiangqi.Move, killers [2]xiangqi.Move, onlyCaptures bool, dst *moveList) {
	dst.n = 0
	ctx := genContext{
		board:        b,
		turn:         turn,
		list:         dst,
		ttMove:       ttMove,
		killers:      killers,
		onlyCaptures: onlyCaptures,
		enemy:        b.ColorBB(turn.Opposite()),
	}

	for pt := xiangqi.PieceGeneral; pt <= xiangqi.PieceSoldier; pt++ {
		bb := b.PieceBB(turn, pt)
		for sq := bb.PopLSB(); sq != -1; sq = bb.PopLSB() {
			switch pt {
			case xiangqi.PieceRook:
				e.genRookMoves(&ctx, sq)
			case xiangqi.PieceCannon:
				e.genCannonMoves(&ctx, sq)
			case xiangqi.PieceHorse:
				e.genHorseMoves(&ctx, sq)
			case xiangqi.PieceElephant:
				e.genElephantMoves(&ctx, sq)
			case xiangqi.PieceAdvisor:
				e.genAdvisorMoves(&ctx, sq)
			case xiangqi.PieceGeneral:
				e.genGeneralMoves(&ctx, sq)
			case xiangqi.PieceSoldier:
				e.genSoldierMoves(&ctx, sq)
			}
		}
	}

	dst.sortByScore()
}

func (e *Engine) addMove(ctx *genContext, from, to int) {
	target := ctx.board.Squares[to]
	if target != 0 {
		if target.Side() == ctx.turn {
			return
		}
	} else if ctx.onlyCaptures {
		return
	}

	mv := xiangqi.Move{From: xiangqi.CoordOf(from), To: xiangqi.CoordOf(to)}

	var score int
	switch {
	case mv == ctx.ttMove:
		score = e.cfg.ScoreHashMove
	case target != 0:
		victim := e.cfg.PieceValue(target.Type())
		attacker := e.cfg.PieceValue(ctx.board.Squares[from].Type())
		score = e.cfg.ScoreCaptureBase + victim - attacker/10
	case mv == ctx.killers[0] || mv == ctx.killers[1]:
		score = e.cfg.ScoreKillerMove
	default:
		score = e.history[from][to]
		if score > e.cfg.ScoreHistoryMax {
			score = e.cfg.ScoreHistoryMax
		}
	}

	ctx.list.add(mv, score)
}

func (e *Engine) genRookMoves(ctx *genContext, from int) {
	tables := xiangqi.Tables()
	b := ctx.board
	r, c := xiangqi.RowOf(from), xiangqi.ColOf(from)

	rank := tables.RookAttacks(c, b.RowOccupancy(r), xiangqi.NumCols)
	if ctx.onlyCaptures {
		rank &= ctx.enemy.Row(r)
	}
	for m := rank; m != 0; m &= m - 1 {
		e.addMove(ctx, from, xiangqi.SquareOf(r, bits.TrailingZeros16(m)))
	}

	file := tables.RookAttacks(r, b.ColOccupancy(c), xiangqi.NumRows)
	for m := file; m != 0; m &= m - 1 {
		to := xiangqi.SquareOf(bits.TrailingZeros16(m), c)
		if ctx.onlyCaptures && !ctx.enemy.Test(to) {
			continue
		}
		e.addMove(ctx, from, to)
	}
}

func (e *Engine) genCannonMoves(ctx *genContext, from int) {
	tables := xiangqi.Tables()
	b := ctx.board
	r, c := xiangqi.RowOf(from), xiangqi.ColOf(from)

	rank := tables.CannonAttacks(c, b.RowOccupancy(r), xiangqi.NumCols)
	if ctx.onlyCaptures {
		rank &= ctx.enemy.Row(r)
	}
	for m := rank; m != 0; m &= m - 1 {
		e.addMove(ctx, from, xiangqi.SquareOf(r, bits.TrailingZeros16(m)))
	}

	file := tables.CannonAttacks(r, b.ColOccupancy(c), xiangqi.NumRows)
	for m := file; m != 0; m &= m - 1 {
		to := xiangqi.SquareOf(bits.TrailingZeros16(m), c)
		if ctx.onlyCaptures && !ctx.enemy.Test(to) {
			continue
		}
		e.addMove(ctx, from, to)
	}
}

func (e *Engine) genHorseMoves(ctx *genContext, from int) {
	occ := ctx.board.Occupied()
	for _, st := range xiangqi.Tables().HorseSteps(from) {
		if !occ.Test(int(st.Via)) {
			e.addMove(ctx, from, int(st.To))
		}
	}
}

func (e *Engine) genElephantMoves(ctx *genContext, from int) {
	occ := ctx.board.Occupied()
	for _, st := range xiangqi.Tables().ElephantSteps(from) {
		if !occ.Test(int(st.Via)) {
			e.addMove(ctx, from, int(st.To))
		}
	}
}

func (e *Engine) genAdvisorMoves(ctx *genContext, from int) {
	for _, to := range xiangqi.Tables().AdvisorTargets(from) {
		e.addMove(ctx, from, int(to))
	}
}

func (e *Engine) genGeneralMoves(ctx *genContext, from int) {
	for _, to := range xiangqi.Tables().GeneralTargets(from) {
		e.addMove(ctx, from, int(to))
	}
}

func (e *Engine) genSoldierMoves(ctx *genContext, from int) {
	for _, to := range xiangqi.Tables().SoldierTargets(ctx.turn, from) {
		e.addMove(ctx, from, int(to))
	}
}
