package engine

import (
	"time"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// mateGuard keeps speculative pruning away from windows that already
// hold mate-range scores.
const mateGuard = 15_000

// SearchLimit bounds one search. MaxDepth caps the final iteration;
// MoveTime, when positive, stops the search once spent. Zero values
// fall back to the deepest iteration the engine supports.
type SearchLimit struct {
	MaxDepth int
	MoveTime time.Duration
}

// LimitDepth searches to a fixed depth with no clock.
func LimitDepth(d int) SearchLimit { return SearchLimit{MaxDepth: d} }

// LimitTime searches until the budget runs out.
func LimitTime(t time.Duration) SearchLimit {
	return SearchLimit{MaxDepth: maxPly - 1, MoveTime: t}
}

// SearchStats reports what one search cost. Score is the evaluation of
// the chosen move from the mover's perspective.
type SearchStats struct {
	Depth   int
	Score   int
	Nodes   uint64
	Elapsed time.Duration
}

// Search runs iterative deepening from the game's current position and
// returns the best move found. excluded lists root moves to skip, for
// callers that need an alternative after the game refused one. ok is
// false when no legal move remains once exclusions apply; callers
// should consult the game status first.
func (e *Engine) Search(gs *xiangqi.GameState, limit SearchLimit, excluded []xiangqi.Move) (xiangqi.Move, SearchStats, bool) {
	e.nodes = 0
	e.start = time.Now()
	e.stopped = false
	e.timeLimit = limit.MoveTime

	maxDepth := limit.MaxDepth
	if maxDepth <= 0 || maxDepth >= maxPly {
		maxDepth = maxPly - 1
	}
	var softLimit time.Duration
	if e.timeLimit > 0 {
		softLimit = e.timeLimit * 6 / 10
	}

	board := gs.Board.Clone()
	turn := gs.Turn

	e.stack = append(e.stack[:0], gs.PositionHashes()...)
	e.rootThreshold = gs.RepetitionThreshold - 1
	if e.rootThreshold < 1 {
		e.rootThreshold = 1
	}

	// Age history so earlier searches inform ordering without
	// dominating it.
	for from := range e.history {
		for to := range e.history[from] {
			e.history[from][to] /= 2
		}
	}

	var (
		bestMove   xiangqi.Move
		haveBest   bool
		finalDepth int
		finalScore int
		prevScore  int
		havePrev   bool
	)

	for d := 1; d <= maxDepth; d++ {
		// A new iteration costs more than all previous ones together;
		// do not start one that cannot finish.
		if softLimit > 0 && time.Since(e.start) > softLimit {
			break
		}

		alpha, beta := -e.bound, e.bound
		delta := 50
		if havePrev && d >= 3 {
			alpha = max(prevScore-delta, -e.bound)
			beta = min(prevScore+delta, e.bound)
		}

		for {
			alphaOrig, betaOrig := alpha, beta
			bestScore := -e.bound
			var iterBest xiangqi.Move
			haveIterBest := false

			ttMove, _ := e.tt.GetMove(board.Hash())

			var moves moveList
			e.generateMoves(board, turn, ttMove, 0, &moves)

			if len(excluded) > 0 {
				moves.retain(func(mv xiangqi.Move) bool {
					for _, ex := range excluded {
						if mv == ex {
							return false
						}
					}
					return true
				})
			}

			moves.retain(func(mv xiangqi.Move) bool {
				captured, err := board.ApplyMove(mv, turn)
				if err != nil {
					return false
				}
				legal := !board.IsInCheck(turn) && !board.IsFlyingGeneral()
				board.UndoMove(mv, captured, turn)
				return legal
			})

			if moves.n == 0 {
				return xiangqi.Move{}, SearchStats{Depth: finalDepth, Nodes: e.nodes, Elapsed: time.Since(e.start)}, false
			}
			isSingleMove := moves.n == 1

			if e.checkTime() {
				break
			}

			timedOut := false
			searched := 0

			for i := 0; i < moves.n; i++ {
				mv := moves.moves[i].mv
				captured, err := board.ApplyMove(mv, turn)
				if err != nil {
					continue
				}

				// Skip moves the game would refuse as repetition,
				// unless forced.
				if !isSingleMove && e.countRep(board.Hash()) >= e.rootThreshold {
					board.UndoMove(mv, captured, turn)
					continue
				}

				var score int
				if searched == 0 {
					score = -e.alphaBeta(board, -beta, -alpha, d-1, 1, turn.Opposite(), xiangqi.Move{})
				} else {
					score = -e.alphaBeta(board, -alpha-1, -alpha, d-1, 1, turn.Opposite(), xiangqi.Move{})
					if !e.stopped && score > alpha && score < beta {
						score = -e.alphaBeta(board, -beta, -alpha, d-1, 1, turn.Opposite(), xiangqi.Move{})
					}
				}

				board.UndoMove(mv, captured, turn)

				if e.stopped {
					timedOut = true
					break
				}

				if score > bestScore {
					bestScore = score
					iterBest = mv
					haveIterBest = true
				}
				if score > alpha {
					alpha = score
				}
				searched++
			}

			if timedOut {
				// A partial iteration still beats nothing at all.
				if !haveBest && haveIterBest {
					bestMove = iterBest
					haveBest = true
					finalDepth = d
					finalScore = bestScore
				}
				break
			}

			if searched == 0 {
				// Every root move led straight into a refused
				// repetition; there is nothing to score this depth.
				break
			}

			if bestScore <= alphaOrig {
				alpha = max(alphaOrig-delta, -e.bound)
				beta = betaOrig
				delta += delta / 2
				continue
			}
			if bestScore >= betaOrig {
				alpha = alphaOrig
				beta = min(betaOrig+delta, e.bound)
				delta += delta / 2
				continue
			}

			if haveIterBest {
				bestMove = iterBest
				haveBest = true
				finalDepth = d
				finalScore = bestScore
				prevScore = bestScore
				havePrev = true
			}
			break
		}

		if e.stopped || e.checkTime() {
			break
		}
	}

	stats := SearchStats{Depth: finalDepth, Score: finalScore, Nodes: e.nodes, Elapsed: time.Since(e.start)}
	return bestMove, stats, haveBest
}

// alphaBeta wraps searchNode with the node bookkeeping: counting,
// clock polling, repetition scoring and the hash stack push and pop.
// excluded names a move to ignore at this node, used by the singular
// verification search. A zero return after stopped latches is garbage;
// callers must test stopped before trusting scores.
func (e *Engine) alphaBeta(b *xiangqi.Board, alpha, beta, depth, ply int, turn xiangqi.Side, excluded xiangqi.Move) int {
	e.nodes++
	if e.timeLimit > 0 && e.nodes&4095 == 0 && time.Since(e.start) > e.timeLimit {
		e.stopped = true
	}
	if e.stopped {
		return 0
	}
	if ply >= maxPly {
		return e.eval.Evaluate(b, turn)
	}

	hash := b.Hash()
	if e.countRep(hash) >= 2 {
		return 0
	}

	e.stack = append(e.stack, hash)
	score := e.searchNode(b, alpha, beta, depth, ply, turn, excluded, hash)
	e.stack = e.stack[:len(e.stack)-1]
	return score
}

func (e *Engine) searchNode(b *xiangqi.Board, alpha, beta, depth, ply int, turn xiangqi.Side, excluded xiangqi.Move, hash uint64) int {
	ttEntry, ttHit := e.tt.Probe(hash)
	if ttHit && int(ttEntry.Depth) >= depth {
		score := int(ttEntry.Score)
		switch ttEntry.Flag {
		case ExactFlag:
			return score
		case BetaFlag:
			if score >= beta {
				return score
			}
			alpha = max(alpha, score)
		case AlphaFlag:
			if score <= alpha {
				return score
			}
			beta = min(beta, score)
		}
		if alpha >= beta {
			return score
		}
	}

	if depth <= 0 {
		return e.quiescence(b, alpha, beta, turn)
	}

	// ProbCut: pass the move and probe a window far above beta at
	// reduced depth; a fail high there means the full search would
	// almost surely cut off as well.
	if depth >= e.cfg.ProbcutDepth && depth > e.cfg.ProbcutReduction && abs(beta) < mateGuard {
		margin := e.cfg.ProbcutMargin
		b.ApplyNullMove()
		score := -e.alphaBeta(b, -beta-margin, -beta-margin+1, depth-e.cfg.ProbcutReduction, ply+1, turn.Opposite(), xiangqi.Move{})
		b.UndoNullMove()
		if e.stopped {
			return 0
		}
		if score >= beta+margin {
			return beta
		}
	}

	inCheck := b.IsInCheck(turn)

	// Reverse futility: a shallow node whose static eval clears beta
	// by a full margin per remaining ply stands.
	if depth <= 3 && !inCheck && abs(beta) < mateGuard {
		eval := e.eval.Evaluate(b, turn)
		if eval-120*depth >= beta {
			return eval
		}
	}

	// Null move: give the opponent a free shot; surviving above beta
	// anyway means the real moves will too. Unsound in check.
	if depth >= 3 && !inCheck && abs(beta) < mateGuard {
		r := 2
		if depth > 6 {
			r = 3
		}
		b.ApplyNullMove()
		score := -e.alphaBeta(b, -beta, -beta+1, depth-1-r, ply+1, turn.Opposite(), xiangqi.Move{})
		b.UndoNullMove()
		if e.stopped {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	ttMove := ttEntry.Move
	if !ttHit {
		ttMove = xiangqi.Move{}
	}

	// Internal iterative deepening: without a table move to try first,
	// a shallower search fills one in.
	if ttMove.From == ttMove.To && depth >= 4 {
		e.alphaBeta(b, alpha, beta, depth-2, ply, turn, xiangqi.Move{})
		if e.stopped {
			return 0
		}
		if mv, ok := e.tt.GetMove(hash); ok {
			ttMove = mv
		}
	}

	// Singular extension: when the table move beats a lowered bound
	// that every alternative fails, the position hangs on that one
	// move and deserves an extra ply.
	singularExt := 0
	if depth >= e.cfg.SingularMinDepth && excluded.From == excluded.To &&
		ttMove.From != ttMove.To && ttHit &&
		int(ttEntry.Depth) >= depth-3 &&
		(ttEntry.Flag == ExactFlag || ttEntry.Flag == BetaFlag) {
		singularBeta := int(ttEntry.Score) - e.cfg.SingularMargin
		score := e.alphaBeta(b, singularBeta-1, singularBeta, (depth-1)/2, ply, turn, ttMove)
		if e.stopped {
			return 0
		}
		if score < singularBeta {
			singularExt = 1
		}
	}

	var moves moveList
	e.generateMoves(b, turn, ttMove, ply, &moves)

	if inCheck {
		// In check the cheap pruning below is off, so settle legality
		// up front; an empty list is mate right here.
		moves.retain(func(mv xiangqi.Move) bool {
			captured, err := b.ApplyMove(mv, turn)
			if err != nil {
				return false
			}
			legal := !b.IsInCheck(turn) && !b.IsFlyingGeneral()
			b.UndoMove(mv, captured, turn)
			return legal
		})
		if moves.n == 0 {
			return -e.mateScore(ply)
		}
	}
	if moves.n == 0 {
		return -e.mateScore(ply)
	}

	dynamicLimit := moves.n
	if !inCheck && (e.cfg.PruningMethod == 0 || e.cfg.PruningMethod == 2) {
		dynamicLimit = e.limits[min(depth, maxPly-1)]
	}

	staticEval := -e.bound
	if depth <= 3 && !inCheck {
		staticEval = e.eval.Evaluate(b, turn)
	}

	bestScore := -e.bound
	var bestMove xiangqi.Move
	flag := AlphaFlag
	legalCount := 0
	hasRepMove := false

	for i := 0; i < moves.n; i++ {
		mv := moves.moves[i].mv
		isCapture := b.Squares[mv.To.Index()] != 0

		if !inCheck && !isCapture && i >= dynamicLimit {
			continue
		}
		// Late quiet moves at shallow depth rarely change anything.
		if !inCheck && depth <= 4 && !isCapture && i >= 8+5*depth*depth {
			continue
		}
		if mv == excluded {
			continue
		}
		// Futility: a quiet move cannot lift a hopeless static eval.
		if !inCheck && depth <= 3 && !isCapture &&
			(e.cfg.PruningMethod == 0 || e.cfg.PruningMethod == 2) &&
			staticEval+150*depth < alpha {
			continue
		}

		captured, err := b.ApplyMove(mv, turn)
		if err != nil {
			continue
		}
		if !inCheck && (b.IsInCheck(turn) || b.IsFlyingGeneral()) {
			b.UndoMove(mv, captured, turn)
			continue
		}
		if e.countRep(b.Hash()) >= 2 {
			b.UndoMove(mv, captured, turn)
			hasRepMove = true
			continue
		}
		legalCount++

		reduction := 0
		if depth >= 3 && i >= 4 && !inCheck && !isCapture &&
			(e.cfg.PruningMethod == 1 || e.cfg.PruningMethod == 2) {
			reduction = e.lmr[min(depth, maxPly-1)][min(i, maxPly-1)]
		}

		extension := singularExt
		if inCheck {
			extension++
		}

		var score int
		if i == 0 {
			score = -e.alphaBeta(b, -beta, -alpha, depth-1+extension, ply+1, turn.Opposite(), xiangqi.Move{})
		} else {
			score = -e.alphaBeta(b, -alpha-1, -alpha, depth-1-reduction+extension, ply+1, turn.Opposite(), xiangqi.Move{})
			if !e.stopped && score > alpha && reduction > 0 {
				score = -e.alphaBeta(b, -alpha-1, -alpha, depth-1+extension, ply+1, turn.Opposite(), xiangqi.Move{})
			}
			if !e.stopped && score > alpha {
				score = -e.alphaBeta(b, -beta, -alpha, depth-1+extension, ply+1, turn.Opposite(), xiangqi.Move{})
			}
		}

		b.UndoMove(mv, captured, turn)

		if e.stopped {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = mv
		}
		if score > alpha {
			alpha = score
			flag = ExactFlag
		}
		if alpha >= beta {
			if !isCapture {
				e.storeKiller(ply, mv)
			}
			e.history[mv.From.Index()][mv.To.Index()] += depth * depth
			flag = BetaFlag
			break
		}
	}

	if legalCount == 0 {
		if inCheck {
			return -e.mateScore(ply)
		}
		if hasRepMove {
			// Only repetitions left: the line ends drawn.
			return 0
		}
		return -e.mateScore(ply)
	}

	e.tt.Store(hash, bestMove, bestScore, depth, flag)
	return bestScore
}

// quiescence settles captures until the position is quiet, so the leaf
// eval never lands mid-exchange.
func (e *Engine) quiescence(b *xiangqi.Board, alpha, beta int, turn xiangqi.Side) int {
	e.nodes++

	standPat := e.eval.Evaluate(b, turn)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	var captures moveList
	e.generateCaptures(b, turn, &captures)

	for i := 0; i < captures.n; i++ {
		mv := captures.moves[i].mv
		target := b.Squares[mv.To.Index()]

		// Delta pruning: even winning this piece plus a margin cannot
		// reach alpha.
		if target != 0 && standPat+e.cfg.PieceValue(target.Type())+200 < alpha {
			continue
		}

		captured, err := b.ApplyMove(mv, turn)
		if err != nil {
			continue
		}
		if b.IsInCheck(turn) || b.IsFlyingGeneral() {
			b.UndoMove(mv, captured, turn)
			continue
		}

		score := -e.quiescence(b, -beta, -alpha, turn.Opposite())
		b.UndoMove(mv, captured, turn)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
