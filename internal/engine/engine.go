package engine

import (
	"math"
	"time"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// maxPly bounds the search stack: killer slots, the reduction tables and
// the deepest iteration Search will attempt.
const maxPly = 64

// Engine is a single-threaded alpha-beta searcher. It keeps its
// transposition table, killer and history heuristics between calls, so
// reusing one Engine across the moves of a game is both safe and faster
// than building a fresh one. It must not be shared across goroutines.
type Engine struct {
	cfg  Config
	eval *Evaluator
	tt   *TransTable

	killers [maxPly][2]xiangqi.Move
	history [xiangqi.NumSquares][xiangqi.NumSquares]int
	stack   []uint64

	nodes     uint64
	start     time.Time
	timeLimit time.Duration
	stopped   bool

	// rootThreshold is how often a position may already have occurred
	// before a root move into it is skipped.
	rootThreshold int

	limits    [maxPly]int
	lmr       [maxPly][maxPly]int
	mateTable [256]int
	bound     int
}

// NewEngine builds an engine with the given tuning.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		cfg:   cfg,
		tt:    NewTransTable(cfg.TTSizeMB),
		stack: make([]uint64, 0, maxPly),
	}
	e.eval = NewEvaluator(&e.cfg)
	e.precompute()
	return e
}

// Config returns the current tuning.
func (e *Engine) Config() Config { return e.cfg }

// SetConfig replaces the tuning, resizing the transposition table when
// its budget changed.
func (e *Engine) SetConfig(cfg Config) {
	if cfg.TTSizeMB != e.cfg.TTSizeMB {
		e.tt = NewTransTable(cfg.TTSizeMB)
	}
	e.cfg = cfg
	e.precompute()
}

// precompute refreshes the tables derived from the config: move-count
// limits per depth, late-move reductions, and the mate score per ply.
func (e *Engine) precompute() {
	for d := range e.limits {
		e.limits[d] = int(float64(d*d)*e.cfg.PruningMultiplier + 8)
	}

	for d := range e.lmr {
		for m := range e.lmr[d] {
			if d >= 3 && m >= 4 {
				r := int(1 + math.Log(float64(d))*math.Log(float64(m))/1.5)
				if r > d-1 {
					r = d - 1
				}
				e.lmr[d][m] = r
			} else {
				e.lmr[d][m] = 0
			}
		}
	}

	// Near mates step down one point per ply so the shortest line wins;
	// deeper ones fall off faster to keep them clear of normal scores.
	base := e.cfg.MateScore
	for ply := range e.mateTable {
		if ply <= 10 {
			e.mateTable[ply] = base - ply
		} else {
			e.mateTable[ply] = base/2 - 100*ply
		}
	}

	e.bound = base + 1
}

func (e *Engine) mateScore(ply int) int {
	if ply >= len(e.mateTable) {
		ply = len(e.mateTable) - 1
	}
	return e.mateTable[ply]
}

// storeKiller records a quiet cutoff move in the ply's two slots,
// shifting the previous first killer down unless mv already holds it.
func (e *Engine) storeKiller(ply int, mv xiangqi.Move) {
	if ply < 0 || ply >= maxPly {
		return
	}
	k := &e.killers[ply]
	if k[0] != mv {
		k[1] = k[0]
		k[0] = mv
	}
}

// countRep counts occurrences of hash in the game history plus the
// current search line.
func (e *Engine) countRep(hash uint64) int {
	n := 0
	for _, h := range e.stack {
		if h == hash {
			n++
		}
	}
	return n
}

// checkTime latches stopped once the time budget is spent.
func (e *Engine) checkTime() bool {
	if e.timeLimit > 0 && time.Since(e.start) > e.timeLimit {
		e.stopped = true
	}
	return e.stopped
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
