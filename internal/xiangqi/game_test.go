package xiangqi

import (
	"errors"
	"testing"
)

func TestUndoRestoresGameState(t *testing.T) {
	g := NewGameState()
	startFEN := g.FEN()
	startHash := g.Board.Hash()

	if err := g.MakeMove(mustCoord(t, 2, 1), mustCoord(t, 2, 4)); err != nil {
		t.Fatalf("move 1: %v", err)
	}
	if err := g.MakeMove(mustCoord(t, 9, 1), mustCoord(t, 7, 2)); err != nil {
		t.Fatalf("move 2: %v", err)
	}
	if !g.UndoMove() || !g.UndoMove() {
		t.Fatalf("undo failed")
	}
	if g.UndoMove() {
		t.Fatalf("undo succeeded on empty history")
	}
	if g.FEN() != startFEN {
		t.Fatalf("fen after undo: got=%q want=%q", g.FEN(), startFEN)
	}
	if g.Board.Hash() != startHash {
		t.Fatalf("hash after undo: got=%d want=%d", g.Board.Hash(), startHash)
	}
	if g.Turn != Red || len(g.History) != 0 || g.Status != StatusPlaying {
		t.Fatalf("state after undo: turn=%v history=%d status=%v", g.Turn, len(g.History), g.Status)
	}
}

func TestIllegalMoveLeavesGameUnchanged(t *testing.T) {
	g := NewGameState()
	before := g.FEN()
	if err := g.MakeMove(mustCoord(t, 0, 0), mustCoord(t, 5, 5)); !errors.Is(err, ErrInvalidMovePattern) {
		t.Fatalf("got err=%v want ErrInvalidMovePattern", err)
	}
	if g.FEN() != before || len(g.History) != 0 || g.Turn != Red {
		t.Fatalf("illegal move mutated state: fen=%q history=%d turn=%v", g.FEN(), len(g.History), g.Turn)
	}
}

func TestCheckmateEndsGame(t *testing.T) {
	// Two red rooks: one seals the 8th row, the other mates on the back row.
	g, err := NewGameStateFromFEN("4k4/R8/9/9/8R/9/9/9/9/3K5 w")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	if g.Status != StatusPlaying {
		t.Fatalf("status before mate: %v", g.Status)
	}
	if err := g.MakeMove(mustCoord(t, 5, 8), mustCoord(t, 9, 8)); err != nil {
		t.Fatalf("mating move: %v", err)
	}
	if g.Status != StatusCheckmate {
		t.Fatalf("status: got=%v want=%v", g.Status, StatusCheckmate)
	}
	if g.Winner != Red {
		t.Fatalf("winner: got=%v want=%v", g.Winner, Red)
	}
	if err := g.MakeMove(mustCoord(t, 9, 4), mustCoord(t, 8, 4)); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after mate: got=%v want ErrGameOver", err)
	}
}

func TestCheckmateRecognizedAtConstruction(t *testing.T) {
	g, err := NewGameStateFromFEN("4k3R/R8/9/9/9/9/9/9/9/3K5 b")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	if g.Status != StatusCheckmate || g.Winner != Red {
		t.Fatalf("status=%v winner=%v, want checkmate by red", g.Status, g.Winner)
	}
}

func TestStalemateIsLossForStuckSide(t *testing.T) {
	// The soldier push leaves the black general unattacked but with every
	// palace square covered.
	g, err := NewGameStateFromFEN("4k4/3P5/5P3/9/9/9/9/9/9/3K5 w")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	if err := g.MakeMove(mustCoord(t, 7, 5), mustCoord(t, 8, 5)); err != nil {
		t.Fatalf("stalemating move: %v", err)
	}
	if g.Status != StatusStalemate {
		t.Fatalf("status: got=%v want=%v", g.Status, StatusStalemate)
	}
	if g.Winner != Red {
		t.Fatalf("winner: got=%v want=%v", g.Winner, Red)
	}
}

func TestRepetitionRefusedWithAlternatives(t *testing.T) {
	g, err := NewGameStateFromFEN("3k4r/9/9/9/9/9/9/9/9/R3K4 w")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	shuttle := [][4]int{
		{0, 0, 1, 0}, {9, 8, 8, 8}, {1, 0, 0, 0}, {8, 8, 9, 8},
		{0, 0, 1, 0}, {9, 8, 8, 8}, {1, 0, 0, 0},
	}
	for i, m := range shuttle {
		if err := g.MakeMove(mustCoord(t, m[0], m[1]), mustCoord(t, m[2], m[3])); err != nil {
			t.Fatalf("shuttle move %d: %v", i, err)
		}
	}

	// The rook return would show the starting position a third time.
	err = g.MakeMove(mustCoord(t, 8, 8), mustCoord(t, 9, 8))
	if !errors.Is(err, ErrRepetition) {
		t.Fatalf("third occurrence: got=%v want ErrRepetition", err)
	}
	if g.Status != StatusPlaying || len(g.History) != 7 {
		t.Fatalf("refused move mutated state: status=%v history=%d", g.Status, len(g.History))
	}
	if err := g.MakeMove(mustCoord(t, 8, 8), mustCoord(t, 8, 0)); err != nil {
		t.Fatalf("fresh move after refusal: %v", err)
	}
}

func TestRepetitionThresholdConfigurable(t *testing.T) {
	g, err := NewGameStateFromFEN("3k4r/9/9/9/9/9/9/9/9/R3K4 w")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	g.RepetitionThreshold = 5
	shuttle := [][4]int{
		{0, 0, 1, 0}, {9, 8, 8, 8}, {1, 0, 0, 0}, {8, 8, 9, 8},
		{0, 0, 1, 0}, {9, 8, 8, 8}, {1, 0, 0, 0}, {8, 8, 9, 8},
	}
	for i, m := range shuttle {
		if err := g.MakeMove(mustCoord(t, m[0], m[1]), mustCoord(t, m[2], m[3])); err != nil {
			t.Fatalf("shuttle move %d: %v", i, err)
		}
	}
	if g.Status != StatusPlaying {
		t.Fatalf("status: got=%v want=%v", g.Status, StatusPlaying)
	}
}

func TestForcedRepetitionEndsInDraw(t *testing.T) {
	// The black general shuttles between its only two free squares while the
	// red horse marks time, so every black reply is forced.
	g, err := NewGameStateFromFEN("4k4/9/9/4P4/9/9/9/9/3R1R3/3K4N w")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	seq := [][4]int{
		{0, 8, 2, 7}, {9, 4, 8, 4},
		{2, 7, 0, 8}, {8, 4, 9, 4},
		{0, 8, 2, 7}, {9, 4, 8, 4},
		{2, 7, 0, 8},
	}
	for i, m := range seq {
		if err := g.MakeMove(mustCoord(t, m[0], m[1]), mustCoord(t, m[2], m[3])); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}
	if err := g.MakeMove(mustCoord(t, 8, 4), mustCoord(t, 9, 4)); err != nil {
		t.Fatalf("forced repetition move: %v", err)
	}
	if g.Status != StatusRepetitionDraw {
		t.Fatalf("status: got=%v want=%v", g.Status, StatusRepetitionDraw)
	}
	if g.Winner != NoSide {
		t.Fatalf("winner: got=%v want none", g.Winner)
	}
	if err := g.MakeMove(mustCoord(t, 0, 8), mustCoord(t, 2, 7)); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after draw: got=%v want ErrGameOver", err)
	}
}

func TestPositionHashes(t *testing.T) {
	g := NewGameState()
	if err := g.MakeMove(mustCoord(t, 2, 1), mustCoord(t, 2, 4)); err != nil {
		t.Fatalf("move: %v", err)
	}
	hashes := g.PositionHashes()
	if len(hashes) != 2 {
		t.Fatalf("hashes: got=%d want=2", len(hashes))
	}
	if hashes[1] != g.Board.Hash() {
		t.Fatalf("latest hash: got=%d want=%d", hashes[1], g.Board.Hash())
	}
	if hashes[0] == hashes[1] {
		t.Fatalf("start and current hash collide")
	}
}

func TestGameStateClone(t *testing.T) {
	g := NewGameState()
	if err := g.MakeMove(mustCoord(t, 2, 1), mustCoord(t, 2, 4)); err != nil {
		t.Fatalf("move: %v", err)
	}

	c := g.Clone()
	if c.FEN() != g.FEN() || c.Turn != g.Turn || len(c.History) != len(g.History) {
		t.Fatalf("clone differs: %q vs %q", c.FEN(), g.FEN())
	}

	// Moving on the clone leaves the original alone.
	if err := c.MakeMove(mustCoord(t, 7, 1), mustCoord(t, 7, 4)); err != nil {
		t.Fatalf("clone move: %v", err)
	}
	if len(g.History) != 1 || len(c.History) != 2 {
		t.Fatalf("history: original=%d clone=%d", len(g.History), len(c.History))
	}
	if g.Board.Hash() == c.Board.Hash() {
		t.Fatalf("boards share state")
	}
	if got := g.PositionHashes(); len(got) != 2 {
		t.Fatalf("original hashes: got=%d want=2", len(got))
	}
}
