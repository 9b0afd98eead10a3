package xiangqi

import "testing"

func TestStartPositionLegalMoveCount(t *testing.T) {
	b := NewBoard()

	var red MoveList
	b.GenerateLegalMoves(Red, &red)
	if red.Len() != 44 {
		t.Fatalf("red legal moves: got=%d want=44", red.Len())
	}
	seen := make(map[Move]bool, red.Len())
	for _, mv := range red.Moves() {
		if seen[mv] {
			t.Fatalf("duplicate move %v", mv)
		}
		seen[mv] = true
	}

	var black MoveList
	b.GenerateLegalMoves(Black, &black)
	if black.Len() != 44 {
		t.Fatalf("black legal moves: got=%d want=44", black.Len())
	}
}

func TestGeneratedMovesNeverLeaveSelfCheck(t *testing.T) {
	fens := []string{
		StartFEN,
		"3k5/9/9/9/4r4/9/9/9/9/4K4 w",
		"4k4/9/9/9/4N4/9/9/9/9/4K4 w",
	}
	for _, fen := range fens {
		b, turn := mustParse(t, fen)
		var list MoveList
		b.GenerateLegalMoves(turn, &list)
		for _, mv := range list.Moves() {
			captured, err := b.ApplyMove(mv, turn)
			if err != nil {
				t.Fatalf("%s: apply %v: %v", fen, mv, err)
			}
			if b.IsInCheck(turn) {
				t.Fatalf("%s: move %v leaves own general in check", fen, mv)
			}
			if b.IsFlyingGeneral() {
				t.Fatalf("%s: move %v leaves generals facing", fen, mv)
			}
			if err := b.UndoMove(mv, captured, turn); err != nil {
				t.Fatalf("%s: undo %v: %v", fen, mv, err)
			}
		}
	}
}

func TestCheckEvasionsOnly(t *testing.T) {
	// Red general on an attacked file; stepping left would face the black
	// general, so exactly one square remains.
	b, _ := mustParse(t, "3k5/9/9/9/4r4/9/9/9/9/4K4 w")
	var list MoveList
	b.GenerateLegalMoves(Red, &list)
	if list.Len() != 1 {
		t.Fatalf("evasions: got=%d want=1 (%v)", list.Len(), list.Moves())
	}
	if want := mustMove(t, 0, 4, 0, 5); list.Moves()[0] != want {
		t.Fatalf("evasion: got=%v want=%v", list.Moves()[0], want)
	}
}

func TestHasLegalMovesMatchesGeneration(t *testing.T) {
	fens := []string{
		StartFEN,
		"3k5/9/9/9/4r4/9/9/9/9/4K4 w",
		"4k4/3P1P3/9/9/9/9/9/9/9/3K5 b",
	}
	for _, fen := range fens {
		b, turn := mustParse(t, fen)
		var list MoveList
		b.GenerateLegalMoves(turn, &list)
		if got, want := b.HasLegalMoves(turn), list.Len() > 0; got != want {
			t.Fatalf("%s: HasLegalMoves=%v with %d generated moves", fen, got, list.Len())
		}
	}
}

func TestMoveListFilterPreservesOrder(t *testing.T) {
	var list MoveList
	b := NewBoard()
	b.GeneratePseudoMoves(Red, &list)
	before := append([]Move(nil), list.Moves()...)

	list.Filter(func(mv Move) bool { return mv.From.Row == 3 })
	idx := 0
	for _, mv := range before {
		if mv.From.Row != 3 {
			continue
		}
		if list.Moves()[idx] != mv {
			t.Fatalf("filter reordered moves: got=%v want=%v", list.Moves()[idx], mv)
		}
		idx++
	}
	if idx != list.Len() {
		t.Fatalf("filter kept %d moves, want %d", list.Len(), idx)
	}
}
