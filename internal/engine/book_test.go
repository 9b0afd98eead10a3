package engine

import (
	"testing"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

func TestBookCoversStartPosition(t *testing.T) {
	bk := NewBook()
	lines := bk.Moves(xiangqi.StartFEN)
	if len(lines) != 6 {
		t.Fatalf("start lines: got=%d want=6", len(lines))
	}

	// Every book line must be playable from a fresh game.
	for _, line := range lines {
		g := xiangqi.NewGameState()
		if err := g.MakeMove(line.From, line.To); err != nil {
			t.Fatalf("book move %v rejected: %v", line, err)
		}
	}
}

func TestBookLookupPicksKnownLine(t *testing.T) {
	bk := NewBook()
	known := map[xiangqi.Move]bool{}
	for _, line := range bk.Moves(xiangqi.StartFEN) {
		known[line] = true
	}

	for i := 0; i < 32; i++ {
		move, ok := bk.Lookup(xiangqi.StartFEN)
		if !ok {
			t.Fatalf("lookup %d missed the start position", i)
		}
		if !known[move] {
			t.Fatalf("lookup %d returned %v, not a book line", i, move)
		}
	}
}

func TestBookUnknownPosition(t *testing.T) {
	bk := NewBook()
	if move, ok := bk.Lookup("4k4/9/9/9/9/9/9/9/9/4K4 w"); ok {
		t.Fatalf("unknown position yielded %v", move)
	}
}
