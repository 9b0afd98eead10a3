package engine

import (
	"math/rand"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// Book is a small fixed opening book keyed by exact position FEN. It
// covers the standard start so the engine varies its first move
// without spending clock on a position theory already settled.
type Book struct {
	lines map[string][]xiangqi.Move
}

// NewBook returns the built-in book: the six mainline first moves for
// Red, central cannon on either side, central elephant on either side,
// and the two flank soldier pushes.
func NewBook() *Book {
	return &Book{
		lines: map[string][]xiangqi.Move{
			xiangqi.StartFEN: {
				bookMove(2, 1, 2, 4),
				bookMove(2, 7, 2, 4),
				bookMove(0, 2, 2, 4),
				bookMove(0, 6, 2, 4),
				bookMove(3, 2, 4, 2),
				bookMove(3, 6, 4, 6),
			},
		},
	}
}

// Lookup returns a book reply for the position, chosen uniformly when
// several are known.
func (bk *Book) Lookup(fen string) (xiangqi.Move, bool) {
	moves, ok := bk.lines[fen]
	if !ok || len(moves) == 0 {
		return xiangqi.Move{}, false
	}
	return moves[rand.Intn(len(moves))], true
}

// Moves lists the known replies for a position, nil when none.
func (bk *Book) Moves(fen string) []xiangqi.Move {
	return bk.lines[fen]
}

func bookMove(fr, fc, tr, tc int) xiangqi.Move {
	return xiangqi.Move{
		From: xiangqi.Coord{Row: int8(fr), Col: int8(fc)},
		To:   xiangqi.Coord{Row: int8(tr), Col: int8(tc)},
	}
}
