package xiangqi

import "sync"

const zobristSeed = 123_456_789

var (
	zobristOnce sync.Once

	zobristPieces [2][7][NumSquares]uint64
	zobristSide   uint64
)

func initZobrist() {
	zobristOnce.Do(func() {
		state := uint64(zobristSeed)
		next := func() uint64 {
			state ^= state << 13
			state ^= state >> 7
			state ^= state << 17
			return state
		}

		for pt := 0; pt < 7; pt++ {
			for side := 0; side < 2; side++ {
				for sq := 0; sq < NumSquares; sq++ {
					zobristPieces[side][pt][sq] = next()
				}
			}
		}
		zobristSide = next()
	})
}

func pieceKey(pc Piece, sq int) uint64 {
	initZobrist()
	if pc == 0 || sq < 0 || sq >= NumSquares {
		return 0
	}
	side := pc.Side()
	if side == NoSide {
		return 0
	}
	return zobristPieces[side][pc.Type().index()][sq]
}

func sideKey() uint64 {
	initZobrist()
	return zobristSide
}
