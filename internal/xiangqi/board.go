package xiangqi

import "strings"

var letterToPieceType = map[rune]PieceType{
	'k': PieceGeneral,
	'a': PieceAdvisor,
	'b': PieceElephant,
	'n': PieceHorse,
	'r': PieceRook,
	'c': PieceCannon,
	'p': PieceSoldier,
}

func pieceToChar(p Piece) rune {
	var base rune
	switch p.Type() {
	case PieceGeneral:
		base = 'k'
	case PieceAdvisor:
		base = 'a'
	case PieceElephant:
		base = 'b'
	case PieceHorse:
		base = 'n'
	case PieceRook:
		base = 'r'
	case PieceCannon:
		base = 'c'
	case PieceSoldier:
		base = 'p'
	default:
		return '.'
	}
	if p.Side() == Red {
		return base - 'a' + 'A'
	}
	return base
}

// Top line is row 9 (Black's back rank), bottom line row 0.
const initialBoardString = `rnbakabnr
.........
.c.....c.
p.p.p.p.p
.........
.........
P.P.P.P.P
.C.....C.
.........
RNBAKABNR`

// Board tracks the piece grid together with the redundant state the engine
// reads: per-piece and per-color bitboards, packed row/column occupancy for
// the slider tables, the Zobrist hash and incremental material and
// piece-square scores. Mutate only through AddPiece, RemovePiece and the
// move methods so everything stays in sync.
type Board struct {
	Squares [NumSquares]Piece

	pieces   [14]Bitboard // side*7 + piece slot
	colors   [2]Bitboard
	occupied Bitboard
	rowOcc   [NumRows]uint16
	colOcc   [NumCols]uint16

	hash     uint64
	material [2]int
	pst      [2]int
}

func bbIndex(side Side, pt PieceType) int { return int(side)*7 + pt.index() }

// NewBoard returns the standard starting position.
func NewBoard() *Board {
	b := &Board{}
	lines := strings.Split(initialBoardString, "\n")
	if len(lines) != NumRows {
		panic("initial board string has wrong row count")
	}
	for i, line := range lines {
		if len(line) != NumCols {
			panic("initial board string has wrong column count")
		}
		r := NumRows - 1 - i
		for c, ch := range line {
			if ch == '.' {
				continue
			}
			side := Black
			if ch >= 'A' && ch <= 'Z' {
				side = Red
				ch = ch - 'A' + 'a'
			}
			pt, ok := letterToPieceType[ch]
			if !ok {
				panic("unknown piece letter: " + string(ch))
			}
			b.AddPiece(SquareOf(r, c), MakePiece(side, pt))
		}
	}
	return b
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	nb := *b
	return &nb
}

// AddPiece places pc on an empty square and folds it into every redundant
// view, the hash included.
func (b *Board) AddPiece(sq int, pc Piece) {
	if pc == 0 {
		return
	}
	side, pt := pc.Side(), pc.Type()
	r, c := RowOf(sq), ColOf(sq)

	b.Squares[sq] = pc
	b.pieces[bbIndex(side, pt)].Set(sq)
	b.colors[side].Set(sq)
	b.occupied.Set(sq)
	b.rowOcc[r] |= 1 << uint(c)
	b.colOcc[c] |= 1 << uint(r)
	b.hash ^= pieceKey(pc, sq)
	b.material[side] += PieceValue(pt)
	b.pst[side] += pstValue(pt, side, r, c)
}

// RemovePiece clears sq and returns what stood there, 0 if empty.
func (b *Board) RemovePiece(sq int) Piece {
	pc := b.Squares[sq]
	if pc == 0 {
		return 0
	}
	side, pt := pc.Side(), pc.Type()
	r, c := RowOf(sq), ColOf(sq)

	b.Squares[sq] = 0
	b.pieces[bbIndex(side, pt)].Clear(sq)
	b.colors[side].Clear(sq)
	b.occupied.Clear(sq)
	b.rowOcc[r] &^= 1 << uint(c)
	b.colOcc[c] &^= 1 << uint(r)
	b.hash ^= pieceKey(pc, sq)
	b.material[side] -= PieceValue(pt)
	b.pst[side] -= pstValue(pt, side, r, c)
	return pc
}

// SetPiece puts pc on sq, displacing whatever stood there. pc 0 just
// clears the square. Returns the displaced piece.
func (b *Board) SetPiece(sq int, pc Piece) Piece {
	prev := b.RemovePiece(sq)
	b.AddPiece(sq, pc)
	return prev
}

// ApplyMove moves turn's piece from mv.From to mv.To, returning whatever was
// captured. It does no rule checking beyond ownership of the origin; callers
// validate first. The hash side key is toggled so equal hashes mean equal
// position and side to move.
func (b *Board) ApplyMove(mv Move, turn Side) (Piece, error) {
	from, to := mv.From.Index(), mv.To.Index()
	pc := b.Squares[from]
	if pc == 0 {
		return 0, ErrNoPieceAtSource
	}
	if pc.Side() != turn {
		return 0, ErrNotYourTurn
	}
	captured := b.RemovePiece(to)
	b.RemovePiece(from)
	b.AddPiece(to, pc)
	b.hash ^= sideKey()
	return captured, nil
}

// UndoMove reverses ApplyMove. turn is the side that made the move; captured
// is what ApplyMove returned.
func (b *Board) UndoMove(mv Move, captured Piece, turn Side) error {
	from, to := mv.From.Index(), mv.To.Index()
	pc := b.Squares[to]
	if pc == 0 {
		return ErrNoPieceAtSource
	}
	if pc.Side() != turn {
		return ErrNotYourTurn
	}
	b.RemovePiece(to)
	b.AddPiece(from, pc)
	if captured != 0 {
		b.AddPiece(to, captured)
	}
	b.hash ^= sideKey()
	return nil
}

// ApplyNullMove passes the turn without touching the pieces.
func (b *Board) ApplyNullMove() { b.hash ^= sideKey() }

// UndoNullMove reverses ApplyNullMove.
func (b *Board) UndoNullMove() { b.hash ^= sideKey() }

// Hash is the incremental Zobrist key. The starting point with Red to move
// carries no side key; each move toggles it.
func (b *Board) Hash() uint64 { return b.hash }

// PieceBB returns the occupancy of side's pieces of type pt.
func (b *Board) PieceBB(side Side, pt PieceType) Bitboard {
	return b.pieces[bbIndex(side, pt)]
}

// ColorBB returns the occupancy of all of side's pieces.
func (b *Board) ColorBB(side Side) Bitboard { return b.colors[side] }

// Occupied returns the occupancy of every piece on the board.
func (b *Board) Occupied() Bitboard { return b.occupied }

// RowOccupancy packs row r into 9 bits, bit c set iff (r, c) is occupied.
func (b *Board) RowOccupancy(r int) uint16 { return b.rowOcc[r] }

// ColOccupancy packs column c into 10 bits, bit r set iff (r, c) is occupied.
func (b *Board) ColOccupancy(c int) uint16 { return b.colOcc[c] }

// MaterialScore is the summed piece values of side's pieces.
func (b *Board) MaterialScore(side Side) int { return b.material[side] }

// PSTScore is the summed piece-square bonuses of side's pieces.
func (b *Board) PSTScore(side Side) int { return b.pst[side] }

// General returns the square of side's general, -1 if it is off the board.
func (b *Board) General(side Side) int {
	return b.pieces[bbIndex(side, PieceGeneral)].FirstSquare()
}

// computeHash rebuilds the hash from scratch; the incremental one must match.
func (b *Board) computeHash(turn Side) uint64 {
	var h uint64
	for sq, pc := range b.Squares {
		if pc != 0 {
			h ^= pieceKey(pc, sq)
		}
	}
	if turn == Black {
		h ^= sideKey()
	}
	return h
}

// String renders the grid with Black's back rank on top.
func (b *Board) String() string {
	var sb strings.Builder
	for r := NumRows - 1; r >= 0; r-- {
		for c := 0; c < NumCols; c++ {
			sb.WriteRune(pieceToChar(b.Squares[SquareOf(r, c)]))
		}
		if r > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
