package xiangqi

// Status is the lifecycle of a game. Anything but StatusPlaying is terminal.
type Status int8

const (
	StatusPlaying Status = iota
	StatusCheckmate
	StatusStalemate
	StatusRepetitionDraw
)

func (s Status) Terminal() bool { return s != StatusPlaying }

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	case StatusRepetitionDraw:
		return "repetition draw"
	default:
		return "unknown"
	}
}

// MoveRecord is one committed move with everything needed to take it back
// or replay it elsewhere.
type MoveRecord struct {
	From     Coord  `json:"from"`
	To       Coord  `json:"to"`
	Piece    Piece  `json:"piece"`
	Captured Piece  `json:"captured"`
	Side     Side   `json:"side"`
	Hash     uint64 `json:"-"`
}

// DefaultRepetitionThreshold is how many times a position may occur before
// further repetition is refused.
const DefaultRepetitionThreshold = 3

// GameState drives a full game: it owns the board, whose turn it is, the
// move history and the terminal status. All mutation goes through MakeMove
// and UndoMove.
type GameState struct {
	Board   *Board
	Turn    Side
	Status  Status
	Winner  Side
	History []MoveRecord

	// RepetitionThreshold caps how often one position may occur over the
	// game. A move that would reach the cap is refused unless it is the
	// only one left, in which case the game ends drawn.
	RepetitionThreshold int

	initialHash uint64
}

// NewGameState starts a game from the standard position, Red to move.
func NewGameState() *GameState {
	b := NewBoard()
	return &GameState{
		Board:               b,
		Turn:                Red,
		Winner:              NoSide,
		RepetitionThreshold: DefaultRepetitionThreshold,
		initialHash:         b.Hash(),
	}
}

// NewGameStateFromFEN starts a game from an arbitrary position.
func NewGameStateFromFEN(fen string) (*GameState, error) {
	b, turn, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	g := &GameState{
		Board:               b,
		Turn:                turn,
		Winner:              NoSide,
		RepetitionThreshold: DefaultRepetitionThreshold,
		initialHash:         b.Hash(),
	}
	g.updateStatus()
	return g, nil
}

// FEN renders the current position and side to move.
func (g *GameState) FEN() string { return EncodeFEN(g.Board, g.Turn) }

// Clone returns an independent copy of the game, history included.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Board = g.Board.Clone()
	c.History = append([]MoveRecord(nil), g.History...)
	return &c
}

// MakeMove validates and commits one move for the side to move. On success
// the turn flips and the status is brought up to date; on any error the
// state is untouched.
func (g *GameState) MakeMove(from, to Coord) error {
	if g.Status.Terminal() {
		return ErrGameOver
	}
	mv := Move{From: from, To: to}
	if err := g.Board.ValidateMove(mv, g.Turn); err != nil {
		return err
	}

	pc := g.Board.Squares[from.Index()]
	next := g.Board.Clone()
	captured, err := next.ApplyMove(mv, g.Turn)
	if err != nil {
		return err
	}

	forcedDraw := false
	if g.repetitionCount(next.Hash()) >= g.RepetitionThreshold-1 {
		if !g.onlyLegalMove() {
			return ErrRepetition
		}
		forcedDraw = true
	}

	g.Board = next
	g.History = append(g.History, MoveRecord{
		From:     from,
		To:       to,
		Piece:    pc,
		Captured: captured,
		Side:     g.Turn,
		Hash:     next.Hash(),
	})
	g.Turn = g.Turn.Opposite()
	if forcedDraw {
		g.Status = StatusRepetitionDraw
		return nil
	}
	g.updateStatus()
	return nil
}

// UndoMove takes back the last move. It returns false when there is nothing
// to undo.
func (g *GameState) UndoMove() bool {
	if len(g.History) == 0 {
		return false
	}
	rec := g.History[len(g.History)-1]
	mover := g.Turn.Opposite()
	mv := Move{From: rec.From, To: rec.To}
	if err := g.Board.UndoMove(mv, rec.Captured, mover); err != nil {
		return false
	}
	g.History = g.History[:len(g.History)-1]
	g.Turn = mover
	g.Status = StatusPlaying
	g.Winner = NoSide
	return true
}

// LastMove returns the most recent committed move.
func (g *GameState) LastMove() (Move, bool) {
	if len(g.History) == 0 {
		return Move{}, false
	}
	rec := g.History[len(g.History)-1]
	return Move{From: rec.From, To: rec.To}, true
}

// PositionHashes lists every position the game has passed through, the
// starting one first; index i holds the hash after i moves.
func (g *GameState) PositionHashes() []uint64 {
	hashes := make([]uint64, 0, len(g.History)+1)
	hashes = append(hashes, g.initialHash)
	for _, rec := range g.History {
		hashes = append(hashes, rec.Hash)
	}
	return hashes
}

// repetitionCount counts how often the position with hash h has already
// occurred in this game.
func (g *GameState) repetitionCount(h uint64) int {
	n := 0
	if g.initialHash == h {
		n++
	}
	for _, rec := range g.History {
		if rec.Hash == h {
			n++
		}
	}
	return n
}

func (g *GameState) onlyLegalMove() bool {
	var list MoveList
	g.Board.GenerateLegalMoves(g.Turn, &list)
	return list.Len() == 1
}

// updateStatus resolves the side to move having no legal reply: checkmate
// when in check, otherwise stalemate. Both lose for the side to move.
func (g *GameState) updateStatus() {
	if g.Board.HasLegalMoves(g.Turn) {
		return
	}
	if g.Board.IsInCheck(g.Turn) {
		g.Status = StatusCheckmate
	} else {
		g.Status = StatusStalemate
	}
	g.Winner = g.Turn.Opposite()
}
