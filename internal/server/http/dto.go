package httpserver

import (
	"github.com/thichuong/GameCoTuong/internal/protocol"
	"github.com/thichuong/GameCoTuong/internal/storage"
	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// StateResponse is the snapshot every game endpoint returns.
type StateResponse struct {
	GameID     string         `json:"game_id,omitempty"`
	FEN        string         `json:"fen"`
	Turn       string         `json:"turn"`
	LegalMoves []xiangqi.Move `json:"legal_moves"`
	Status     string         `json:"status"`
	Winner     string         `json:"winner,omitempty"`
}

// StateRequest asks for the current snapshot of one game.
type StateRequest struct {
	GameID string `json:"game_id"`
}

// PlayRequest commits one human move.
type PlayRequest struct {
	GameID string       `json:"game_id"`
	Move   xiangqi.Move `json:"move"`
}

// AiMoveRequest asks the engine to pick and play a reply. Zero limits
// fall back to a fixed default depth.
type AiMoveRequest struct {
	GameID   string `json:"game_id"`
	MaxDepth int    `json:"max_depth"`
	TimeMs   int64  `json:"time_ms"`
}

// AiMoveResponse reports the engine's move, its search statistics and the
// game after the move. Move is null when the game is already decided.
type AiMoveResponse struct {
	Move   *xiangqi.Move `json:"move"`
	Score  int           `json:"score"`
	Depth  int           `json:"depth"`
	Nodes  uint64        `json:"nodes"`
	TimeMs int64         `json:"time_ms"`
	Book   bool          `json:"book,omitempty"`
	StateResponse
}

// UndoRequest takes back moves. Plies defaults to one; two undoes a full
// human and engine exchange.
type UndoRequest struct {
	GameID string `json:"game_id"`
	Plies  int    `json:"plies"`
}

// MatchesResponse lists archived multiplayer matches, newest first.
type MatchesResponse struct {
	Matches []storage.MatchRecord `json:"matches"`
}

func stateResponse(id string, gs *xiangqi.GameState) StateResponse {
	var ml xiangqi.MoveList
	gs.Board.GenerateLegalMoves(gs.Turn, &ml)
	return StateResponse{
		GameID:     id,
		FEN:        gs.FEN(),
		Turn:       protocol.SideName(gs.Turn),
		LegalMoves: append([]xiangqi.Move(nil), ml.Moves()...),
		Status:     gs.Status.String(),
		Winner:     protocol.SideName(gs.Winner),
	}
}
