// Package httpserver exposes games against the engine and the match
// archive over a small JSON API, plus the static browser client.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/engine"
	"github.com/thichuong/GameCoTuong/internal/storage"
	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// defaultSearchDepth applies when a request sets neither a depth nor a
// time budget.
const defaultSearchDepth = 5

// Handler serves the /api/ routes.
type Handler struct {
	log   zerolog.Logger
	games *registry
	store *storage.Store // nil disables /api/matches

	// The engine carries per-search state, so searches run one at a time.
	aiMu sync.Mutex
	ai   *engine.Engine
	book *engine.Book
}

// NewHandler builds the API handler with its own engine instance. store
// may be nil when no archive is configured.
func NewHandler(cfg engine.Config, store *storage.Store, log zerolog.Logger) *Handler {
	return &Handler{
		log:   log,
		games: newRegistry(),
		store: store,
		ai:    engine.NewEngine(cfg),
		book:  engine.NewBook(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/new_game":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleNewGame(w, r)

	case "/api/state":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleState(w, r)

	case "/api/play":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handlePlay(w, r)

	case "/api/ai_move":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleAiMove(w, r)

	case "/api/undo":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleUndo(w, r)

	case "/api/matches":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleMatches(w, r)

	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleNewGame(w http.ResponseWriter, _ *http.Request) {
	id, gs := h.games.create()
	h.log.Info().Str("game_id", id).Msg("new game")
	h.writeJSON(w, stateResponse(id, gs))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var resp StateResponse
	err := h.games.view(req.GameID, func(gs *xiangqi.GameState) {
		resp = stateResponse(req.GameID, gs)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, resp)
}

func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	err := h.games.update(req.GameID, func(gs *xiangqi.GameState) error {
		return gs.MakeMove(req.Move.From, req.Move.To)
	})
	if errors.Is(err, errGameNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var resp StateResponse
	_ = h.games.view(req.GameID, func(gs *xiangqi.GameState) {
		resp = stateResponse(req.GameID, gs)
	})
	h.writeJSON(w, resp)
}

func (h *Handler) handleAiMove(w http.ResponseWriter, r *http.Request) {
	var req AiMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	// Search on a snapshot so other games stay responsive meanwhile.
	var snap *xiangqi.GameState
	if err := h.games.view(req.GameID, func(gs *xiangqi.GameState) { snap = gs.Clone() }); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if snap.Status.Terminal() {
		h.writeJSON(w, AiMoveResponse{StateResponse: stateResponse(req.GameID, snap)})
		return
	}

	if mv, ok := h.book.Lookup(snap.FEN()); ok {
		if err := h.commitEngineMove(req.GameID, mv); err != nil {
			http.Error(w, "game changed during search", http.StatusConflict)
			return
		}
		resp := AiMoveResponse{Move: &mv, Book: true}
		h.fillState(req.GameID, &resp)
		h.writeJSON(w, resp)
		return
	}

	limit := engine.SearchLimit{MaxDepth: req.MaxDepth}
	if req.TimeMs > 0 {
		limit.MoveTime = time.Duration(req.TimeMs) * time.Millisecond
	}
	if limit.MaxDepth <= 0 && limit.MoveTime <= 0 {
		limit.MaxDepth = defaultSearchDepth
	}

	h.aiMu.Lock()
	mv, stats, ok := h.ai.Search(snap, limit, nil)
	h.aiMu.Unlock()
	if !ok {
		h.writeJSON(w, AiMoveResponse{StateResponse: stateResponse(req.GameID, snap)})
		return
	}

	if err := h.commitEngineMove(req.GameID, mv); err != nil {
		http.Error(w, "game changed during search", http.StatusConflict)
		return
	}

	resp := AiMoveResponse{
		Move:   &mv,
		Score:  stats.Score,
		Depth:  stats.Depth,
		Nodes:  stats.Nodes,
		TimeMs: stats.Elapsed.Milliseconds(),
	}
	h.fillState(req.GameID, &resp)
	h.log.Info().
		Str("game_id", req.GameID).
		Int("depth", stats.Depth).
		Int("score", stats.Score).
		Uint64("nodes", stats.Nodes).
		Dur("elapsed", stats.Elapsed).
		Msg("engine moved")
	h.writeJSON(w, resp)
}

func (h *Handler) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req UndoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	plies := req.Plies
	if plies <= 0 {
		plies = 1
	}

	err := h.games.update(req.GameID, func(gs *xiangqi.GameState) error {
		for i := 0; i < plies; i++ {
			if !gs.UndoMove() {
				break
			}
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var resp StateResponse
	_ = h.games.view(req.GameID, func(gs *xiangqi.GameState) {
		resp = stateResponse(req.GameID, gs)
	})
	h.writeJSON(w, resp)
}

func (h *Handler) handleMatches(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "archive disabled", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := h.store.ListMatches(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list matches")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, MatchesResponse{Matches: recs})
}

// commitEngineMove plays the engine's choice on the live game. It fails
// when the game moved on while the engine was thinking.
func (h *Handler) commitEngineMove(id string, mv xiangqi.Move) error {
	return h.games.update(id, func(gs *xiangqi.GameState) error {
		return gs.MakeMove(mv.From, mv.To)
	})
}

func (h *Handler) fillState(id string, resp *AiMoveResponse) {
	_ = h.games.view(id, func(gs *xiangqi.GameState) {
		resp.StateResponse = stateResponse(id, gs)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("write response")
	}
}
