package game

import (
	"time"

	"github.com/thichuong/GameCoTuong/internal/protocol"
	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// pendingMove is a relayed move waiting for the opponent's verification
// verdict.
type pendingMove struct {
	moverID string
	mv      xiangqi.Move
	fen     string // position the mover's client claims resulted
}

// session is one paired game between two connected players. The embedded
// GameState is the authority for the position; client-claimed FENs are
// only ever compared against it, never adopted.
type session struct {
	id      string
	redID   string
	blackID string
	state   *xiangqi.GameState

	startedAt    time.Time
	lastActivity time.Time

	pending     *pendingMove
	drawOfferBy string

	ended  bool
	winner xiangqi.Side // NoSide for draws
	reason string

	redRematch   bool
	blackRematch bool
}

// sideOf returns the color playerID holds in this session, or NoSide for
// strangers.
func (s *session) sideOf(playerID string) xiangqi.Side {
	switch playerID {
	case s.redID:
		return xiangqi.Red
	case s.blackID:
		return xiangqi.Black
	}
	return xiangqi.NoSide
}

// opponentOf returns the id of the other player.
func (s *session) opponentOf(playerID string) string {
	if playerID == s.redID {
		return s.blackID
	}
	return s.redID
}

// result maps the game state's terminal status to a game_end payload.
func (s *session) result() (xiangqi.Side, string) {
	switch s.state.Status {
	case xiangqi.StatusCheckmate:
		return s.state.Winner, protocol.ReasonCheckmate
	case xiangqi.StatusStalemate:
		return s.state.Winner, protocol.ReasonStalemate
	case xiangqi.StatusRepetitionDraw:
		return xiangqi.NoSide, protocol.ReasonRepetition
	}
	return xiangqi.NoSide, ""
}
