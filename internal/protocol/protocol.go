// Package protocol defines the JSON messages exchanged between the match
// server and its clients over a websocket connection.
//
// Every message is an object whose "type" field names the variant; the
// remaining fields depend on the type. Client and server messages live in
// separate namespaces so a relayed payload can never be replayed as a
// command.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// Client message types.
const (
	TypeFindMatch       = "find_match"
	TypeCancelFindMatch = "cancel_find_match"
	TypeMakeMove        = "make_move"
	TypeVerifyMove      = "verify_move"
	TypeSurrender       = "surrender"
	TypeRequestDraw     = "request_draw"
	TypeAcceptDraw      = "accept_draw"
	TypePlayAgain       = "play_again"
	TypeLeaveGame       = "leave_game"
)

// Server message types.
const (
	TypeWaitingForMatch      = "waiting_for_match"
	TypeMatchFound           = "match_found"
	TypeGameStart            = "game_start"
	TypeOpponentMove         = "opponent_move"
	TypeStateCorrection      = "state_correction"
	TypeDrawOffered          = "draw_offered"
	TypeGameEnd              = "game_end"
	TypeOpponentDisconnected = "opponent_disconnected"
	TypeOpponentLeft         = "opponent_left"
	TypeError                = "error"
)

// Reasons reported in game_end messages.
const (
	ReasonCheckmate    = "checkmate"
	ReasonStalemate    = "stalemate"
	ReasonRepetition   = "repetition"
	ReasonSurrender    = "surrender"
	ReasonDrawAgreed   = "draw_agreed"
	ReasonDisconnected = "opponent_disconnected"
	ReasonLeft         = "opponent_left"
)

// ClientMessage is a single command sent by a connected player. Only the
// fields relevant to Type are populated.
type ClientMessage struct {
	Type string `json:"type"`

	// Move and FEN accompany make_move: the move the player made and the
	// position the player's client computed after making it.
	Move *xiangqi.Move `json:"move,omitempty"`
	FEN  string        `json:"fen,omitempty"`

	// Valid accompanies verify_move and reports whether the verifying
	// client accepted the opponent's claimed position.
	Valid bool `json:"valid,omitempty"`
}

// ServerMessage is a single event pushed to a connected player. Only the
// fields relevant to Type are populated.
type ServerMessage struct {
	Type       string        `json:"type"`
	OpponentID string        `json:"opponent_id,omitempty"`
	Color      string        `json:"color,omitempty"`
	GameID     string        `json:"game_id,omitempty"`
	FEN        string        `json:"fen,omitempty"`
	Move       *xiangqi.Move `json:"move,omitempty"`
	Turn       string        `json:"turn,omitempty"`
	Winner     string        `json:"winner,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// ParseClientMessage decodes and validates one client message. Messages
// with an unknown type or with required fields missing are rejected here
// so the session layer only ever sees well-formed commands.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("decode message: %w", err)
	}
	switch msg.Type {
	case TypeMakeMove:
		if msg.Move == nil {
			return ClientMessage{}, fmt.Errorf("%s: missing move", TypeMakeMove)
		}
		if msg.FEN == "" {
			return ClientMessage{}, fmt.Errorf("%s: missing fen", TypeMakeMove)
		}
	case TypeVerifyMove:
		if msg.FEN == "" {
			return ClientMessage{}, fmt.Errorf("%s: missing fen", TypeVerifyMove)
		}
	case TypeFindMatch, TypeCancelFindMatch, TypeSurrender,
		TypeRequestDraw, TypeAcceptDraw, TypePlayAgain, TypeLeaveGame:
	default:
		return ClientMessage{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return msg, nil
}

// WaitingForMatch tells a player they were queued for matchmaking.
func WaitingForMatch() ServerMessage {
	return ServerMessage{Type: TypeWaitingForMatch}
}

// MatchFound announces a pairing: the opponent's id, the receiving
// player's color, and the new game's id.
func MatchFound(opponentID string, color xiangqi.Side, gameID string) ServerMessage {
	return ServerMessage{
		Type:       TypeMatchFound,
		OpponentID: opponentID,
		Color:      SideName(color),
		GameID:     gameID,
	}
}

// GameStart carries the starting position of a freshly created game.
func GameStart(fen string) ServerMessage {
	return ServerMessage{Type: TypeGameStart, FEN: fen}
}

// OpponentMove relays a move to the player who must verify it, together
// with the position the mover's client claims resulted from it.
func OpponentMove(mv xiangqi.Move, fen string) ServerMessage {
	m := mv
	return ServerMessage{Type: TypeOpponentMove, Move: &m, FEN: fen}
}

// StateCorrection replaces both clients' positions with the server's
// authoritative one after a verification conflict.
func StateCorrection(fen string, turn xiangqi.Side) ServerMessage {
	return ServerMessage{Type: TypeStateCorrection, FEN: fen, Turn: SideName(turn)}
}

// DrawOffered tells a player their opponent proposed a draw.
func DrawOffered() ServerMessage {
	return ServerMessage{Type: TypeDrawOffered}
}

// GameEnd announces the result. Winner is omitted for drawn games.
func GameEnd(winner xiangqi.Side, reason string) ServerMessage {
	return ServerMessage{Type: TypeGameEnd, Winner: SideName(winner), Reason: reason}
}

// OpponentDisconnected tells a player their opponent's connection dropped
// mid-game.
func OpponentDisconnected() ServerMessage {
	return ServerMessage{Type: TypeOpponentDisconnected}
}

// OpponentLeft tells a player their opponent left a finished game, so no
// rematch is coming.
func OpponentLeft() ServerMessage {
	return ServerMessage{Type: TypeOpponentLeft}
}

// ErrorMessage reports a rejected command back to its sender.
func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Type: TypeError, Message: msg}
}

// Encode marshals a server message for the wire.
func Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// SideName returns the wire spelling of a side, or "" for no side.
func SideName(s xiangqi.Side) string {
	switch s {
	case xiangqi.Red:
		return "red"
	case xiangqi.Black:
		return "black"
	default:
		return ""
	}
}

// ParseSide is the inverse of SideName. Case is ignored.
func ParseSide(name string) (xiangqi.Side, error) {
	switch {
	case strings.EqualFold(name, "red"):
		return xiangqi.Red, nil
	case strings.EqualFold(name, "black"):
		return xiangqi.Black, nil
	}
	return xiangqi.NoSide, fmt.Errorf("unknown side %q", name)
}
