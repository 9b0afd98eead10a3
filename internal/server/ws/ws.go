// Package ws terminates websocket connections and shuttles protocol
// messages between clients and the session manager.
package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/protocol"
	"github.com/thichuong/GameCoTuong/internal/server/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBuffer     = 32
)

// Handler upgrades HTTP requests to websocket sessions and registers each
// connection with the session manager under a fresh player id.
type Handler struct {
	log      zerolog.Logger
	manager  *game.Manager
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint for manager.
func NewHandler(manager *game.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		log:     log,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The client is served from this same process or from a
			// local file during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	c := &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan protocol.ServerMessage, sendBuffer),
		manager: h.manager,
	}
	c.log = h.log.With().Str("player", c.id).Logger()

	h.manager.AddPlayer(c.id, c)
	go c.writePump()
	c.readPump()
}

// client is one connected player. All writes to the connection go through
// the send channel so a single goroutine owns the socket.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan protocol.ServerMessage
	manager *game.Manager
	log     zerolog.Logger
}

// Send queues msg for delivery. A client that cannot keep up has the
// message dropped instead of blocking the session layer.
func (c *client) Send(msg protocol.ServerMessage) {
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Str("type", msg.Type).Msg("send buffer full, dropping message")
	}
}

// readPump consumes the connection until it drops, then unregisters the
// player. Closing send stops the write pump; the manager can no longer
// reach this client once RemovePlayer returns, so the close is safe.
func (c *client) readPump() {
	defer func() {
		c.manager.RemovePlayer(c.id)
		close(c.send)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("connection closed")
			}
			return
		}
		c.handle(data)
	}
}

func (c *client) handle(data []byte) {
	if !c.manager.AllowMessage(c.id) {
		c.Send(protocol.ErrorMessage("too many messages"))
		return
	}
	msg, err := protocol.ParseClientMessage(data)
	if err != nil {
		c.log.Debug().Err(err).Msg("bad client message")
		c.Send(protocol.ErrorMessage("invalid message"))
		return
	}
	switch msg.Type {
	case protocol.TypeFindMatch:
		c.manager.FindMatch(c.id)
	case protocol.TypeCancelFindMatch:
		c.manager.CancelFindMatch(c.id)
	case protocol.TypeMakeMove:
		c.manager.HandleMove(c.id, *msg.Move, msg.FEN)
	case protocol.TypeVerifyMove:
		c.manager.HandleVerify(c.id, msg.FEN, msg.Valid)
	case protocol.TypeSurrender:
		c.manager.Surrender(c.id)
	case protocol.TypeRequestDraw:
		c.manager.RequestDraw(c.id)
	case protocol.TypeAcceptDraw:
		c.manager.AcceptDraw(c.id)
	case protocol.TypePlayAgain:
		c.manager.PlayAgain(c.id)
	case protocol.TypeLeaveGame:
		c.manager.LeaveGame(c.id)
	}
}

// writePump drains send onto the wire and keeps the connection alive with
// pings until send closes or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
