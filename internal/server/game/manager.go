// Package game runs the multiplayer session layer: matchmaking, move
// relay with mutual verification, draw and rematch negotiation, and the
// lifecycle of both players and sessions.
package game

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/protocol"
	"github.com/thichuong/GameCoTuong/internal/storage"
	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

const (
	// minMessageInterval caps each player at ten messages per second.
	minMessageInterval = 100 * time.Millisecond

	sessionIdleTimeout = time.Hour
	reapInterval       = 5 * time.Minute
)

// Sender delivers one server message to a connected player. Send must not
// block; the websocket layer satisfies this with a buffered outbound
// channel that drops on overflow.
type Sender interface {
	Send(protocol.ServerMessage)
}

type player struct {
	sender    Sender
	lastMsgAt time.Time
}

// Manager owns every connected player and running session. One mutex
// guards all of its maps; handlers send while holding it, which is safe
// because Sender never blocks.
type Manager struct {
	log   zerolog.Logger
	store *storage.Store // nil disables archival
	now   func() time.Time

	mu       sync.Mutex
	players  map[string]*player
	sessions map[string]*session
	inGame   map[string]string // player id -> session id
	queue    []string          // waiting players, oldest first
}

// NewManager builds an empty manager. store may be nil, in which case
// finished games are not archived.
func NewManager(store *storage.Store, log zerolog.Logger) *Manager {
	return &Manager{
		log:      log,
		store:    store,
		now:      time.Now,
		players:  make(map[string]*player),
		sessions: make(map[string]*session),
		inGame:   make(map[string]string),
	}
}

// AddPlayer registers a freshly connected player.
func (m *Manager) AddPlayer(id string, sender Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[id] = &player{sender: sender}
	m.log.Info().Str("player", id).Int("online", len(m.players)).Msg("player connected")
}

// RemovePlayer handles a dropped connection: the player leaves the queue,
// any running game is forfeited to the opponent, and the session is torn
// down.
func (m *Manager) RemovePlayer(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, id)
	m.dequeue(id)
	m.dropFromSession(id, protocol.ReasonDisconnected)
	m.log.Info().Str("player", id).Int("online", len(m.players)).Msg("player removed")
}

// AllowMessage rate limits one player's inbound traffic. Callers must
// discard the message when it returns false.
func (m *Manager) AllowMessage(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return false
	}
	now := m.now()
	if !p.lastMsgAt.IsZero() && now.Sub(p.lastMsgAt) < minMessageInterval {
		return false
	}
	p.lastMsgAt = now
	return true
}

// FindMatch queues the player, or starts a game immediately when someone
// is already waiting.
func (m *Manager) FindMatch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[id]; !ok {
		return
	}
	if m.sessionOf(id) != nil {
		m.sendTo(id, protocol.ErrorMessage("already in a game"))
		return
	}
	if slices.Contains(m.queue, id) {
		return
	}
	if len(m.queue) > 0 {
		opp := m.queue[0]
		m.queue = m.queue[1:]
		m.startSession(opp, id)
		return
	}
	m.queue = append(m.queue, id)
	m.sendTo(id, protocol.WaitingForMatch())
}

// CancelFindMatch removes the player from the matchmaking queue.
func (m *Manager) CancelFindMatch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dequeue(id)
}

// HandleMove validates a player's move against the authoritative state,
// stores it as the session's pending move and relays it to the opponent
// for verification. Nothing is committed yet.
func (m *Manager) HandleMove(id string, mv xiangqi.Move, claimedFEN string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.sessionOf(id)
	if sess == nil {
		m.sendTo(id, protocol.ErrorMessage("not in a game"))
		return
	}
	if sess.ended {
		m.sendTo(id, protocol.ErrorMessage("game is over"))
		return
	}
	side := sess.sideOf(id)
	if side != sess.state.Turn {
		m.sendTo(id, protocol.ErrorMessage("not your turn"))
		return
	}
	if err := sess.state.Board.ValidateMove(mv, side); err != nil {
		m.log.Debug().Str("player", id).Err(err).Msg("rejected move")
		m.sendTo(id, protocol.ErrorMessage("illegal move"))
		m.sendTo(id, protocol.StateCorrection(sess.state.FEN(), sess.state.Turn))
		return
	}

	sess.pending = &pendingMove{moverID: id, mv: mv, fen: claimedFEN}
	sess.lastActivity = m.now()
	m.sendTo(sess.opponentOf(id), protocol.OpponentMove(mv, claimedFEN))
}

// HandleVerify resolves the session's pending move. The move is committed
// through the authoritative GameState regardless of the verdict; whenever
// the verdict or either claimed position disagrees with the authoritative
// outcome, both players receive a state correction.
func (m *Manager) HandleVerify(id string, fen string, valid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.sessionOf(id)
	if sess == nil || sess.ended {
		return
	}
	pending := sess.pending
	if pending == nil {
		return
	}
	if pending.moverID == id {
		m.log.Warn().Str("player", id).Msg("player tried to verify own move")
		return
	}
	sess.pending = nil
	sess.lastActivity = m.now()

	applyErr := sess.state.MakeMove(pending.mv.From, pending.mv.To)
	if applyErr == nil {
		sess.drawOfferBy = "" // a committed move supersedes an open offer
	}

	authFEN := sess.state.FEN()
	agreed := valid && applyErr == nil && authFEN == pending.fen && authFEN == fen
	if !agreed {
		m.log.Info().
			Str("game_id", sess.id).
			Bool("client_valid", valid).
			AnErr("apply", applyErr).
			Msg("resolving move conflict from authoritative state")
		corr := protocol.StateCorrection(authFEN, sess.state.Turn)
		m.sendTo(sess.redID, corr)
		m.sendTo(sess.blackID, corr)
	}

	if sess.state.Status.Terminal() {
		winner, reason := sess.result()
		m.endSession(sess, winner, reason)
	}
}

// Surrender forfeits the player's running game.
func (m *Manager) Surrender(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessionOf(id)
	if sess == nil || sess.ended {
		return
	}
	m.endSession(sess, sess.sideOf(id).Opposite(), protocol.ReasonSurrender)
}

// RequestDraw offers the opponent a draw. The offer stands until it is
// accepted or a move is committed.
func (m *Manager) RequestDraw(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessionOf(id)
	if sess == nil {
		m.sendTo(id, protocol.ErrorMessage("not in a game"))
		return
	}
	if sess.ended || sess.drawOfferBy == id {
		return
	}
	sess.drawOfferBy = id
	sess.lastActivity = m.now()
	m.sendTo(sess.opponentOf(id), protocol.DrawOffered())
}

// AcceptDraw ends the game in a draw, provided the opponent has an open
// offer.
func (m *Manager) AcceptDraw(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessionOf(id)
	if sess == nil || sess.ended {
		return
	}
	if sess.drawOfferBy != sess.opponentOf(id) {
		m.sendTo(id, protocol.ErrorMessage("no draw offer to accept"))
		return
	}
	m.endSession(sess, xiangqi.NoSide, protocol.ReasonDrawAgreed)
}

// PlayAgain registers a rematch request; when both players of a finished
// game have asked, the session restarts in place.
func (m *Manager) PlayAgain(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessionOf(id)
	if sess == nil {
		m.sendTo(id, protocol.ErrorMessage("not in a game"))
		return
	}
	if !sess.ended {
		m.sendTo(id, protocol.ErrorMessage("game is still in progress"))
		return
	}
	switch id {
	case sess.redID:
		sess.redRematch = true
	case sess.blackID:
		sess.blackRematch = true
	}
	if sess.redRematch && sess.blackRematch {
		m.restartSession(sess)
	}
}

// LeaveGame removes the player from their session or from the queue. An
// opponent left mid-game wins by forfeit.
func (m *Manager) LeaveGame(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dequeue(id)
	m.dropFromSession(id, protocol.ReasonLeft)
}

// RunReaper tears down idle sessions until ctx is cancelled.
func (m *Manager) RunReaper(ctx context.Context) {
	t := time.NewTicker(reapInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.reapIdle()
		}
	}
}

func (m *Manager) reapIdle() {
	cutoff := m.now().Add(-sessionIdleTimeout)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.lastActivity.Before(cutoff) {
			m.log.Info().Str("game_id", id).Msg("reaping idle session")
			m.removeSession(sess)
		}
	}
}

// sendTo delivers msg to a player if they are still connected. mu held.
func (m *Manager) sendTo(id string, msg protocol.ServerMessage) {
	if p, ok := m.players[id]; ok {
		p.sender.Send(msg)
	}
}

// sessionOf returns the player's session, or nil. mu held.
func (m *Manager) sessionOf(id string) *session {
	sid, ok := m.inGame[id]
	if !ok {
		return nil
	}
	return m.sessions[sid]
}

// dequeue drops id from the matchmaking queue. mu held.
func (m *Manager) dequeue(id string) {
	if i := slices.Index(m.queue, id); i >= 0 {
		m.queue = slices.Delete(m.queue, i, i+1)
	}
}

// startSession pairs two players into a fresh game with randomly drawn
// colors. mu held.
func (m *Manager) startSession(a, b string) {
	redID, blackID := a, b
	if rand.Intn(2) == 1 {
		redID, blackID = b, a
	}
	now := m.now()
	sess := &session{
		id:           uuid.NewString(),
		redID:        redID,
		blackID:      blackID,
		state:        xiangqi.NewGameState(),
		startedAt:    now,
		lastActivity: now,
	}
	m.sessions[sess.id] = sess
	m.inGame[redID] = sess.id
	m.inGame[blackID] = sess.id

	fen := sess.state.FEN()
	m.sendTo(redID, protocol.MatchFound(blackID, xiangqi.Red, sess.id))
	m.sendTo(redID, protocol.GameStart(fen))
	m.sendTo(blackID, protocol.MatchFound(redID, xiangqi.Black, sess.id))
	m.sendTo(blackID, protocol.GameStart(fen))

	m.log.Info().
		Str("game_id", sess.id).
		Str("red", redID).
		Str("black", blackID).
		Msg("game started")
}

// restartSession begins a rematch in place: same game id, fresh board,
// colors drawn again. mu held.
func (m *Manager) restartSession(sess *session) {
	if rand.Intn(2) == 1 {
		sess.redID, sess.blackID = sess.blackID, sess.redID
	}
	sess.state = xiangqi.NewGameState()
	sess.pending = nil
	sess.drawOfferBy = ""
	sess.ended = false
	sess.winner = xiangqi.NoSide
	sess.reason = ""
	sess.redRematch = false
	sess.blackRematch = false
	now := m.now()
	sess.startedAt = now
	sess.lastActivity = now

	fen := sess.state.FEN()
	m.sendTo(sess.redID, protocol.MatchFound(sess.blackID, xiangqi.Red, sess.id))
	m.sendTo(sess.redID, protocol.GameStart(fen))
	m.sendTo(sess.blackID, protocol.MatchFound(sess.redID, xiangqi.Black, sess.id))
	m.sendTo(sess.blackID, protocol.GameStart(fen))
	m.log.Info().Str("game_id", sess.id).Msg("rematch started")
}

// endSession seals a finished game, archives it and tells both players.
// The session stays registered so the pair can ask for a rematch. mu held.
func (m *Manager) endSession(sess *session, winner xiangqi.Side, reason string) {
	sess.ended = true
	sess.winner = winner
	sess.reason = reason
	sess.lastActivity = m.now()
	m.archiveSession(sess)

	msg := protocol.GameEnd(winner, reason)
	m.sendTo(sess.redID, msg)
	m.sendTo(sess.blackID, msg)

	m.log.Info().
		Str("game_id", sess.id).
		Str("winner", protocol.SideName(winner)).
		Str("reason", reason).
		Msg("game ended")
}

// dropFromSession handles one player leaving or losing their connection.
// A running game is forfeited to the opponent; either way the session is
// torn down. mu held.
func (m *Manager) dropFromSession(id, reason string) {
	sess := m.sessionOf(id)
	if sess == nil {
		return
	}
	opp := sess.opponentOf(id)
	if !sess.ended {
		sess.ended = true
		sess.winner = sess.sideOf(opp)
		sess.reason = reason
		m.archiveSession(sess)
		m.sendTo(opp, protocol.OpponentDisconnected())
		m.sendTo(opp, protocol.GameEnd(sess.winner, reason))
	} else {
		m.sendTo(opp, protocol.OpponentLeft())
	}
	m.removeSession(sess)
}

// removeSession unregisters sess and both player mappings. mu held.
func (m *Manager) removeSession(sess *session) {
	delete(m.sessions, sess.id)
	delete(m.inGame, sess.redID)
	delete(m.inGame, sess.blackID)
}

// archiveSession snapshots a finished session and writes it out of band.
// mu held.
func (m *Manager) archiveSession(sess *session) {
	if m.store == nil {
		return
	}
	moves := make([]xiangqi.Move, len(sess.state.History))
	for i, rec := range sess.state.History {
		moves[i] = xiangqi.Move{From: rec.From, To: rec.To}
	}
	rec := storage.MatchRecord{
		ID:        uuid.NewString(),
		GameID:    sess.id,
		Red:       sess.redID,
		Black:     sess.blackID,
		Winner:    protocol.SideName(sess.winner),
		Reason:    sess.reason,
		Moves:     moves,
		FinalFEN:  sess.state.FEN(),
		StartedAt: sess.startedAt,
		EndedAt:   m.now(),
	}
	go func() {
		if err := m.store.SaveMatch(rec); err != nil {
			m.log.Error().Err(err).Str("game_id", rec.GameID).Msg("archive match")
		}
	}()
}
