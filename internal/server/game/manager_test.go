package game

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/thichuong/GameCoTuong/internal/protocol"
	"github.com/thichuong/GameCoTuong/internal/storage"
	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// recorder is a Sender that keeps every message for inspection.
type recorder struct {
	mu   sync.Mutex
	msgs []protocol.ServerMessage
}

func (r *recorder) Send(msg protocol.ServerMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) byType(typ string) []protocol.ServerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []protocol.ServerMessage
	for _, m := range r.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

func newTestManager() *Manager {
	return NewManager(nil, zerolog.Nop())
}

func mkMove(fr, fc, tr, tc int8) xiangqi.Move {
	return xiangqi.Move{
		From: xiangqi.Coord{Row: fr, Col: fc},
		To:   xiangqi.Coord{Row: tr, Col: tc},
	}
}

// pairPlayers connects alice and bob and matches them, returning the ids
// and recorders keyed by assigned color.
func pairPlayers(t *testing.T, m *Manager) (redID, blackID string, red, black *recorder, gameID string) {
	t.Helper()
	aRec, bRec := &recorder{}, &recorder{}
	m.AddPlayer("alice", aRec)
	m.AddPlayer("bob", bRec)
	m.FindMatch("alice")
	m.FindMatch("bob")

	found := aRec.byType(protocol.TypeMatchFound)
	if len(found) != 1 {
		t.Fatalf("alice match_found count = %d", len(found))
	}
	gameID = found[0].GameID
	switch found[0].Color {
	case "red":
		redID, blackID, red, black = "alice", "bob", aRec, bRec
	case "black":
		redID, blackID, red, black = "bob", "alice", bRec, aRec
	default:
		t.Fatalf("color = %q", found[0].Color)
	}
	red.clear()
	black.clear()
	return redID, blackID, red, black, gameID
}

// claimedAfter computes the position a correct client would claim after
// playing mv from fen.
func claimedAfter(t *testing.T, fen string, mv xiangqi.Move) string {
	t.Helper()
	gs, err := xiangqi.NewGameStateFromFEN(fen)
	if err != nil {
		t.Fatalf("parse %q: %v", fen, err)
	}
	if err := gs.MakeMove(mv.From, mv.To); err != nil {
		t.Fatalf("apply %+v: %v", mv, err)
	}
	return gs.FEN()
}

func installState(m *Manager, gameID string, gs *xiangqi.GameState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[gameID].state = gs
}

func sessionState(m *Manager, gameID string) *xiangqi.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[gameID]; ok {
		return sess.state
	}
	return nil
}

func TestFindMatchQueuesFirstPlayer(t *testing.T) {
	m := newTestManager()
	rec := &recorder{}
	m.AddPlayer("alice", rec)
	m.FindMatch("alice")

	if got := rec.byType(protocol.TypeWaitingForMatch); len(got) != 1 {
		t.Fatalf("waiting_for_match count = %d", len(got))
	}
	if got := rec.byType(protocol.TypeMatchFound); len(got) != 0 {
		t.Fatalf("unexpected match_found: %+v", got)
	}
}

func TestFindMatchPairsTwoPlayers(t *testing.T) {
	m := newTestManager()
	aRec, bRec := &recorder{}, &recorder{}
	m.AddPlayer("alice", aRec)
	m.AddPlayer("bob", bRec)
	m.FindMatch("alice")
	m.FindMatch("bob")

	aFound := aRec.byType(protocol.TypeMatchFound)
	bFound := bRec.byType(protocol.TypeMatchFound)
	if len(aFound) != 1 || len(bFound) != 1 {
		t.Fatalf("match_found counts = %d, %d", len(aFound), len(bFound))
	}
	if aFound[0].GameID == "" || aFound[0].GameID != bFound[0].GameID {
		t.Fatalf("game ids = %q, %q", aFound[0].GameID, bFound[0].GameID)
	}
	if aFound[0].OpponentID != "bob" || bFound[0].OpponentID != "alice" {
		t.Fatalf("opponent ids = %q, %q", aFound[0].OpponentID, bFound[0].OpponentID)
	}
	colors := map[string]bool{aFound[0].Color: true, bFound[0].Color: true}
	if !colors["red"] || !colors["black"] {
		t.Fatalf("colors = %q, %q", aFound[0].Color, bFound[0].Color)
	}
	for _, rec := range []*recorder{aRec, bRec} {
		starts := rec.byType(protocol.TypeGameStart)
		if len(starts) != 1 || starts[0].FEN != xiangqi.StartFEN {
			t.Fatalf("game_start = %+v", starts)
		}
	}
}

func TestFindMatchWhileInGame(t *testing.T) {
	m := newTestManager()
	redID, _, red, _, _ := pairPlayers(t, m)

	m.FindMatch(redID)
	if got := red.byType(protocol.TypeError); len(got) != 1 {
		t.Fatalf("error count = %d", len(got))
	}
}

func TestCancelFindMatch(t *testing.T) {
	m := newTestManager()
	aRec, bRec := &recorder{}, &recorder{}
	m.AddPlayer("alice", aRec)
	m.AddPlayer("bob", bRec)
	m.FindMatch("alice")
	m.CancelFindMatch("alice")
	m.FindMatch("bob")

	if got := bRec.byType(protocol.TypeWaitingForMatch); len(got) != 1 {
		t.Fatalf("bob should wait, messages = %+v", bRec.msgs)
	}
	if got := aRec.byType(protocol.TypeMatchFound); len(got) != 0 {
		t.Fatalf("alice paired after cancel: %+v", got)
	}
}

func TestMoveRelayAndVerifyCommit(t *testing.T) {
	m := newTestManager()
	redID, blackID, red, black, gameID := pairPlayers(t, m)

	mv := mkMove(3, 4, 4, 4) // red center soldier forward
	claimed := claimedAfter(t, xiangqi.StartFEN, mv)
	m.HandleMove(redID, mv, claimed)

	relayed := black.byType(protocol.TypeOpponentMove)
	if len(relayed) != 1 {
		t.Fatalf("opponent_move count = %d", len(relayed))
	}
	if relayed[0].Move == nil || *relayed[0].Move != mv || relayed[0].FEN != claimed {
		t.Fatalf("relayed = %+v", relayed[0])
	}

	m.HandleVerify(blackID, claimed, true)
	if got := red.byType(protocol.TypeStateCorrection); len(got) != 0 {
		t.Fatalf("unexpected correction: %+v", got)
	}
	if got := black.byType(protocol.TypeStateCorrection); len(got) != 0 {
		t.Fatalf("unexpected correction: %+v", got)
	}

	gs := sessionState(m, gameID)
	if gs == nil || len(gs.History) != 1 || gs.Turn != xiangqi.Black {
		t.Fatalf("state not committed: %+v", gs)
	}
	if gs.FEN() != claimed {
		t.Fatalf("fen = %q, want %q", gs.FEN(), claimed)
	}
}

func TestMoveRejectedBeforeRelay(t *testing.T) {
	m := newTestManager()
	redID, blackID, red, black, gameID := pairPlayers(t, m)

	// Rook onto its own soldier.
	m.HandleMove(redID, mkMove(0, 0, 3, 0), "whatever w")
	if got := red.byType(protocol.TypeError); len(got) != 1 {
		t.Fatalf("error count = %d", len(got))
	}
	if got := red.byType(protocol.TypeStateCorrection); len(got) != 1 {
		t.Fatalf("correction count = %d", len(got))
	}
	if got := black.byType(protocol.TypeOpponentMove); len(got) != 0 {
		t.Fatalf("illegal move relayed: %+v", got)
	}

	// Not black's turn yet.
	m.HandleMove(blackID, mkMove(6, 4, 5, 4), "whatever b")
	if got := black.byType(protocol.TypeError); len(got) != 1 {
		t.Fatalf("turn error count = %d", len(got))
	}

	gs := sessionState(m, gameID)
	if len(gs.History) != 0 {
		t.Fatalf("state moved: %d", len(gs.History))
	}
}

func TestVerifyConflictBroadcastsCorrection(t *testing.T) {
	m := newTestManager()
	redID, blackID, red, black, gameID := pairPlayers(t, m)

	mv := mkMove(3, 4, 4, 4)
	truth := claimedAfter(t, xiangqi.StartFEN, mv)
	m.HandleMove(redID, mv, "bogus claim w")
	m.HandleVerify(blackID, "bogus claim w", false)

	for name, rec := range map[string]*recorder{"red": red, "black": black} {
		corr := rec.byType(protocol.TypeStateCorrection)
		if len(corr) != 1 {
			t.Fatalf("%s correction count = %d", name, len(corr))
		}
		if corr[0].FEN != truth || corr[0].Turn != "black" {
			t.Fatalf("%s correction = %+v", name, corr[0])
		}
	}

	// The legal move still committed on the authoritative state.
	gs := sessionState(m, gameID)
	if len(gs.History) != 1 || gs.FEN() != truth {
		t.Fatalf("state = %q, history %d", gs.FEN(), len(gs.History))
	}
}

func TestVerifyRepetitionRefusalCorrects(t *testing.T) {
	m := newTestManager()
	redID, blackID, _, black, gameID := pairPlayers(t, m)

	gs, err := xiangqi.NewGameStateFromFEN("3k4r/9/9/9/9/9/9/9/9/R3K4 w")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	shuttle := []xiangqi.Move{
		mkMove(0, 0, 1, 0), mkMove(9, 8, 8, 8),
		mkMove(1, 0, 0, 0), mkMove(8, 8, 9, 8),
		mkMove(0, 0, 1, 0), mkMove(9, 8, 8, 8),
		mkMove(1, 0, 0, 0),
	}
	for i, s := range shuttle {
		if err := gs.MakeMove(s.From, s.To); err != nil {
			t.Fatalf("shuttle %d: %v", i, err)
		}
	}
	installState(m, gameID, gs)

	// Returning the rook would repeat the position a third time. The
	// pattern is legal, so the relay goes through, but the commit is
	// refused and both clients get corrected.
	refused := mkMove(8, 8, 9, 8)
	claimed := claimedAfter(t, gs.FEN(), refused)
	before := gs.FEN()
	m.HandleMove(blackID, refused, claimed)
	m.HandleVerify(redID, claimed, true)

	corr := black.byType(protocol.TypeStateCorrection)
	if len(corr) != 1 {
		t.Fatalf("correction count = %d", len(corr))
	}
	if corr[0].FEN != before || corr[0].Turn != "black" {
		t.Fatalf("correction = %+v", corr[0])
	}
	if len(gs.History) != len(shuttle) {
		t.Fatalf("refused move committed, history = %d", len(gs.History))
	}
}

func TestSurrenderEndsGame(t *testing.T) {
	m := newTestManager()
	_, blackID, red, black, gameID := pairPlayers(t, m)

	m.Surrender(blackID)
	for name, rec := range map[string]*recorder{"red": red, "black": black} {
		ends := rec.byType(protocol.TypeGameEnd)
		if len(ends) != 1 {
			t.Fatalf("%s game_end count = %d", name, len(ends))
		}
		if ends[0].Winner != "red" || ends[0].Reason != protocol.ReasonSurrender {
			t.Fatalf("%s game_end = %+v", name, ends[0])
		}
	}
	// Session survives for a possible rematch.
	if sessionState(m, gameID) == nil {
		t.Fatal("session removed on surrender")
	}
}

func TestMoveAfterGameOverRejected(t *testing.T) {
	m := newTestManager()
	redID, blackID, red, _, _ := pairPlayers(t, m)

	m.Surrender(blackID)
	red.clear()
	m.HandleMove(redID, mkMove(3, 4, 4, 4), "x w")
	errs := red.byType(protocol.TypeError)
	if len(errs) != 1 || errs[0].Message != "game is over" {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestDrawOfferAndAccept(t *testing.T) {
	m := newTestManager()
	redID, blackID, red, black, _ := pairPlayers(t, m)

	// Accept without an offer fails.
	m.AcceptDraw(blackID)
	if got := black.byType(protocol.TypeError); len(got) != 1 {
		t.Fatalf("error count = %d", len(got))
	}
	black.clear()

	m.RequestDraw(redID)
	if got := black.byType(protocol.TypeDrawOffered); len(got) != 1 {
		t.Fatalf("draw_offered count = %d", len(got))
	}

	// The offerer cannot accept their own offer.
	m.AcceptDraw(redID)
	if got := red.byType(protocol.TypeError); len(got) != 1 {
		t.Fatalf("self accept errors = %+v", got)
	}

	m.AcceptDraw(blackID)
	for name, rec := range map[string]*recorder{"red": red, "black": black} {
		ends := rec.byType(protocol.TypeGameEnd)
		if len(ends) != 1 {
			t.Fatalf("%s game_end count = %d", name, len(ends))
		}
		if ends[0].Winner != "" || ends[0].Reason != protocol.ReasonDrawAgreed {
			t.Fatalf("%s game_end = %+v", name, ends[0])
		}
	}
}

func TestDrawOfferClearedByCommittedMove(t *testing.T) {
	m := newTestManager()
	redID, blackID, _, black, _ := pairPlayers(t, m)

	m.RequestDraw(blackID)
	mv := mkMove(3, 4, 4, 4)
	claimed := claimedAfter(t, xiangqi.StartFEN, mv)
	m.HandleMove(redID, mv, claimed)
	m.HandleVerify(blackID, claimed, true)

	// The old offer no longer stands.
	m.AcceptDraw(redID)
	// Red accepting black's stale offer must fail now.
	if got := black.byType(protocol.TypeGameEnd); len(got) != 0 {
		t.Fatalf("draw concluded from stale offer: %+v", got)
	}
}

func TestPlayAgainRestartsSession(t *testing.T) {
	m := newTestManager()
	redID, blackID, red, black, gameID := pairPlayers(t, m)

	m.Surrender(redID)
	red.clear()
	black.clear()

	m.PlayAgain(redID)
	if got := black.byType(protocol.TypeMatchFound); len(got) != 0 {
		t.Fatalf("rematch before both agreed: %+v", got)
	}
	m.PlayAgain(blackID)

	for name, rec := range map[string]*recorder{"red": red, "black": black} {
		found := rec.byType(protocol.TypeMatchFound)
		if len(found) != 1 {
			t.Fatalf("%s match_found count = %d", name, len(found))
		}
		if found[0].GameID != gameID {
			t.Fatalf("%s rematch game id = %q, want %q", name, found[0].GameID, gameID)
		}
		starts := rec.byType(protocol.TypeGameStart)
		if len(starts) != 1 || starts[0].FEN != xiangqi.StartFEN {
			t.Fatalf("%s game_start = %+v", name, starts)
		}
	}

	gs := sessionState(m, gameID)
	if gs == nil || len(gs.History) != 0 || gs.Status != xiangqi.StatusPlaying {
		t.Fatalf("state not reset: %+v", gs)
	}
}

func TestPlayAgainDuringGameRejected(t *testing.T) {
	m := newTestManager()
	redID, _, red, _, _ := pairPlayers(t, m)

	m.PlayAgain(redID)
	errs := red.byType(protocol.TypeError)
	if len(errs) != 1 || errs[0].Message != "game is still in progress" {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestLeaveGameMidGameForfeits(t *testing.T) {
	m := newTestManager()
	redID, _, _, black, gameID := pairPlayers(t, m)

	m.LeaveGame(redID)
	if got := black.byType(protocol.TypeOpponentDisconnected); len(got) != 1 {
		t.Fatalf("opponent_disconnected count = %d", len(got))
	}
	ends := black.byType(protocol.TypeGameEnd)
	if len(ends) != 1 || ends[0].Winner != "black" || ends[0].Reason != protocol.ReasonLeft {
		t.Fatalf("game_end = %+v", ends)
	}
	if sessionState(m, gameID) != nil {
		t.Fatal("session not removed")
	}

	// The leaver stays connected and can queue again.
	rec := &recorder{}
	m.AddPlayer("carol", rec)
	m.FindMatch(redID)
	m.FindMatch("carol")
	if got := rec.byType(protocol.TypeMatchFound); len(got) != 1 {
		t.Fatalf("leaver cannot rematch: %+v", rec.msgs)
	}
}

func TestLeaveFinishedGame(t *testing.T) {
	m := newTestManager()
	redID, _, _, black, _ := pairPlayers(t, m)

	m.Surrender(redID)
	black.clear()
	m.LeaveGame(redID)

	if got := black.byType(protocol.TypeOpponentLeft); len(got) != 1 {
		t.Fatalf("opponent_left count = %d", len(got))
	}
	if got := black.byType(protocol.TypeGameEnd); len(got) != 0 {
		t.Fatalf("second game_end: %+v", got)
	}
}

func TestRemovePlayerForfeitsGame(t *testing.T) {
	m := newTestManager()
	redID, _, _, black, gameID := pairPlayers(t, m)

	m.RemovePlayer(redID)
	if got := black.byType(protocol.TypeOpponentDisconnected); len(got) != 1 {
		t.Fatalf("opponent_disconnected count = %d", len(got))
	}
	ends := black.byType(protocol.TypeGameEnd)
	if len(ends) != 1 || ends[0].Winner != "black" || ends[0].Reason != protocol.ReasonDisconnected {
		t.Fatalf("game_end = %+v", ends)
	}
	if sessionState(m, gameID) != nil {
		t.Fatal("session not removed")
	}
	if m.AllowMessage(redID) {
		t.Fatal("removed player still allowed")
	}
}

func TestAllowMessageRateLimits(t *testing.T) {
	m := newTestManager()
	clock := time.Unix(1000, 0)
	m.now = func() time.Time { return clock }

	m.AddPlayer("alice", &recorder{})
	if !m.AllowMessage("alice") {
		t.Fatal("first message blocked")
	}
	if m.AllowMessage("alice") {
		t.Fatal("burst not limited")
	}
	clock = clock.Add(99 * time.Millisecond)
	if m.AllowMessage("alice") {
		t.Fatal("99ms gap allowed")
	}
	clock = clock.Add(2 * time.Millisecond)
	if !m.AllowMessage("alice") {
		t.Fatal("101ms gap blocked")
	}
	if m.AllowMessage("stranger") {
		t.Fatal("unknown player allowed")
	}
}

func TestReapIdleSessions(t *testing.T) {
	m := newTestManager()
	_, _, _, _, gameID := pairPlayers(t, m)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	m.reapIdle()

	if sessionState(m, gameID) != nil {
		t.Fatal("idle session survived")
	}
}

func TestCheckmateArchivesMatch(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	m := NewManager(store, zerolog.Nop())
	redID, blackID, red, black, gameID := pairPlayers(t, m)

	gs, err := xiangqi.NewGameStateFromFEN("4k4/R3p4/9/9/9/9/9/9/9/4K4 w")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	installState(m, gameID, gs)

	mate := mkMove(8, 0, 9, 0)
	claimed := claimedAfter(t, "4k4/R3p4/9/9/9/9/9/9/9/4K4 w", mate)
	m.HandleMove(redID, mate, claimed)
	m.HandleVerify(blackID, claimed, true)

	for name, rec := range map[string]*recorder{"red": red, "black": black} {
		ends := rec.byType(protocol.TypeGameEnd)
		if len(ends) != 1 {
			t.Fatalf("%s game_end count = %d", name, len(ends))
		}
		if ends[0].Winner != "red" || ends[0].Reason != protocol.ReasonCheckmate {
			t.Fatalf("%s game_end = %+v", name, ends[0])
		}
	}

	// Archival happens off the handler path; poll for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		recs, err := store.ListMatches(0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(recs) == 1 {
			rec := recs[0]
			if rec.GameID != gameID || rec.Winner != "red" || rec.Reason != protocol.ReasonCheckmate {
				t.Fatalf("record = %+v", rec)
			}
			if rec.Red != redID || rec.Black != blackID || len(rec.Moves) != 1 {
				t.Fatalf("record detail = %+v", rec)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("archive never appeared, records = %d", len(recs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
