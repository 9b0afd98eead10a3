package httpserver

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

var errGameNotFound = errors.New("game not found")

type gameEntry struct {
	state     *xiangqi.GameState
	createdAt time.Time
	updatedAt time.Time
}

// registry is the in-memory store of games played against the engine.
type registry struct {
	mu    sync.RWMutex
	games map[string]*gameEntry
}

func newRegistry() *registry {
	return &registry{games: make(map[string]*gameEntry)}
}

// create registers a fresh game and returns its id and state. The state
// may be read without locking until the id has been shared.
func (r *registry) create() (string, *xiangqi.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := newGameID()
	gs := xiangqi.NewGameState()
	now := time.Now()
	r.games[id] = &gameEntry{state: gs, createdAt: now, updatedAt: now}
	return id, gs
}

// view runs fn with the game locked for reading.
func (r *registry) view(id string, fn func(*xiangqi.GameState)) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return errGameNotFound
	}
	fn(g.state)
	return nil
}

// update runs fn with the game locked for writing. The entry's timestamp
// moves only when fn succeeds.
func (r *registry) update(id string, fn func(*xiangqi.GameState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return errGameNotFound
	}
	if err := fn(g.state); err != nil {
		return err
	}
	g.updatedAt = time.Now()
	return nil
}

func newGameID() string {
	return time.Now().Format("20060102T150405") + "-" + randomString(6)
}

func randomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
