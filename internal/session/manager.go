// internal/session/manager.go
//
// In-memory registry of live sessions, keyed by random ID. Sessions are
// ephemeral: state is lost when the process restarts, matching the
// no-persistence rule for in-progress games. Finished-game results are
// recorded separately by the HTTP layer.

package session

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/cordey7/minesweeper/internal/game"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.New("game not found")

// Manager tracks live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a new session for cfg. A nil rng gives a random
// board; the daily challenge passes a date-derived one.
func (m *Manager) Create(cfg game.Config, rng *rand.Rand) (*Session, error) {
	s, err := New(uuid.NewString(), cfg, rng)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s, nil
}

// Get returns the session for id, or ErrNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// Remove drops a session from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
