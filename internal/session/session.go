// internal/session/session.go
//
// A Session owns one Board + Engine pair for its whole life.
// Responsibilities:
//   - Construct both from a Config (optionally with an injected RNG for
//     deterministic layouts, e.g. the daily challenge).
//   - Serialize engine operations behind a mutex and swap the
//     per-operation presenter in before each call, so concurrent HTTP
//     requests still drive a single-threaded engine.
//   - Reset: discard board and engine, rebuild fresh with the same
//     Config. Nothing crosses a reset.

package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cordey7/minesweeper/internal/game"
)

// Session is one playable game instance.
type Session struct {
	ID      string
	Config  game.Config
	Created time.Time

	mu      sync.Mutex
	updated time.Time
	board   *game.Board
	engine  *game.Engine
}

// New builds a session over a fresh board. A nil rng yields a random
// layout; a seeded rng yields a reproducible one.
func New(id string, cfg game.Config, rng *rand.Rand) (*Session, error) {
	board, err := game.NewBoard(cfg, rng)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:      id,
		Config:  cfg,
		Created: now,
		updated: now,
		board:   board,
		engine:  game.NewEngine(board, nil),
	}, nil
}

// Reveal opens a cell, routing notifications to view for the duration of
// the call. Returns the status after the move.
func (s *Session) Reveal(c game.Coord, view game.Presenter) (game.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetView(view)
	defer s.engine.SetView(nil)
	if err := s.engine.Reveal(c); err != nil {
		return s.engine.Status(), err
	}
	s.updated = time.Now()
	return s.engine.Status(), nil
}

// ToggleFlag flips a flag, routing notifications to view.
func (s *Session) ToggleFlag(c game.Coord, view game.Presenter) (game.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetView(view)
	defer s.engine.SetView(nil)
	if err := s.engine.ToggleFlag(c); err != nil {
		return s.engine.Status(), err
	}
	s.updated = time.Now()
	return s.engine.Status(), nil
}

// Reset discards the board and engine and rebuilds both with the same
// Config and a fresh random layout.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, err := game.NewBoard(s.Config, nil)
	if err != nil {
		return err
	}
	s.board = board
	s.engine = game.NewEngine(board, nil)
	s.updated = time.Now()
	return nil
}

// Status returns the current game status.
func (s *Session) Status() game.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Status()
}

// MinesRemaining returns mines minus flags placed.
func (s *Session) MinesRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.MinesRemaining()
}

// Updated returns the time of the last state change.
func (s *Session) Updated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// RevealedCount returns the number of revealed cells.
func (s *Session) RevealedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RevealedCount()
}
