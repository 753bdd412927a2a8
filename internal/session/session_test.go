package session

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/cordey7/minesweeper/internal/game"
)

func mustCreate(t *testing.T, m *Manager, cfg game.Config) *Session {
	t.Helper()
	s, err := m.Create(cfg, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return s
}

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager()
	cfg, _ := game.Preset("easy")
	s := mustCreate(t, m, cfg)

	if s.ID == "" {
		t.Fatalf("session has empty ID")
	}
	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != s {
		t.Fatalf("Get returned a different session")
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	m.Remove(s.ID)
	if m.Len() != 0 {
		t.Fatalf("Len() after Remove = %d, want 0", m.Len())
	}
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	m := NewManager()
	if _, err := m.Create(game.Config{Width: 1, Height: 1, Mines: 1}, nil); !errors.Is(err, game.ErrInvalidConfiguration) {
		t.Fatalf("Create = %v, want ErrInvalidConfiguration", err)
	}
	if m.Len() != 0 {
		t.Fatalf("failed create left a session behind")
	}
}

func TestSeededSessionsShareLayout(t *testing.T) {
	cfg, _ := game.Preset("medium")
	a, err := New("a", cfg, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New("b", cfg, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			c := game.Coord{X: x, Y: y}
			va, _ := a.board.ValueAt(c)
			vb, _ := b.board.ValueAt(c)
			if va != vb {
				t.Fatalf("seeded boards differ at (%d,%d): %s vs %s", x, y, va, vb)
			}
		}
	}
}

func TestResetDiscardsState(t *testing.T) {
	m := NewManager()
	cfg, _ := game.Preset("easy")
	s := mustCreate(t, m, cfg)

	if _, err := s.ToggleFlag(game.Coord{X: 0, Y: 0}, nil); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if s.MinesRemaining() != cfg.Mines-1 {
		t.Fatalf("MinesRemaining() = %d before reset", s.MinesRemaining())
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Status() != game.StatusPlaying {
		t.Fatalf("status after reset = %s", s.Status())
	}
	if s.RevealedCount() != 0 {
		t.Fatalf("revealed cells survived reset")
	}
	if s.MinesRemaining() != cfg.Mines {
		t.Fatalf("flags survived reset: MinesRemaining() = %d", s.MinesRemaining())
	}
	if s.Config != cfg {
		t.Fatalf("config changed across reset")
	}
}
