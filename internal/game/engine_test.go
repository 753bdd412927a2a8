package game

import (
	"errors"
	"fmt"
	"testing"
)

// recorder captures presenter notifications in delivery order.
type recorder struct {
	events []string
}

func (r *recorder) RevealCell(c Coord, v Value) {
	r.events = append(r.events, fmt.Sprintf("reveal %d,%d=%s", c.X, c.Y, v))
}
func (r *recorder) FlagCell(c Coord) {
	r.events = append(r.events, fmt.Sprintf("flag %d,%d", c.X, c.Y))
}

func (r *recorder) UnflagCell(c Coord) {
	r.events = append(r.events, fmt.Sprintf("unflag %d,%d", c.X, c.Y))
}

func (r *recorder) MinesRemaining(n int) {
	r.events = append(r.events, fmt.Sprintf("mines %d", n))
}

func (r *recorder) GameWon()  { r.events = append(r.events, "won") }
func (r *recorder) GameLost() { r.events = append(r.events, "lost") }

func (r *recorder) reset() { r.events = nil }

func (r *recorder) count(prefix string) int {
	n := 0
	for _, e := range r.events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func TestRevealNumberedCell(t *testing.T) {
	// Mine at the center: every other cell counts exactly 1, so no
	// flood fill can trigger anywhere.
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 1, Y: 1}), rec)

	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.RevealedCount() != 1 {
		t.Fatalf("revealed %d cells, want 1", e.RevealedCount())
	}
	if len(rec.events) != 1 || rec.events[0] != "reveal 0,0=1" {
		t.Fatalf("unexpected events %v", rec.events)
	}
	if e.Status() != StatusPlaying {
		t.Fatalf("status = %s, want playing", e.Status())
	}
}

func TestRevealFlaggedIsNoop(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 1, Y: 1}), rec)

	if err := e.ToggleFlag(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	rec.reset()
	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.RevealedCount() != 0 {
		t.Fatalf("flagged cell was revealed")
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no notifications, got %v", rec.events)
	}
}

func TestFlagRevealedIsNoop(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 1, Y: 1}), rec)

	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	rec.reset()
	if err := e.ToggleFlag(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if e.IsFlagged(Coord{X: 0, Y: 0}) {
		t.Fatalf("revealed cell was flagged")
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no notifications, got %v", rec.events)
	}
}

func TestRevealAlreadyRevealedIsNoop(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 1, Y: 1}), rec)

	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	rec.reset()
	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("second reveal failed: %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("duplicate notifications %v", rec.events)
	}
}

func TestFloodFillOpensRegion(t *testing.T) {
	// Mine in the corner: (2,2) counts zero, so revealing it opens all
	// eight non-mine cells in one action and wins the game.
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 0, Y: 0}), rec)

	if err := e.Reveal(Coord{X: 2, Y: 2}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.RevealedCount() != 8 {
		t.Fatalf("revealed %d cells, want 8", e.RevealedCount())
	}
	if e.IsRevealed(Coord{X: 0, Y: 0}) {
		t.Fatalf("mine was revealed by flood fill")
	}
	if e.Status() != StatusWon {
		t.Fatalf("status = %s, want won", e.Status())
	}
	// Exactly one notification per opened cell, then the win.
	if got := rec.count("reveal"); got != 8 {
		t.Fatalf("%d reveal notifications, want 8: %v", got, rec.events)
	}
	if rec.events[len(rec.events)-1] != "won" {
		t.Fatalf("expected win notification last, got %v", rec.events)
	}
}

func TestWinTriggersOnLastSafeCell(t *testing.T) {
	// 2x2 with one mine: three numbered cells, no zeros. The win must
	// arrive exactly on the third reveal, regardless of order.
	orders := [][]Coord{
		{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		{{X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}},
	}
	for _, order := range orders {
		rec := &recorder{}
		e := NewEngine(testBoard(t, 2, 2, Coord{X: 0, Y: 0}), rec)
		for i, c := range order {
			if err := e.Reveal(c); err != nil {
				t.Fatalf("reveal %v failed: %v", c, err)
			}
			wantStatus := StatusPlaying
			if i == len(order)-1 {
				wantStatus = StatusWon
			}
			if e.Status() != wantStatus {
				t.Fatalf("after reveal %d status = %s, want %s", i, e.Status(), wantStatus)
			}
		}
		if rec.count("won") != 1 {
			t.Fatalf("win notified %d times: %v", rec.count("won"), rec.events)
		}
	}
}

func TestLossBroadcastsFullBoard(t *testing.T) {
	rec := &recorder{}
	b := testBoard(t, 3, 3, Coord{X: 1, Y: 1})
	e := NewEngine(b, rec)

	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if err := e.ToggleFlag(Coord{X: 2, Y: 2}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	rec.reset()

	if err := e.Reveal(Coord{X: 1, Y: 1}); err != nil {
		t.Fatalf("reveal mine failed: %v", err)
	}
	if e.Status() != StatusLost {
		t.Fatalf("status = %s, want lost", e.Status())
	}
	if rec.events[0] != "lost" {
		t.Fatalf("loss not notified first: %v", rec.events)
	}
	// Every cell broadcast exactly once, flagged and revealed included.
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			v, _ := b.ValueAt(Coord{X: x, Y: y})
			want := fmt.Sprintf("reveal %d,%d=%s", x, y, v)
			if got := rec.count(want); got != 1 {
				t.Fatalf("cell (%d,%d) broadcast %d times: %v", x, y, got, rec.events)
			}
		}
	}
	if got := rec.count("reveal"); got != 9 {
		t.Fatalf("%d broadcasts, want 9", got)
	}
}

func TestWonIsNeverOverturned(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 0, Y: 0}), rec)

	if err := e.Reveal(Coord{X: 2, Y: 2}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.Status() != StatusWon {
		t.Fatalf("setup did not win: %s", e.Status())
	}
	rec.reset()

	// A stray reveal of the mine must not flip the result.
	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("post-win reveal failed: %v", err)
	}
	if e.Status() != StatusWon {
		t.Fatalf("win overturned to %s", e.Status())
	}
	if len(rec.events) != 0 {
		t.Fatalf("post-win notifications %v", rec.events)
	}
}

func TestTerminalLostFreezesState(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 1, Y: 1}), rec)

	if err := e.Reveal(Coord{X: 1, Y: 1}); err != nil {
		t.Fatalf("reveal mine failed: %v", err)
	}
	rec.reset()

	if err := e.Reveal(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("post-loss reveal failed: %v", err)
	}
	if err := e.ToggleFlag(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("post-loss flag failed: %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("post-loss notifications %v", rec.events)
	}
}

func TestFlagCounterAndOverFlagging(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(testBoard(t, 2, 2, Coord{X: 0, Y: 0}), rec)

	if err := e.ToggleFlag(Coord{X: 1, Y: 0}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if want := []string{"flag 1,0", "mines 0"}; len(rec.events) != 2 || rec.events[0] != want[0] || rec.events[1] != want[1] {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	rec.reset()

	// A second flag would push the counter to -1; the update is
	// suppressed while the flag itself still lands.
	if err := e.ToggleFlag(Coord{X: 0, Y: 1}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0] != "flag 0,1" {
		t.Fatalf("events = %v, want just the flag", rec.events)
	}
	if e.MinesRemaining() != -1 {
		t.Fatalf("MinesRemaining() = %d, want -1", e.MinesRemaining())
	}
	rec.reset()

	if err := e.ToggleFlag(Coord{X: 0, Y: 1}); err != nil {
		t.Fatalf("unflag failed: %v", err)
	}
	if want := []string{"unflag 0,1", "mines 0"}; len(rec.events) != 2 || rec.events[0] != want[0] || rec.events[1] != want[1] {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
}

func TestFlagsAreAdvisory(t *testing.T) {
	// Flagging one mine protects only that coordinate: revealing the
	// other mine still loses.
	rec := &recorder{}
	e := NewEngine(testBoard(t, 3, 1, Coord{X: 0, Y: 0}, Coord{X: 2, Y: 0}), rec)

	if err := e.ToggleFlag(Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if err := e.Reveal(Coord{X: 2, Y: 0}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.Status() != StatusLost {
		t.Fatalf("status = %s, want lost", e.Status())
	}
}

func TestFloodFillSkipsFlaggedCells(t *testing.T) {
	// Mine in the corner of a 4x4: flag a zero cell inside the open
	// region. The region still opens around it; the flagged cell itself
	// stays hidden, so the game cannot be won until it is unflagged.
	rec := &recorder{}
	e := NewEngine(testBoard(t, 4, 4, Coord{X: 0, Y: 0}), rec)

	flagged := Coord{X: 2, Y: 2}
	if err := e.ToggleFlag(flagged); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	if err := e.Reveal(Coord{X: 3, Y: 3}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.IsRevealed(flagged) {
		t.Fatalf("flagged cell revealed by flood fill")
	}
	if e.RevealedCount() != 14 { // 16 cells - 1 mine - 1 flagged
		t.Fatalf("revealed %d cells, want 14", e.RevealedCount())
	}
	if e.Status() != StatusPlaying {
		t.Fatalf("status = %s, want playing", e.Status())
	}

	// Unflag and reveal the last safe cell: now the game is won.
	if err := e.ToggleFlag(flagged); err != nil {
		t.Fatalf("unflag failed: %v", err)
	}
	if err := e.Reveal(flagged); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if e.Status() != StatusWon {
		t.Fatalf("status = %s, want won", e.Status())
	}
}

func TestFloodFillLargeBoard(t *testing.T) {
	// A single corner mine on a board much larger than the hard preset:
	// one reveal opens every safe cell. The worklist implementation must
	// finish without deep recursion and visit each cell exactly once.
	rec := &recorder{}
	e := NewEngine(testBoard(t, 200, 200, Coord{X: 0, Y: 0}), rec)

	if err := e.Reveal(Coord{X: 199, Y: 199}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	want := 200*200 - 1
	if e.RevealedCount() != want {
		t.Fatalf("revealed %d cells, want %d", e.RevealedCount(), want)
	}
	if got := rec.count("reveal"); got != want {
		t.Fatalf("%d reveal notifications, want %d", got, want)
	}
	if e.Status() != StatusWon {
		t.Fatalf("status = %s, want won", e.Status())
	}
}

func TestOutOfBoundsOperations(t *testing.T) {
	e := NewEngine(testBoard(t, 3, 3, Coord{X: 1, Y: 1}), nil)
	for _, c := range []Coord{{X: -1, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 3}} {
		if err := e.Reveal(c); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Reveal(%v) = %v, want ErrOutOfBounds", c, err)
		}
		if err := e.ToggleFlag(c); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("ToggleFlag(%v) = %v, want ErrOutOfBounds", c, err)
		}
	}
	if e.RevealedCount() != 0 || e.Status() != StatusPlaying {
		t.Fatalf("out-of-bounds call mutated state")
	}
}
