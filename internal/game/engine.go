// internal/game/engine.go
//
// Game engine for a single minesweeper session.
// Responsibilities:
//   - Track revealed and flagged coordinate sets over an immutable Board.
//   - Apply reveals and flag toggles, notifying the Presenter of every
//     visible change.
//   - Open connected zero regions with an iterative worklist flood fill
//     (bounded memory, no recursion, each cell visited at most once).
//   - Detect the win and loss transitions; both are terminal.
//
// Notes:
//   - Flags are advisory: they protect exactly their own coordinate from
//     being revealed and nothing else. Revealing a different mine still
//     loses the game.
//   - The engine is single-threaded; callers serialize access (the
//     session layer holds a mutex around every operation).

package game

import "fmt"

// Engine owns the mutable state of one game over an immutable board.
type Engine struct {
	board    *Board
	view     Presenter
	revealed map[Coord]struct{}
	flagged  map[Coord]struct{}
	status   Status
}

// NewEngine creates an engine over b reporting to view. A nil view is
// replaced with NopPresenter.
func NewEngine(b *Board, view Presenter) *Engine {
	if view == nil {
		view = NopPresenter
	}
	return &Engine{
		board:    b,
		view:     view,
		revealed: make(map[Coord]struct{}),
		flagged:  make(map[Coord]struct{}),
		status:   StatusPlaying,
	}
}

// SetView replaces the presenter receiving notifications. The HTTP
// adapter swaps in a per-request event recorder before each operation.
func (e *Engine) SetView(view Presenter) {
	if view == nil {
		view = NopPresenter
	}
	e.view = view
}

// Board returns the board the engine plays on.
func (e *Engine) Board() *Board { return e.board }

// Status returns the current game status.
func (e *Engine) Status() Status { return e.status }

// RevealedCount returns the number of revealed cells.
func (e *Engine) RevealedCount() int { return len(e.revealed) }

// IsRevealed reports whether c has been revealed.
func (e *Engine) IsRevealed(c Coord) bool {
	_, ok := e.revealed[c]
	return ok
}

// IsFlagged reports whether c carries a flag.
func (e *Engine) IsFlagged(c Coord) bool {
	_, ok := e.flagged[c]
	return ok
}

// MinesRemaining returns mines minus flags placed. May be negative when
// the player has over-flagged.
func (e *Engine) MinesRemaining() int {
	return e.board.Mines() - len(e.flagged)
}

// ToggleFlag flips the flag on c. No-op on revealed cells and after the
// game has ended. Emits FlagCell/UnflagCell plus a MinesRemaining update
// whenever the count is non-negative.
func (e *Engine) ToggleFlag(c Coord) error {
	if !e.board.cfg.InBounds(c) {
		return fmt.Errorf("flag (%d,%d): %w", c.X, c.Y, ErrOutOfBounds)
	}
	if e.status.Terminal() {
		return nil
	}
	if _, ok := e.revealed[c]; ok {
		return nil
	}
	if _, ok := e.flagged[c]; ok {
		delete(e.flagged, c)
		e.view.UnflagCell(c)
	} else {
		e.flagged[c] = struct{}{}
		e.view.FlagCell(c)
	}
	if n := e.MinesRemaining(); n >= 0 {
		e.view.MinesRemaining(n)
	}
	return nil
}

// Reveal opens the cell at c. Flagged and already-revealed cells are
// no-ops, as is any call after the game has ended. Hitting a mine loses
// the game and broadcasts the whole board; opening a zero cell opens its
// connected region; every reveal may complete the win condition.
func (e *Engine) Reveal(c Coord) error {
	if !e.board.cfg.InBounds(c) {
		return fmt.Errorf("reveal (%d,%d): %w", c.X, c.Y, ErrOutOfBounds)
	}
	if e.status.Terminal() {
		return nil
	}
	if _, ok := e.flagged[c]; ok {
		return nil
	}
	if _, ok := e.revealed[c]; ok {
		return nil
	}

	switch v := e.board.at(c); {
	case v.IsMine():
		e.status = StatusLost
		e.view.GameLost()
		e.broadcastAll()
	case v == 0:
		e.floodFill(c)
	default:
		e.revealOne(c, v)
	}

	if e.status != StatusLost && len(e.revealed) == e.board.Cells()-e.board.Mines() {
		e.status = StatusWon
		e.view.GameWon()
	}
	return nil
}

// revealOne marks a single non-mine cell revealed and notifies the view.
// Flagged and already-revealed cells are skipped silently.
func (e *Engine) revealOne(c Coord, v Value) {
	if _, ok := e.flagged[c]; ok {
		return
	}
	if _, ok := e.revealed[c]; ok {
		return
	}
	e.revealed[c] = struct{}{}
	e.view.RevealCell(c, v)
}

// floodFill opens the connected zero region around start plus its
// numbered border. An explicit worklist with a queued set keeps memory
// bounded and guarantees each zero cell is expanded exactly once, so
// large boards cannot exhaust the stack.
func (e *Engine) floodFill(start Coord) {
	work := []Coord{start}
	queued := map[Coord]struct{}{start: {}}

	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		e.revealOne(c, 0)

		for _, n := range e.board.Neighbors(c) {
			v := e.board.at(n)
			if v.IsMine() {
				// A zero cell has no mined neighbor; keep the
				// guard anyway so a mine can only ever be
				// reached by a top-level reveal.
				continue
			}
			if v == 0 {
				if _, ok := queued[n]; !ok {
					queued[n] = struct{}{}
					work = append(work, n)
				}
				continue
			}
			e.revealOne(n, v)
		}
	}
}

// broadcastAll shows every cell's content after a loss, flagged or not,
// already revealed or not. The revealed set is left as-is: the game is
// over and the set no longer feeds the win condition.
func (e *Engine) broadcastAll() {
	for y := 0; y < e.board.Height(); y++ {
		for x := 0; x < e.board.Width(); x++ {
			c := Coord{X: x, Y: y}
			e.view.RevealCell(c, e.board.at(c))
		}
	}
}
