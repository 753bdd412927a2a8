// internal/game/board.go
//
// Board construction for a single minesweeper session.
// Responsibilities:
//   - Place the configured number of mines uniformly at random, without
//     replacement, using an injectable *rand.Rand (tests pass a seeded
//     source to get known layouts).
//   - Precompute every non-mine cell's adjacent-mine count.
//   - Serve coordinate-indexed reads; the board never changes after
//     construction.

package game

import (
	"fmt"
	"math/rand"
	"time"
)

// Board holds the immutable cell contents of one game.
type Board struct {
	cfg   Config
	cells []Value // row-major, index y*Width+x
}

// NewBoard builds a board for cfg. A nil rng falls back to a time-seeded
// source; tests inject a deterministic one.
func NewBoard(cfg Config, rng *rand.Rand) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	b := &Board{cfg: cfg, cells: make([]Value, cfg.Cells())}

	// Partial Fisher-Yates over the cell indices: the first Mines
	// entries of the permutation become mines.
	for _, i := range rng.Perm(len(b.cells))[:cfg.Mines] {
		b.cells[i] = ValueMine
	}

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			c := Coord{X: x, Y: y}
			if b.at(c).IsMine() {
				continue
			}
			count := Value(0)
			for _, n := range Neighbors(c, cfg.Width, cfg.Height) {
				if b.at(n).IsMine() {
					count++
				}
			}
			b.cells[y*cfg.Width+x] = count
		}
	}
	return b, nil
}

// Config returns the configuration the board was built from.
func (b *Board) Config() Config { return b.cfg }

// Width returns the number of columns.
func (b *Board) Width() int { return b.cfg.Width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.cfg.Height }

// Mines returns the number of mines on the board.
func (b *Board) Mines() int { return b.cfg.Mines }

// Cells returns the total number of cells on the board.
func (b *Board) Cells() int { return b.cfg.Cells() }

// ValueAt returns the content of the cell at c.
func (b *Board) ValueAt(c Coord) (Value, error) {
	if !b.cfg.InBounds(c) {
		return 0, fmt.Errorf("cell (%d,%d): %w", c.X, c.Y, ErrOutOfBounds)
	}
	return b.at(c), nil
}

// Neighbors returns c's in-bounds neighbors on this board.
func (b *Board) Neighbors(c Coord) []Coord {
	return Neighbors(c, b.cfg.Width, b.cfg.Height)
}

// at reads a cell without a bounds check; callers have validated c.
func (b *Board) at(c Coord) Value {
	return b.cells[c.Y*b.cfg.Width+c.X]
}
