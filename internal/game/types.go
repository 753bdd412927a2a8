// internal/game/types.go
//
// Core type definitions for the minesweeper engine.
// Defines:
//   - Coord: an (x, y) board coordinate.
//   - Value: the fixed content of a cell (mine or adjacent-mine count).
//   - Status: coarse game state ("playing"/"won"/"lost").
//   - Sentinel errors shared by Board and Engine.

package game

import (
	"errors"
	"strconv"
)

// Coord identifies a cell. X grows rightward, Y grows downward, both
// zero-based.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Value is the content of a cell: ValueMine for a mine, otherwise the
// number of mines among the cell's up-to-8 neighbors (0..8).
type Value int8

const ValueMine Value = -1

// IsMine reports whether the cell holds a mine.
func (v Value) IsMine() bool { return v == ValueMine }

// String renders the value the way the text view prints a revealed cell.
func (v Value) String() string {
	if v.IsMine() {
		return "*"
	}
	return strconv.Itoa(int(v))
}

// Status is the lifecycle state of a game session. "won" and "lost" are
// terminal: no reveal or flag changes board-visible state afterwards.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Terminal reports whether the game has ended.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// Errors returned by board construction and engine operations.
var (
	// ErrInvalidConfiguration means the requested board cannot exist:
	// non-positive dimensions, or a mine count outside (0, W*H).
	ErrInvalidConfiguration = errors.New("invalid board configuration")

	// ErrOutOfBounds means a coordinate lies outside the grid. Input
	// adapters validate coordinates before calling the engine, so this
	// error signals a programming bug rather than a game event.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
)
