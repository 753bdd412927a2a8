package game

import (
	"fmt"
	"strings"
)

// Config describes the board a session is created with.
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Mines  int `json:"mines"`
}

// Standard difficulty presets.
var presets = map[string]Config{
	"easy":   {Width: 10, Height: 10, Mines: 10},
	"medium": {Width: 16, Height: 16, Mines: 40},
	"hard":   {Width: 25, Height: 20, Mines: 99},
}

// Preset returns the named difficulty preset (case-insensitive).
func Preset(name string) (Config, error) {
	cfg, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Config{}, fmt.Errorf("unknown difficulty %q", name)
	}
	return cfg, nil
}

// Cells returns the total number of cells on the board.
func (c Config) Cells() int { return c.Width * c.Height }

// Validate checks that a playable board can be built from the config.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidConfiguration, c.Width, c.Height)
	}
	if c.Mines <= 0 || c.Mines >= c.Cells() {
		return fmt.Errorf("%w: %d mines on %d cells", ErrInvalidConfiguration, c.Mines, c.Cells())
	}
	return nil
}

// InBounds reports whether the coordinate lies on the board.
func (c Config) InBounds(at Coord) bool {
	return at.X >= 0 && at.X < c.Width && at.Y >= 0 && at.Y < c.Height
}
