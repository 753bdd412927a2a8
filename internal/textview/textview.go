// internal/textview/textview.go
//
// Console presentation of a minesweeper session.
// Responsibilities:
//   - Implement game.Presenter over an io.Writer: keep a glyph grid in
//     sync with engine notifications and print counter/win/loss lines.
//   - Run the input loop: parse "reveal x y" / "flag x y" / "end"
//     commands, re-prompting on malformed input. Validation happens
//     here, at the adapter boundary; the engine only ever sees
//     in-bounds coordinates.
//
// Glyphs: "-" hidden, "F" flagged, "." revealed zero, "1".."8" counts,
// "*" a mine shown by the loss broadcast.

package textview

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cordey7/minesweeper/internal/game"
)

// Game is the slice of a session the console view drives.
type Game interface {
	Reveal(c game.Coord, view game.Presenter) (game.Status, error)
	ToggleFlag(c game.Coord, view game.Presenter) (game.Status, error)
}

// View renders one session as text.
type View struct {
	cfg   game.Config
	out   io.Writer
	cells [][]string
}

// New creates a view for a board of cfg's dimensions writing to out.
func New(cfg game.Config, out io.Writer) *View {
	cells := make([][]string, cfg.Height)
	for y := range cells {
		row := make([]string, cfg.Width)
		for x := range row {
			row[x] = "-"
		}
		cells[y] = row
	}
	return &View{cfg: cfg, out: out, cells: cells}
}

// RevealCell updates the glyph for a revealed cell.
func (v *View) RevealCell(c game.Coord, val game.Value) {
	glyph := val.String()
	if val == 0 {
		glyph = "."
	}
	v.cells[c.Y][c.X] = glyph
}

// FlagCell marks a cell flagged.
func (v *View) FlagCell(c game.Coord) { v.cells[c.Y][c.X] = "F" }

// UnflagCell restores the hidden glyph.
func (v *View) UnflagCell(c game.Coord) { v.cells[c.Y][c.X] = "-" }

// MinesRemaining prints the counter line.
func (v *View) MinesRemaining(n int) {
	fmt.Fprintf(v.out, "Mines remaining: %d\n", n)
}

// GameWon prints the win banner.
func (v *View) GameWon() { fmt.Fprintln(v.out, "You win!") }

// GameLost prints the loss banner.
func (v *View) GameLost() { fmt.Fprintln(v.out, "You lose!") }

// ShowGrid prints the grid with column and row indices.
func (v *View) ShowGrid() {
	fmt.Fprint(v.out, "    ")
	for x := 0; x < v.cfg.Width; x++ {
		fmt.Fprintf(v.out, "%2d ", x)
	}
	fmt.Fprintln(v.out)
	for y, row := range v.cells {
		fmt.Fprintf(v.out, "%2d: ", y)
		for _, glyph := range row {
			fmt.Fprintf(v.out, "%2s ", glyph)
		}
		fmt.Fprintln(v.out)
	}
}

// Run reads commands from in until "end", EOF, or the game finishes.
func (v *View) Run(in io.Reader, g Game) error {
	v.MinesRemaining(v.cfg.Mines)
	v.ShowGrid()

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(v.out, "reveal x y | flag x y | end > ")
		if !sc.Scan() {
			return sc.Err()
		}
		cmd, c, perr := v.parse(sc.Text())
		if perr != "" {
			fmt.Fprintln(v.out, perr)
			continue
		}

		var (
			st  game.Status
			err error
		)
		switch cmd {
		case "end":
			return nil
		case "reveal":
			st, err = g.Reveal(c, v)
		case "flag":
			st, err = g.ToggleFlag(c, v)
		}
		if err != nil {
			return err
		}
		v.ShowGrid()
		if st.Terminal() {
			return nil
		}
	}
}

// parse turns one input line into a command and coordinate. The second
// return is empty on success; otherwise it is the message to print
// before re-prompting.
func (v *View) parse(line string) (string, game.Coord, string) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return "", game.Coord{}, "incorrect selection or format"
	}
	switch {
	case strings.HasPrefix("end", fields[0]):
		return "end", game.Coord{}, ""
	case strings.HasPrefix("reveal", fields[0]), strings.HasPrefix("flag", fields[0]):
	default:
		return "", game.Coord{}, "unknown command " + fields[0]
	}
	if len(fields) != 3 {
		return "", game.Coord{}, "incorrect selection or format"
	}
	x, errX := strconv.Atoi(fields[1])
	y, errY := strconv.Atoi(fields[2])
	if errX != nil || errY != nil {
		return "", game.Coord{}, "incorrect selection or format"
	}
	c := game.Coord{X: x, Y: y}
	if !v.cfg.InBounds(c) {
		return "", game.Coord{}, fmt.Sprintf("cell (%d,%d) is off the board", x, y)
	}
	cmd := "reveal"
	if strings.HasPrefix("flag", fields[0]) {
		cmd = "flag"
	}
	return cmd, c, ""
}
