// internal/game/presenter.go
//
// Presenter is the outbound port the engine notifies as it mutates game
// state. Implementations render to a console grid, an HTTP event list,
// or anything else; the engine depends only on this interface.
// Notifications are delivered synchronously, in the order generated.

package game

// Presenter receives engine notifications.
type Presenter interface {
	// RevealCell shows the content of a cell: 0..8, or ValueMine
	// during the full-board broadcast after a loss.
	RevealCell(c Coord, v Value)

	// FlagCell / UnflagCell mirror flag toggles.
	FlagCell(c Coord)
	UnflagCell(c Coord)

	// MinesRemaining reports mines minus flags placed. Never called
	// with a negative count; over-flagging suppresses the update.
	MinesRemaining(n int)

	// GameWon / GameLost announce the terminal transitions. GameLost
	// precedes the full-board reveal broadcast.
	GameWon()
	GameLost()
}

// NopPresenter discards every notification. Useful when a caller only
// cares about the returned status.
var NopPresenter Presenter = nopPresenter{}

type nopPresenter struct{}

func (nopPresenter) RevealCell(Coord, Value) {}
func (nopPresenter) FlagCell(Coord)          {}
func (nopPresenter) UnflagCell(Coord)        {}
func (nopPresenter) MinesRemaining(int)      {}
func (nopPresenter) GameWon()                {}
func (nopPresenter) GameLost()               {}
