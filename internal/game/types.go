// internal/game/types.go
//
// Core type definitions for the memory game engine.
// Defines:
//   - TileState: per-tile visibility (hidden/revealed/found).
//   - Tile: one board position bound to a card identifier.
//   - Phase: controller lifecycle (idle/running/ended).
//   - Outcome: how a round ended.

package game

// TileState is the visibility of a single tile.
type TileState int

const (
	Hidden TileState = iota
	Revealed
	Found
)

func (s TileState) String() string {
	switch s {
	case Revealed:
		return "revealed"
	case Found:
		return "found"
	default:
		return "hidden"
	}
}

// Tile is one board slot. Tiles are created fresh for every round.
type Tile struct {
	Index int       // Position on the board (row-major).
	Card  int       // Card identifier; appears on exactly two tiles.
	State TileState // Current visibility.
}

// Phase is the controller lifecycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseEnded   Phase = "ended"
)

// Outcome reports how a round ended.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "won"
	OutcomeLoss Outcome = "lost"
)
