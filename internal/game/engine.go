// internal/game/engine.go
//
// Match engine for a single memory round.
// Responsibilities:
//   - Build the round's tiles from a dealt deck.
//   - Apply clicks: hide a pending mismatched pair, reveal, detect matches.
//   - Track the clickable set so found tiles stop reacting.
//
// State transitions per tile:
//   hidden → revealed → found (terminal)
//   revealed → hidden (when a third click clears a mismatched pair)
//
// Notes:
//   - Matching compares tile identity first, so one tile clicked twice in a
//     row never matches itself. Such a second click still counts as the
//     second reveal; the next click hides it again.
//   - Round is not safe for concurrent use; the Runner serializes access.
package game

import (
	"errors"
	"fmt"
)

// ErrNoSuchTile is returned for a click outside the board.
var ErrNoSuchTile = errors.New("no such tile")

// Round is the transient state of one playthrough.
type Round struct {
	ID      string
	Rows    int
	Cols    int
	Tiles   []*Tile
	Found   int // tiles in the found state
	Elapsed int // seconds, advanced by the timer

	revealed  int   // revealed tiles in the current pair attempt, 0..2
	last      *Tile // last revealed tile, nil after a reset
	clickable map[int]struct{}
}

// ClickResult describes the effect of one click.
type ClickResult struct {
	Index    int   `json:"index"`
	Ignored  bool  `json:"ignored,omitempty"`  // tile was not clickable
	Hidden   []int `json:"hidden,omitempty"`   // tiles turned back before revealing
	Card     *int  `json:"card,omitempty"`     // card under the clicked tile, when face up
	Matched  []int `json:"matched,omitempty"`  // tiles that became found
	Complete bool  `json:"complete,omitempty"` // every tile is found
}

// newRound lays out cards row by row and makes every tile clickable.
func newRound(id string, rows, cols int, cards []int) *Round {
	r := &Round{
		ID:        id,
		Rows:      rows,
		Cols:      cols,
		Tiles:     make([]*Tile, len(cards)),
		clickable: make(map[int]struct{}, len(cards)),
	}
	for i, c := range cards {
		r.Tiles[i] = &Tile{Index: i, Card: c, State: Hidden}
		r.clickable[i] = struct{}{}
	}
	return r
}

// Total is the number of cases on the board.
func (r *Round) Total() int { return len(r.Tiles) }

// Clickable reports whether a click on tile i would have any effect.
func (r *Round) Clickable(i int) bool {
	_, ok := r.clickable[i]
	return ok
}

// detach removes a tile from the clickable set.
func (r *Round) detach(i int) { delete(r.clickable, i) }

// detachAll leaves no tile clickable; used when the round ends.
func (r *Round) detachAll() { r.clickable = map[int]struct{}{} }

// Click applies a click on tile i.
func (r *Round) Click(i int) (ClickResult, error) {
	if i < 0 || i >= len(r.Tiles) {
		return ClickResult{Index: i}, fmt.Errorf("tile %d: %w", i, ErrNoSuchTile)
	}
	t := r.Tiles[i]
	res := ClickResult{Index: i}
	if !r.Clickable(i) {
		res.Ignored = true
		if t.State != Hidden {
			card := t.Card
			res.Card = &card
		}
		return res, nil
	}

	// A completed pair attempt is cleared before the new click is processed.
	if r.revealed == 2 {
		for _, o := range r.Tiles {
			if o.State == Revealed {
				o.State = Hidden
				res.Hidden = append(res.Hidden, o.Index)
			}
		}
		r.revealed = 0
		r.last = nil
	}

	t.State = Revealed
	card := t.Card
	res.Card = &card

	if r.last != nil && r.last != t && r.last.Card == t.Card {
		t.State, r.last.State = Found, Found
		r.detach(t.Index)
		r.detach(r.last.Index)
		r.Found += 2
		res.Matched = []int{r.last.Index, t.Index}
		res.Complete = r.Found == len(r.Tiles)
	}

	r.last = t
	r.revealed++
	return res, nil
}
