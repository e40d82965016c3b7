// internal/game/renderer.go
//
// Board renderer boundary.
// The engine never draws anything itself; it reports to a Renderer:
//   - Render:   the whole board after a round starts and after each click.
//   - Progress: elapsed/duration after each timer tick.
//   - Outcome:  once, when the round ends.
//
// Views never expose the card under a hidden tile.
package game

import "sync"

// TileView is the client-facing representation of a tile.
// Card is only present once the tile is revealed or found.
type TileView struct {
	Index int    `json:"index"`
	State string `json:"state"`
	Card  *int   `json:"card,omitempty"`
}

// View is a snapshot of the board.
type View struct {
	ID       string     `json:"id"`
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	Tiles    []TileView `json:"tiles"`
	Found    int        `json:"found"`
	Elapsed  int        `json:"elapsed"`
	Duration int        `json:"duration"`
	Phase    Phase      `json:"phase"`
	Outcome  Outcome    `json:"outcome,omitempty"`
}

// BuildTileViews constructs the client-facing tile list.
func BuildTileViews(r *Round) []TileView {
	views := make([]TileView, len(r.Tiles))
	for i, t := range r.Tiles {
		tv := TileView{Index: t.Index, State: t.State.String()}
		if t.State == Revealed || t.State == Found {
			card := t.Card
			tv.Card = &card
		}
		views[i] = tv
	}
	return views
}

// Renderer receives board updates from the controller.
// Calls happen on the event loop and must not block.
type Renderer interface {
	Render(v View)
	Progress(elapsed, duration int)
	Outcome(o Outcome, elapsed int)
}

// NopRenderer ignores every update. Embed it to implement part of Renderer.
type NopRenderer struct{}

func (NopRenderer) Render(View) {}
func (NopRenderer) Progress(int, int) {}
func (NopRenderer) Outcome(Outcome, int) {}

type multiRenderer []Renderer

// Renderers fans every update out to rs in order.
func Renderers(rs ...Renderer) Renderer { return multiRenderer(rs) }

func (m multiRenderer) Render(v View) {
	for _, r := range m {
		r.Render(v)
	}
}

func (m multiRenderer) Progress(elapsed, duration int) {
	for _, r := range m {
		r.Progress(elapsed, duration)
	}
}

func (m multiRenderer) Outcome(o Outcome, elapsed int) {
	for _, r := range m {
		r.Outcome(o, elapsed)
	}
}

// Event is one renderer update, as streamed to remote boards.
type Event struct {
	Type     string  `json:"type"` // render | progress | outcome
	View     *View   `json:"view,omitempty"`
	Elapsed  int     `json:"elapsed"`
	Duration int     `json:"duration,omitempty"`
	Outcome  Outcome `json:"outcome,omitempty"`
}

// Feed is a Renderer that broadcasts events to subscribers.
// Slow subscribers miss events rather than stalling the round.
type Feed struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a buffered channel; call the returned func to leave.
func (f *Feed) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
}

// Close drops every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
}

func (f *Feed) publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (f *Feed) Render(v View) {
	f.publish(Event{Type: "render", View: &v, Elapsed: v.Elapsed, Duration: v.Duration})
}

func (f *Feed) Progress(elapsed, duration int) {
	f.publish(Event{Type: "progress", Elapsed: elapsed, Duration: duration})
}

func (f *Feed) Outcome(o Outcome, elapsed int) {
	f.publish(Event{Type: "outcome", Outcome: o, Elapsed: elapsed})
}
