// internal/game/timer.go
//
// Round clock: a one-second ticker bounded by the round duration.
//
// The Timer only counts; the controller decides what a tick means. Ticks are
// delivered through C() so the event loop can select on them alongside
// clicks. After Stop, C() returns nil and a select on it blocks forever,
// which keeps a tick buffered in a stopped ticker from ever being handled.
package game

import "time"

// Ticker is the clock source behind a Timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop() { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

// Timer counts elapsed seconds up to a fixed duration.
type Timer struct {
	duration  int
	elapsed   int
	newTicker TickerFunc
	ticker    Ticker
}

// NewTimer returns a stopped timer for a round of duration seconds.
func NewTimer(duration int, newTicker TickerFunc) *Timer {
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	return &Timer{duration: duration, newTicker: newTicker}
}

// Start resets the count and begins ticking, replacing any running ticker.
func (t *Timer) Start() {
	t.Stop()
	t.elapsed = 0
	t.ticker = t.newTicker(time.Second)
}

// Stop halts the ticker. Stopping a stopped timer is a no-op.
func (t *Timer) Stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

// Running reports whether the ticker is active.
func (t *Timer) Running() bool { return t.ticker != nil }

// C delivers ticks while running and is nil otherwise.
func (t *Timer) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C()
}

// Tick advances one second and reports whether the duration was just reached.
func (t *Timer) Tick() (expired bool) {
	t.elapsed++
	return t.elapsed == t.duration
}

// Elapsed is the number of seconds counted since Start.
func (t *Timer) Elapsed() int { return t.elapsed }

// Duration is the round limit in seconds.
func (t *Timer) Duration() int { return t.duration }
