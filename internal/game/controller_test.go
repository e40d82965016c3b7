package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeClock struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (c *fakeClock) new(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTicker{ch: make(chan time.Time)}
	c.all = append(c.all, ft)
	return ft
}

func (c *fakeClock) last() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all[len(c.all)-1]
}

type recorder struct {
	NopRenderer
	mu       sync.Mutex
	renders  int
	progress []int
	outcomes []Outcome
}

func (r *recorder) Render(View) {
	r.mu.Lock()
	r.renders++
	r.mu.Unlock()
}

func (r *recorder) Progress(elapsed, _ int) {
	r.mu.Lock()
	r.progress = append(r.progress, elapsed)
	r.mu.Unlock()
}

func (r *recorder) Outcome(o Outcome, _ int) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

type fakeScores struct {
	mu    sync.Mutex
	times []int
	err   error
}

func (f *fakeScores) RecordTime(_ context.Context, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.times = append(f.times, seconds)
	return nil
}

func newTestController(t *testing.T, cfg Config) (*Controller, *fakeClock, *recorder, *fakeScores) {
	t.Helper()
	clock := &fakeClock{}
	rec := &recorder{}
	sc := &fakeScores{}
	c, err := NewController(cfg,
		WithRand(rand.New(rand.NewSource(1))),
		WithTicker(clock.new),
		WithRenderer(rec),
		WithScores(sc),
		WithLogger(zerolog.Nop()),
	)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, clock, rec, sc
}

// pairs groups tile indexes by card.
func pairs(r *Round) [][2]int {
	byCard := map[int][]int{}
	var order []int
	for _, t := range r.Tiles {
		if _, ok := byCard[t.Card]; !ok {
			order = append(order, t.Card)
		}
		byCard[t.Card] = append(byCard[t.Card], t.Index)
	}
	out := make([][2]int, 0, len(order))
	for _, c := range order {
		out = append(out, [2]int{byCard[c][0], byCard[c][1]})
	}
	return out
}

func TestNewControllerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"odd board", Config{Rows: 3, Cols: 3, Pool: 18, Duration: 120}},
		{"pool too small", Config{Rows: 4, Cols: 7, Pool: 13, Duration: 120}},
		{"zero duration", Config{Rows: 4, Cols: 4, Pool: 18, Duration: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewController(tt.cfg); !errors.Is(err, ErrBadConfig) {
				t.Fatalf("expected ErrBadConfig, got %v", err)
			}
		})
	}
}

func TestClickBeforeStart(t *testing.T) {
	c, _, _, _ := newTestController(t, Config{Rows: 2, Cols: 2, Pool: 2, Duration: 10})
	if _, err := c.Click(0); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if c.Phase() != PhaseIdle {
		t.Fatalf("phase = %s", c.Phase())
	}
}

func TestStartDealsFourByFour(t *testing.T) {
	c, _, rec, _ := newTestController(t, Config{Rows: 4, Cols: 4, Pool: 18, Duration: 120})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	r := c.Round()
	if r.Total() != 16 {
		t.Fatalf("total = %d", r.Total())
	}
	if len(pairs(r)) != 8 {
		t.Fatalf("expected 8 pairs, got %d", len(pairs(r)))
	}
	if c.Phase() != PhaseRunning || !c.TimerRunning() {
		t.Fatal("round should be running with the clock ticking")
	}
	if rec.renders != 1 {
		t.Errorf("renders = %d, want 1", rec.renders)
	}
}

func TestWinTriggersOnceAndStopsTimer(t *testing.T) {
	c, clock, rec, sc := newTestController(t, Config{Rows: 2, Cols: 4, Pool: 18, Duration: 120})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	c.Tick()
	c.Tick()
	c.Tick()

	for _, p := range pairs(c.Round()) {
		c.Click(p[0])
		c.Click(p[1])
	}

	if c.Outcome() != OutcomeWin || c.Phase() != PhaseEnded {
		t.Fatalf("outcome=%q phase=%s", c.Outcome(), c.Phase())
	}
	if c.TimerRunning() || !clock.last().stopped.Load() {
		t.Fatal("timer must be stopped by the winning click")
	}
	if c.Ticks() != nil {
		t.Fatal("no ticks may be delivered after a win")
	}

	// Late ticks and clicks have no effect.
	for i := 0; i < 200; i++ {
		c.Tick()
	}
	res, _ := c.Click(0)
	if !res.Ignored {
		t.Error("clicks after the round ended should be ignored")
	}

	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeWin {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
	if len(rec.progress) != 3 {
		t.Errorf("progress calls = %d, want 3", len(rec.progress))
	}

	c.Wait()
	if len(sc.times) != 1 || sc.times[0] != 3 {
		t.Fatalf("recorded times = %v, want [3]", sc.times)
	}
}

func TestLossAfterDuration(t *testing.T) {
	c, _, rec, sc := newTestController(t, Config{Rows: 4, Cols: 4, Pool: 18, Duration: 120})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 119; i++ {
		c.Tick()
	}
	if c.Phase() != PhaseRunning {
		t.Fatal("round ended early")
	}
	c.Tick()
	if c.Outcome() != OutcomeLoss || c.TimerRunning() {
		t.Fatalf("outcome=%q running=%v", c.Outcome(), c.TimerRunning())
	}
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeLoss {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
	if len(rec.progress) != 120 || rec.progress[119] != 120 {
		t.Fatalf("progress = %d calls", len(rec.progress))
	}
	if res, _ := c.Click(0); !res.Ignored {
		t.Error("tiles must be detached after a loss")
	}
	c.Wait()
	if len(sc.times) != 0 {
		t.Errorf("a loss must not be recorded, got %v", sc.times)
	}
}

func TestWinAtLastSecondBeatsTimeout(t *testing.T) {
	c, _, rec, _ := newTestController(t, Config{Rows: 1, Cols: 2, Pool: 18, Duration: 2})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	c.Tick()
	c.Click(0)
	c.Click(1)
	c.Tick() // would have expired the round

	if c.Outcome() != OutcomeWin {
		t.Fatalf("outcome = %q", c.Outcome())
	}
	if len(rec.outcomes) != 1 {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestScoreFailureDoesNotAffectRound(t *testing.T) {
	c, _, rec, sc := newTestController(t, Config{Rows: 1, Cols: 2, Pool: 18, Duration: 10})
	sc.err = errors.New("network down")
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	c.Click(0)
	c.Click(1)
	c.Wait()
	if c.Outcome() != OutcomeWin || len(rec.outcomes) != 1 {
		t.Fatalf("outcome=%q outcomes=%v", c.Outcome(), rec.outcomes)
	}
}

func TestReplayResetsRound(t *testing.T) {
	c, clock, _, _ := newTestController(t, Config{Rows: 2, Cols: 2, Pool: 18, Duration: 5})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	first := clock.last()
	firstID := c.Round().ID
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	if c.Outcome() != OutcomeLoss {
		t.Fatal("expected loss")
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if !first.stopped.Load() {
		t.Error("previous ticker still running")
	}
	if clock.last() == first {
		t.Error("replay should start a fresh ticker")
	}
	v := c.View()
	if v.ID == firstID || v.Elapsed != 0 || v.Found != 0 || v.Phase != PhaseRunning || v.Outcome != OutcomeNone {
		t.Fatalf("view not reset: %+v", v)
	}
	for _, tv := range v.Tiles {
		if tv.State != "hidden" || tv.Card != nil {
			t.Fatalf("tile not fresh: %+v", tv)
		}
	}
}

func TestTimerStopIdempotent(t *testing.T) {
	clock := &fakeClock{}
	tm := NewTimer(3, clock.new)
	tm.Stop()
	tm.Start()
	tm.Stop()
	tm.Stop()
	if tm.Running() || tm.C() != nil {
		t.Fatal("stopped timer still running")
	}
	if !clock.last().stopped.Load() {
		t.Fatal("ticker not stopped")
	}
}

func TestTimerExpiresOnce(t *testing.T) {
	tm := NewTimer(3, (&fakeClock{}).new)
	tm.Start()
	got := []bool{tm.Tick(), tm.Tick(), tm.Tick(), tm.Tick()}
	want := []bool{false, false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tick %d expired=%v", i+1, got[i])
		}
	}
}
