// internal/game/controller.go
//
// Round orchestration: idle → running → ended.
// Responsibilities:
//   - Validate the board against the face pool at construction.
//   - Start a round: deal a deck, lay out tiles, render, start the clock.
//   - Route clicks to the match engine and ticks to the timer.
//   - End a round exactly once, win or loss, and persist winning times.
//
// Notes:
//   - Not safe for concurrent use. Clicks and ticks must arrive serially;
//     Runner provides that loop.
//   - A win stops the timer inside Click, before control returns to the
//     loop, so a pending tick can never turn a win into a loss.
//   - Winning times are written in a background goroutine. Failures are
//     logged and never touch round state.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/deck"
)

var (
	// ErrBadConfig wraps invalid board or duration settings.
	ErrBadConfig = errors.New("invalid game config")
	// ErrNotStarted is returned for clicks before the first round.
	ErrNotStarted = errors.New("round not started")
)

const saveTimeout = 5 * time.Second

// Config sizes a board and its clock.
type Config struct {
	Rows     int // board rows
	Cols     int // board columns; Rows*Cols must be even
	Pool     int // distinct card faces available
	Duration int // round limit in seconds
}

// Scores persists winning times. Implementations may be slow or fail;
// the controller never waits on them.
type Scores interface {
	RecordTime(ctx context.Context, seconds int) error
}

// ScoresFunc adapts a function to Scores.
type ScoresFunc func(ctx context.Context, seconds int) error

func (f ScoresFunc) RecordTime(ctx context.Context, seconds int) error { return f(ctx, seconds) }

// Option customizes a Controller.
type Option func(*Controller)

// WithRand sets the deck randomness (e.g. a daily seed).
func WithRand(rng *rand.Rand) Option { return func(c *Controller) { c.rng = rng } }

// WithTicker replaces the real one-second ticker.
func WithTicker(f TickerFunc) Option { return func(c *Controller) { c.newTicker = f } }

// WithRenderer sets the board renderer.
func WithRenderer(r Renderer) Option { return func(c *Controller) { c.renderer = r } }

// WithScores sets where winning times are recorded.
func WithScores(s Scores) Option { return func(c *Controller) { c.scores = s } }

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Controller) { c.log = l } }

// Controller owns the live round.
type Controller struct {
	cfg       Config
	rng       *rand.Rand
	newTicker TickerFunc
	renderer  Renderer
	scores    Scores
	log       zerolog.Logger

	timer   *Timer
	round   *Round
	phase   Phase
	outcome Outcome
	saves   sync.WaitGroup
}

// NewController validates cfg and returns an idle controller.
func NewController(cfg Config, opts ...Option) (*Controller, error) {
	if err := deck.Validate(cfg.Rows, cfg.Cols, cfg.Pool); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrBadConfig, cfg.Duration)
	}
	c := &Controller{
		cfg:      cfg,
		renderer: NopRenderer{},
		log:      log.Logger,
		phase:    PhaseIdle,
	}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.timer = NewTimer(cfg.Duration, c.newTicker)
	return c, nil
}

// Start discards any current round and deals a new one.
func (c *Controller) Start() error {
	c.timer.Stop()

	cards, err := deck.New(c.cfg.Rows*c.cfg.Cols/2, c.cfg.Pool, c.rng)
	if err != nil {
		return fmt.Errorf("deal: %w", err)
	}
	c.round = newRound(uuid.NewString(), c.cfg.Rows, c.cfg.Cols, cards)
	c.phase = PhaseRunning
	c.outcome = OutcomeNone

	c.renderer.Render(c.View())
	c.timer.Start()
	c.log.Debug().Str("round", c.round.ID).Int("cases", c.round.Total()).Msg("round started")
	return nil
}

// Click applies a player click on tile i.
func (c *Controller) Click(i int) (ClickResult, error) {
	if c.round == nil {
		return ClickResult{Index: i}, ErrNotStarted
	}
	res, err := c.round.Click(i)
	if err != nil || res.Ignored {
		return res, err
	}
	if res.Complete {
		c.end(OutcomeWin)
	}
	c.renderer.Render(c.View())
	if res.Complete {
		c.renderer.Outcome(OutcomeWin, c.round.Elapsed)
	}
	return res, nil
}

// Tick advances the clock by one second. Ticks outside a running round are ignored.
func (c *Controller) Tick() {
	if c.phase != PhaseRunning {
		return
	}
	expired := c.timer.Tick()
	c.round.Elapsed = c.timer.Elapsed()
	c.renderer.Progress(c.round.Elapsed, c.cfg.Duration)
	if expired {
		c.end(OutcomeLoss)
		c.renderer.Outcome(OutcomeLoss, c.round.Elapsed)
	}
}

// end stops the clock, detaches every tile and persists a win.
func (c *Controller) end(o Outcome) {
	if c.phase != PhaseRunning {
		return
	}
	c.timer.Stop()
	c.round.detachAll()
	c.phase = PhaseEnded
	c.outcome = o
	c.log.Info().Str("round", c.round.ID).Str("outcome", string(o)).Int("elapsed", c.round.Elapsed).Msg("round ended")

	if o == OutcomeWin && c.scores != nil {
		c.save(c.round.ID, c.round.Elapsed)
	}
}

// save records a winning time without blocking the round.
func (c *Controller) save(roundID string, seconds int) {
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := c.scores.RecordTime(ctx, seconds); err != nil {
			c.log.Warn().Err(err).Str("round", roundID).Int("time", seconds).Msg("record time")
		}
	}()
}

// Close stops the clock and detaches every tile. The controller can be restarted.
func (c *Controller) Close() {
	c.timer.Stop()
	if c.round != nil {
		c.round.detachAll()
	}
	if c.phase == PhaseRunning {
		c.phase = PhaseEnded
	}
}

// Wait blocks until background score writes have finished.
func (c *Controller) Wait() { c.saves.Wait() }

// Ticks delivers clock ticks while a round is running.
func (c *Controller) Ticks() <-chan time.Time { return c.timer.C() }

// Phase is the current lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Outcome is how the last round ended, if it has.
func (c *Controller) Outcome() Outcome { return c.outcome }

// Round is the live round, nil before the first Start.
func (c *Controller) Round() *Round { return c.round }

// TimerRunning reports whether the clock is ticking.
func (c *Controller) TimerRunning() bool { return c.timer.Running() }

// View snapshots the board for renderers and API responses.
func (c *Controller) View() View {
	v := View{
		Rows:     c.cfg.Rows,
		Cols:     c.cfg.Cols,
		Duration: c.cfg.Duration,
		Phase:    c.phase,
		Outcome:  c.outcome,
		Tiles:    []TileView{},
	}
	if c.round != nil {
		v.ID = c.round.ID
		v.Tiles = BuildTileViews(c.round)
		v.Found = c.round.Found
		v.Elapsed = c.round.Elapsed
	}
	return v
}
