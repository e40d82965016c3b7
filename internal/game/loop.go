// internal/game/loop.go
//
// Runner is the event loop for one controller.
// A single goroutine receives clicks, replays and timer ticks and applies
// them one at a time, so round state is never touched concurrently and no
// lock is needed around it.
package game

import (
	"context"
	"errors"
)

// ErrStopped is returned when the runner's loop has exited.
var ErrStopped = errors.New("runner stopped")

// Runner serializes access to a Controller.
type Runner struct {
	ctrl *Controller
	ops  chan func()
	done chan struct{}
}

// NewRunner wraps c. Call Run to start the loop.
func NewRunner(c *Controller) *Runner {
	return &Runner{ctrl: c, ops: make(chan func()), done: make(chan struct{})}
}

// Run processes operations and ticks until ctx is cancelled.
// The controller's clock is stopped on exit.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.ctrl.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case op := <-r.ops:
			op()
		case <-r.ctrl.Ticks():
			r.ctrl.Tick()
		}
	}
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Do runs fn on the loop goroutine and waits for it to finish.
func (r *Runner) Do(ctx context.Context, fn func(c *Controller)) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn(r.ctrl)
	}
	select {
	case r.ops <- op:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Start deals a new round (also used for replay).
func (r *Runner) Start(ctx context.Context) (View, error) {
	var (
		v   View
		err error
	)
	if doErr := r.Do(ctx, func(c *Controller) {
		err = c.Start()
		v = c.View()
	}); doErr != nil {
		return View{}, doErr
	}
	return v, err
}

// Click applies a click and returns its effect with the resulting board.
func (r *Runner) Click(ctx context.Context, i int) (ClickResult, View, error) {
	var (
		res ClickResult
		v   View
		err error
	)
	if doErr := r.Do(ctx, func(c *Controller) {
		res, err = c.Click(i)
		v = c.View()
	}); doErr != nil {
		return ClickResult{}, View{}, doErr
	}
	return res, v, err
}

// View snapshots the board.
func (r *Runner) View(ctx context.Context) (View, error) {
	var v View
	err := r.Do(ctx, func(c *Controller) { v = c.View() })
	return v, err
}
