package game

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunnerTicksDriveLoss(t *testing.T) {
	c, clock, rec, _ := newTestController(t, Config{Rows: 2, Cols: 2, Pool: 18, Duration: 3})
	r := NewRunner(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	v, err := r.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Phase != PhaseRunning || len(v.Tiles) != 4 {
		t.Fatalf("view = %+v", v)
	}

	tk := clock.last()
	for i := 0; i < 3; i++ {
		select {
		case tk.ch <- time.Now():
		case <-time.After(time.Second):
			t.Fatalf("tick %d not consumed", i+1)
		}
	}

	v, err = r.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Outcome != OutcomeLoss || v.Elapsed != 3 {
		t.Fatalf("view = %+v", v)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.outcomes) != 1 {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestRunnerClickAndWin(t *testing.T) {
	c, _, _, sc := newTestController(t, Config{Rows: 2, Cols: 2, Pool: 18, Duration: 60})
	r := NewRunner(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	if _, err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	var ps [][2]int
	if err := r.Do(ctx, func(c *Controller) { ps = pairs(c.Round()) }); err != nil {
		t.Fatal(err)
	}

	var last View
	for _, p := range ps {
		for _, i := range p {
			_, v, err := r.Click(ctx, i)
			if err != nil {
				t.Fatal(err)
			}
			last = v
		}
	}
	if last.Outcome != OutcomeWin || last.Found != 4 {
		t.Fatalf("view = %+v", last)
	}
	c.Wait()
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.times) != 1 || sc.times[0] != 0 {
		t.Fatalf("times = %v", sc.times)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	c, clock, _, _ := newTestController(t, Config{Rows: 2, Cols: 2, Pool: 18, Duration: 60})
	r := NewRunner(c)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	if _, err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	if !clock.last().stopped.Load() {
		t.Error("clock still running after shutdown")
	}
	if err := r.Do(context.Background(), func(*Controller) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("Do after stop = %v", err)
	}
}

func TestFeedBroadcast(t *testing.T) {
	f := NewFeed()
	a, leaveA := f.Subscribe(4)
	b, leaveB := f.Subscribe(1)
	defer leaveA()

	f.Render(View{ID: "x", Elapsed: 1, Duration: 9})
	f.Progress(2, 9)
	f.Outcome(OutcomeWin, 2)

	want := []string{"render", "progress", "outcome"}
	for _, typ := range want {
		e := <-a
		if e.Type != typ {
			t.Fatalf("got %s, want %s", e.Type, typ)
		}
	}
	// b only had room for the first event.
	if e := <-b; e.Type != "render" || e.View.ID != "x" {
		t.Fatalf("b got %+v", e)
	}
	leaveB()
	leaveB()
	if _, ok := <-b; ok {
		t.Fatal("b should be closed")
	}
}

func TestRenderersFanOut(t *testing.T) {
	r1, r2 := &recorder{}, &recorder{}
	r := Renderers(r1, r2)
	r.Render(View{})
	r.Progress(1, 2)
	r.Outcome(OutcomeLoss, 2)
	for _, rec := range []*recorder{r1, r2} {
		if rec.renders != 1 || len(rec.progress) != 1 || len(rec.outcomes) != 1 {
			t.Fatalf("recorder = %+v", rec)
		}
	}
}
