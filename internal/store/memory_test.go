package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/memory/internal/game"
)

func newSession(t *testing.T, id string) *Session {
	t.Helper()
	c, err := game.NewController(game.Config{Rows: 2, Cols: 2, Pool: 18, Duration: 60}, game.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	return NewSession(context.Background(), id, "", game.NewRunner(c), game.NewFeed())
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := newSession(t, "a")
	if err := m.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := m.Get(ctx, "a")
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := got.Runner.Start(ctx); err != nil {
		t.Fatalf("runner not running: %v", err)
	}

	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-s.Runner.Done():
	case <-time.After(time.Second):
		t.Fatal("runner still running after delete")
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v", err)
	}
	if err := m.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	old, fresh := newSession(t, "old"), newSession(t, "fresh")
	_ = m.Save(ctx, old)
	_ = m.Save(ctx, fresh)

	old.mu.Lock()
	old.lastSeen = time.Now().Add(-time.Hour)
	old.mu.Unlock()

	if n := m.Sweep(10 * time.Minute); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}
	if _, err := m.Get(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}
	m.CloseAll()
	if m.Len() != 0 {
		t.Fatal("CloseAll left sessions behind")
	}
}
