package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/robalobadob/memory/internal/faces"
	"github.com/robalobadob/memory/internal/game"
)

// termRenderer draws the board as a text grid.
// Hidden tiles show their index so the player knows what to type.
type termRenderer struct {
	mu    sync.Mutex
	out   io.Writer
	faces *faces.Pool
	every int // print the clock every N seconds, and each of the last N
}

func newTermRenderer(out io.Writer, pool *faces.Pool) *termRenderer {
	return &termRenderer{out: out, faces: pool, every: 10}
}

func (t *termRenderer) Render(v game.View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	width := 0
	for _, tv := range v.Tiles {
		if n := len(t.cell(tv)); n > width {
			width = n
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n  found %d/%d   time %ds/%ds\n", v.Found, len(v.Tiles), v.Elapsed, v.Duration)
	for r := 0; r < v.Rows; r++ {
		b.WriteString("  ")
		for c := 0; c < v.Cols; c++ {
			fmt.Fprintf(&b, "[%-*s]", width, t.cell(v.Tiles[r*v.Cols+c]))
		}
		b.WriteByte('\n')
	}
	_, _ = io.WriteString(t.out, b.String())
}

func (t *termRenderer) cell(tv game.TileView) string {
	switch {
	case tv.Card == nil:
		return fmt.Sprintf("%d", tv.Index)
	case tv.State == "found":
		return strings.ToUpper(t.faces.Label(*tv.Card))
	default:
		return t.faces.Label(*tv.Card)
	}
}

func (t *termRenderer) Progress(elapsed, duration int) {
	left := duration - elapsed
	if elapsed%t.every != 0 && left > t.every {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	const barWidth = 30
	filled := elapsed * barWidth / duration
	fmt.Fprintf(t.out, "  [%s%s] %ds left\n",
		strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), left)
}

func (t *termRenderer) Outcome(o game.Outcome, elapsed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if o == game.OutcomeWin {
		fmt.Fprintf(t.out, "\n  You won in %d seconds!\n", elapsed)
	} else {
		fmt.Fprintf(t.out, "\n  Time is up, you lost.\n")
	}
	fmt.Fprintln(t.out, "  Type 'new' to play again or 'quit' to leave.")
}

// lockedWriter serializes writes from the event loop and the input loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
