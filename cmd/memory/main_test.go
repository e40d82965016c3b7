package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/memory/internal/config"
	"github.com/robalobadob/memory/internal/daily"
	"github.com/robalobadob/memory/internal/deck"
	"github.com/robalobadob/memory/internal/faces"
	"github.com/robalobadob/memory/internal/game"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line  string
		cmd   command
		index int
		bad   bool
	}{
		{"5", cmdClick, 5, false},
		{"  12 ", cmdClick, 12, false},
		{"1 1", cmdClick, 0, false},
		{"2 3", cmdClick, 9, false},
		{"new", cmdNew, 0, false},
		{"Q", cmdQuit, 0, false},
		{"best", cmdBest, 0, false},
		{"?", cmdHelp, 0, false},
		{"", 0, 0, true},
		{"abc", 0, 0, true},
		{"0 1", 0, 0, true},
		{"1 8", 0, 0, true},
		{"1 2 3", 0, 0, true},
	}
	for _, tt := range tests {
		cmd, index, err := parseCommand(tt.line, 7)
		if tt.bad {
			if err == nil {
				t.Errorf("%q: expected error", tt.line)
			}
			continue
		}
		if err != nil || cmd != tt.cmd || index != tt.index {
			t.Errorf("%q = %v, %d, %v; want %v, %d", tt.line, cmd, index, err, tt.cmd, tt.index)
		}
	}
}

func TestTermRendererHidesCards(t *testing.T) {
	var buf bytes.Buffer
	r := newTermRenderer(&buf, faces.Default())
	one := 1
	r.Render(game.View{
		Rows: 1, Cols: 3, Duration: 60,
		Tiles: []game.TileView{
			{Index: 0, State: "hidden"},
			{Index: 1, State: "revealed", Card: &one},
			{Index: 2, State: "found", Card: &one},
		},
	})
	out := buf.String()
	label := faces.Default().Label(1)
	if !strings.Contains(out, "[0") || !strings.Contains(out, label) || !strings.Contains(out, strings.ToUpper(label)) {
		t.Fatalf("board = %q", out)
	}
}

func TestTermRendererThrottlesClock(t *testing.T) {
	var buf bytes.Buffer
	r := newTermRenderer(&buf, faces.Default())
	for s := 1; s <= 60; s++ {
		r.Progress(s, 60)
	}
	// 10, 20, 30, 40, then every second from 10s left.
	if got := strings.Count(buf.String(), "left"); got != 4+11 {
		t.Fatalf("printed %d clock lines:\n%s", got, buf.String())
	}
}

// fakeScores is a scores service recording posted times.
type fakeScores struct {
	mu    sync.Mutex
	times []string
}

func (f *fakeScores) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		_, _ = w.Write([]byte(`[{"time":7,"date":"01-05-2024 10:00:00"}]`))
	case http.MethodPost:
		_ = r.ParseForm()
		f.mu.Lock()
		f.times = append(f.times, r.PostFormValue("time"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}
}

func testConfig(url string) config.Config {
	cfg := config.Default()
	cfg.BoardRows, cfg.BoardCols = 2, 2
	cfg.ScoresURL = url
	cfg.DailySalt = "terminal-test"
	return cfg
}

func TestRunQuit(t *testing.T) {
	svc := &fakeScores{}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	var out bytes.Buffer
	if err := run(context.Background(), testConfig(ts.URL), false, strings.NewReader("quit\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "found 0/4") {
		t.Fatalf("no board drawn:\n%s", out.String())
	}
}

func TestRunDailyWinPostsTime(t *testing.T) {
	svc := &fakeScores{}
	ts := httptest.NewServer(svc)
	defer ts.Close()
	cfg := testConfig(ts.URL)

	// The daily board is reproducible, so the test can deal it too.
	cards, err := deck.New(2, faces.Default().Count(), daily.Rand(time.Now(), cfg.DailySalt))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int]int{}
	var input strings.Builder
	for i, c := range cards {
		if j, ok := seen[c]; ok {
			fmt.Fprintf(&input, "%d\n%d\n", j, i)
			continue
		}
		seen[c] = i
	}
	input.WriteString("quit\n")

	var out bytes.Buffer
	if err := run(context.Background(), cfg, true, strings.NewReader(input.String()), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "You won") {
		t.Fatalf("no win:\n%s", out.String())
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.times) != 1 {
		t.Fatalf("posted times = %v", svc.times)
	}
}
