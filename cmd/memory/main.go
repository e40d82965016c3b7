// cmd/memory is a terminal client for the memory game.
//
// The round runs locally on the same engine as the server; winning times are
// posted to the scores service at SCORES_URL and the best times are fetched
// from it.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/config"
	"github.com/robalobadob/memory/internal/daily"
	"github.com/robalobadob/memory/internal/faces"
	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/scores"
)

func main() {
	dailyMode := flag.Bool("daily", false, "play today's shared board")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	// Round logs would interleave with the board.
	if zerolog.GlobalLevel() < zerolog.WarnLevel {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *dailyMode, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("memory")
	}
}

func run(ctx context.Context, cfg config.Config, dailyMode bool, in io.Reader, out io.Writer) error {
	pool, err := faces.Load(cfg.FacesFile)
	if err != nil {
		return err
	}
	out = &lockedWriter{w: out}
	client := scores.NewClient(cfg.ScoresURL, nil)

	opts := []game.Option{
		game.WithRenderer(newTermRenderer(out, pool)),
		game.WithScores(client),
	}
	if dailyMode {
		opts = append(opts, game.WithRand(daily.Rand(time.Now(), cfg.DailySalt)))
	}
	ctrl, err := game.NewController(game.Config{
		Rows:     cfg.BoardRows,
		Cols:     cfg.BoardCols,
		Pool:     pool.Count(),
		Duration: cfg.RoundSeconds,
	}, opts...)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := game.NewRunner(ctrl)
	go func() { _ = runner.Run(loopCtx) }()
	var bg sync.WaitGroup
	showBest := func() {
		bg.Add(1)
		go func() {
			defer bg.Done()
			printBest(ctx, client, out)
		}()
	}
	defer func() {
		cancel()
		<-runner.Done()
		ctrl.Wait() // let a pending score submission finish
		bg.Wait()
	}()

	showBest()

	fmt.Fprintln(out, "Find every pair before the clock runs out.")
	fmt.Fprintln(out, errBadInput.Error()+".")
	if _, err := runner.Start(ctx); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-loopCtx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		cmd, index, err := parseCommand(line, cfg.BoardCols)
		if err != nil {
			fmt.Fprintln(out, " ", err)
			continue
		}
		switch cmd {
		case cmdQuit:
			return nil
		case cmdHelp:
			fmt.Fprintln(out, " ", errBadInput)
		case cmdBest:
			showBest()
		case cmdNew:
			if _, err := runner.Start(ctx); err != nil {
				return err
			}
		case cmdClick:
			res, _, err := runner.Click(ctx, index)
			switch {
			case errors.Is(err, game.ErrNoSuchTile):
				fmt.Fprintf(out, "  no tile %d\n", index)
			case err != nil:
				return err
			case res.Ignored:
				fmt.Fprintln(out, "  that tile does not react")
			}
		}
	}
}

func printBest(ctx context.Context, client *scores.Client, out io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	best, err := client.Best(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("best times unavailable")
		return
	}
	if len(best) == 0 {
		fmt.Fprintln(out, "  no best times yet")
		return
	}
	fmt.Fprintln(out, "  Best times:")
	for i, r := range best {
		who := ""
		if r.Player != "" {
			who = " (" + r.Player + ")"
		}
		fmt.Fprintf(out, "  %2d. %3ds  %s%s\n", i+1, r.Time, r.Date, who)
	}
}
