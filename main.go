// main.go
//
// Memory game server.
// Responsibilities:
//   - Load configuration (.env + environment) and set up logging.
//   - Load the card faces and check the board fits them before serving.
//   - Open and migrate the database; pick the scores backend (SQL or Redis).
//   - Serve the API, websocket feed and browser client until SIGINT/SIGTERM,
//     sweeping idle game sessions in the background.

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/assets"
	"github.com/robalobadob/memory/internal/config"
	"github.com/robalobadob/memory/internal/database"
	"github.com/robalobadob/memory/internal/deck"
	"github.com/robalobadob/memory/internal/faces"
	"github.com/robalobadob/memory/internal/httpserver"
	"github.com/robalobadob/memory/internal/scores"
	"github.com/robalobadob/memory/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg)

	pool, err := faces.Load(cfg.FacesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load card faces")
	}
	if err := deck.Validate(cfg.BoardRows, cfg.BoardCols, pool.Count()); err != nil {
		log.Fatal().Err(err).Int("rows", cfg.BoardRows).Int("cols", cfg.BoardCols).Int("faces", pool.Count()).Msg("board does not fit")
	}
	if cfg.RoundSeconds <= 0 {
		log.Fatal().Int("seconds", cfg.RoundSeconds).Msg("ROUND_SECONDS must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	st, closeScores, err := openScores(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.ScoresBackend).Msg("open scores backend")
	}
	defer closeScores()

	sessions := store.NewMemoryStore()
	defer sessions.CloseAll()
	go sessions.Janitor(ctx, time.Minute, cfg.SessionTTL, func(n int) {
		log.Info().Int("closed", n).Msg("swept idle sessions")
	})

	srv := httpserver.New(httpserver.Deps{
		Config:   cfg,
		Scores:   st,
		DB:       db,
		Sessions: sessions,
		Faces:    pool,
		Static:   assets.Web(),
		BaseCtx:  ctx,
	})
	log.Info().
		Str("port", cfg.Port).
		Str("db", cfg.DBDriver).
		Str("scores", cfg.ScoresBackend).
		Int("rows", cfg.BoardRows).
		Int("cols", cfg.BoardCols).
		Int("seconds", cfg.RoundSeconds).
		Msg("starting memory server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// setupLogging applies LOG_LEVEL and uses console output outside production.
func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openScores returns the configured best-times backend and its cleanup.
func openScores(ctx context.Context, cfg config.Config, db *sql.DB) (scores.Store, func(), error) {
	if cfg.ScoresBackend != "redis" {
		return scores.NewSQLStore(db), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return scores.NewRedisStore(rdb, ""), func() { _ = rdb.Close() }, nil
}
