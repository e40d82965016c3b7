// internal/httpserver/routes_game.go
//
// Browser game sessions.
//   - POST /game/new     {mode?}           → {gameId, faces, view}; mode "daily" deals today's shared board
//   - POST /game/click   {gameId, index}   → {result, view}
//   - POST /game/replay  {gameId}          → {gameId, view}
//   - GET  /game/{id}                      → view
//   - GET  /game/{id}/ws                   → websocket stream of render/progress/outcome events
//
// Each session owns a game.Runner whose loop applies clicks and timer ticks
// in order. Winning times go to the scores store attributed to the session
// owner; logged-in players also get their stats bumped on every outcome.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/daily"
	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/scores"
	"github.com/robalobadob/memory/internal/store"
)

const (
	feedBuffer   = 32
	wsWriteWait  = 5 * time.Second
	statsTimeout = 5 * time.Second
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Post("/game/click", s.handleClick)
	r.Post("/game/replay", s.handleReplay)
	r.Get("/game/{id}", s.handleGetGame)
}

type newGameReq struct {
	Mode string `json:"mode"` // "" | "daily"
}

type newGameRes struct {
	GameID string    `json:"gameId"`
	Faces  []string  `json:"faces"` // label per card id
	View   game.View `json:"view"`
}

type clickReq struct {
	GameID string `json:"gameId"`
	Index  int    `json:"index"`
}

type clickRes struct {
	Result game.ClickResult `json:"result"`
	View   game.View        `json:"view"`
}

type replayReq struct {
	GameID string `json:"gameId"`
}

type replayRes struct {
	GameID string    `json:"gameId"`
	View   game.View `json:"view"`
}

// handleNewGame builds a controller for the caller, starts its loop and deals
// the first round.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body means a random board

	id := uuid.NewString()
	me := userFrom(r)
	logger := log.With().Str("session", id).Logger()

	feed := game.NewFeed()
	var renderer game.Renderer = feed
	userID := ""
	if me != nil {
		userID = me.ID
		renderer = game.Renderers(feed, &statsRenderer{srv: s, userID: me.ID, log: logger})
	}
	opts := []game.Option{
		game.WithRenderer(renderer),
		game.WithScores(scores.Recorder(s.scores, player(r))),
		game.WithLogger(logger),
	}
	if req.Mode == "daily" {
		opts = append(opts, game.WithRand(daily.Rand(time.Now(), s.cfg.DailySalt)))
	}

	ctrl, err := game.NewController(s.gameConfig(), opts...)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("new controller")
		writeError(w, http.StatusInternalServerError, "bad_config")
		return
	}
	sess := store.NewSession(s.base, id, userID, game.NewRunner(ctrl), feed)
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		sess.Close()
		hlog.FromRequest(r).Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	v, err := sess.Runner.Start(r.Context())
	if err != nil {
		s.writeRunnerError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: id, Faces: s.faces.Labels(), View: v})
}

// handleClick forwards a click to the session's loop.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r, req.GameID)
	if !ok {
		return
	}
	res, v, err := sess.Runner.Click(r.Context(), req.Index)
	if err != nil {
		s.writeRunnerError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(clickRes{Result: res, View: v})
}

// handleReplay discards the session's round and deals a fresh one.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	var req replayReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r, req.GameID)
	if !ok {
		return
	}
	v, err := sess.Runner.Start(r.Context())
	if err != nil {
		s.writeRunnerError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(replayRes{GameID: sess.ID, View: v})
}

// handleGetGame returns the current board.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	v, err := sess.Runner.View(r.Context())
	if err != nil {
		s.writeRunnerError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// handleWS streams the session's renderer events. The current board is sent
// first so a fresh subscriber can draw immediately.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	events, leave := sess.Feed.Subscribe(feedBuffer)
	defer leave()

	v, err := sess.Runner.View(r.Context())
	if err != nil {
		s.writeRunnerError(w, r, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		hlog.FromRequest(r).Debug().Err(err).Msg("ws upgrade")
		return
	}
	defer conn.Close()

	// Reader: discard client frames, notice when the peer goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(e game.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(e)
	}
	if err := send(game.Event{Type: "render", View: &v, Elapsed: v.Elapsed, Duration: v.Duration}); err != nil {
		return
	}
	for {
		select {
		case <-gone:
			return
		case e, ok := <-events:
			if !ok {
				// Session closed.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := send(e); err != nil {
				return
			}
		}
	}
}

// upgrader accepts same-host pages and the configured client origin.
func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.cfg.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// session loads a live session and checks the caller may use it.
// It writes the error response and reports false on failure.
func (s *Server) session(w http.ResponseWriter, r *http.Request, id string) (*store.Session, bool) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_game_id")
		return nil, false
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if sess.UserID != "" {
		if me := userFrom(r); me == nil || me.ID != sess.UserID {
			writeError(w, http.StatusForbidden, "forbidden")
			return nil, false
		}
	}
	return sess, true
}

// writeRunnerError maps game and loop errors onto HTTP statuses.
func (s *Server) writeRunnerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrNoSuchTile):
		writeError(w, http.StatusBadRequest, "no_such_tile")
	case errors.Is(err, game.ErrNotStarted):
		writeError(w, http.StatusConflict, "not_started")
	case errors.Is(err, game.ErrStopped):
		writeError(w, http.StatusGone, "session_closed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "timeout")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("game")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func (s *Server) gameConfig() game.Config {
	return game.Config{
		Rows:     s.cfg.BoardRows,
		Cols:     s.cfg.BoardCols,
		Pool:     s.faces.Count(),
		Duration: s.cfg.RoundSeconds,
	}
}

// statsRenderer bumps a player's counters when a round ends.
type statsRenderer struct {
	game.NopRenderer
	srv    *Server
	userID string
	log    zerolog.Logger
}

func (sr *statsRenderer) Outcome(o game.Outcome, _ int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		if err := sr.srv.bumpStats(ctx, sr.userID, o == game.OutcomeWin); err != nil {
			sr.log.Warn().Err(err).Str("user", sr.userID).Msg("bump stats")
		}
	}()
}
