// internal/httpserver/server.go
//
// HTTP server wiring for the memory game backend.
// Responsibilities:
//   - Router + middleware (access log, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/health", "/debug/faces", the embedded browser client at "/".
//   - Scores service (optional auth): GET /scores, POST /scores.
//   - Game endpoints (optional auth): /game/new, /game/click, /game/replay,
//     /game/{id}, /game/{id}/ws.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me.
//
// Notes:
//   - Each game session runs its own event loop (game.Runner); handlers only
//     send it operations and never touch round state directly.
//   - The websocket route sits outside the JSON/timeout group so streams are
//     not cut after the request timeout.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/memory/internal/config"
	"github.com/robalobadob/memory/internal/faces"
	"github.com/robalobadob/memory/internal/scores"
	"github.com/robalobadob/memory/internal/store"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Config   config.Config
	Scores   scores.Store
	DB       *sql.DB // accounts and stats
	Sessions *store.Memory
	Faces    *faces.Pool
	Static   fs.FS           // browser client; nil disables "/"
	BaseCtx  context.Context // parent of every session loop
}

// Server bundles router and dependencies.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	scores   scores.Store
	db       *sql.DB
	sessions *store.Memory
	faces    *faces.Pool
	base     context.Context
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.BaseCtx == nil {
		d.BaseCtx = context.Background()
	}
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      d.Config,
		scores:   d.Scores,
		db:       d.DB,
		sessions: d.Sessions,
		faces:    d.Faces,
		base:     d.BaseCtx,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)      // add X-Request-ID
	s.r.Use(chimw.RealIP)         // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)        // zerolog access log
	s.r.Use(chimw.Recoverer)      // recover from panics
	s.r.Use(s.cors)               // credentials-friendly CORS
	s.r.Use(s.withOptionalAuth()) // attach player when a token is present

	// JSON API, time-bounded.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/faces", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"count": s.faces.Count(),
				"board": map[string]int{"rows": s.cfg.BoardRows, "cols": s.cfg.BoardCols},
			})
		})

		s.mountScores(r)
		s.mountGame(r)
		s.mountAuth(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	// Streams.
	s.r.Get("/game/{id}/ws", s.handleWS)

	// Browser client.
	if d.Static != nil {
		files := http.FileServer(http.FS(d.Static))
		s.r.Get("/", files.ServeHTTP)
		s.r.Get("/static/*", http.StripPrefix("/static", files).ServeHTTP)
	}

	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// writeError writes {"error":code} with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
