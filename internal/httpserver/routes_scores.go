// internal/httpserver/routes_scores.go
//
// Best-times service.
//   - GET  /scores → JSON array of the 10 best records [{time, date, player?}]
//   - POST /scores → form field time=<seconds>; 201 on success, 400 when
//                    time is missing or not a non-negative integer
//
// A logged-in caller's time is attributed to them; guests post anonymously.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/memory/internal/scores"
)

func (s *Server) mountScores(r chi.Router) {
	r.Get("/scores", s.handleBest)
	r.Post("/scores", s.handleAddScore)
}

func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	best, err := s.scores.Best(r.Context(), scores.DefaultLimit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list best times")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(best)
}

func (s *Server) handleAddScore(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_form")
		return
	}
	raw, ok := r.PostForm["time"]
	if !ok || len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		writeError(w, http.StatusBadRequest, "missing_time")
		return
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil || seconds < 0 {
		writeError(w, http.StatusBadRequest, "invalid_time")
		return
	}
	if err := s.scores.Add(r.Context(), seconds, player(r)); err != nil {
		if errors.Is(err, scores.ErrInvalidTime) {
			writeError(w, http.StatusBadRequest, "invalid_time")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Int("time", seconds).Msg("add score")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]int{"time": seconds})
}
