// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/dodgy/internal/adapters/repository"
	service "github.com/okian/dodgy/internal/app"
	"github.com/okian/dodgy/internal/domain/model"
)

// Analyzer runs dodginess analyses. *service.Service satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, raws []model.RawEffort, topN int) (*service.Report, error)
	AnalyzeSource(ctx context.Context, topN int) (*service.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	scoreHandler       *ScoreHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers. maxTop caps the
// ?top= query parameter.
func NewServer(analyzer Analyzer, maxTop int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		scoreHandler:       NewScoreHandler(analyzer, maxTop),
		leaderboardHandler: NewLeaderboardHandler(analyzer, maxTop),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandlePostScore, "score"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseTop reads ?top=N. A missing parameter yields -1, meaning the
// service default.
func parseTop(r *http.Request, maxTop int) (int, error) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: top must be a positive integer", ErrBadRequest)
	}
	if maxTop > 0 && n > maxTop {
		return 0, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, maxTop)
	}
	return n, nil
}

func writeTopError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrLimitExceeded) {
		writeError(w, http.StatusBadRequest, "limit_exceeded", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}

func writeAnalyzeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoSource), errors.Is(err, repository.ErrNoSource):
		writeError(w, http.StatusNotFound, "no_source", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
