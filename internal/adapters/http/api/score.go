package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/dodgy/internal/adapters/repository"
	"github.com/okian/dodgy/internal/domain/enrich"
)

// maxBodyBytes bounds a POST /score payload.
const maxBodyBytes = 10 << 20

// ScoreHandler scores leaderboards posted by clients.
type ScoreHandler struct {
	analyzer Analyzer
	maxTop   int
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(analyzer Analyzer, maxTop int) *ScoreHandler {
	return &ScoreHandler{analyzer: analyzer, maxTop: maxTop}
}

// HandlePostScore handles POST /score?top=N. The body is a leaderboard
// envelope: {"entries": [...]}.
func (h *ScoreHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	top, err := parseTop(r, h.maxTop)
	if err != nil {
		writeTopError(w, err)
		return
	}

	raws, err := repository.DecodeLeaderboard(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), raws, top)
	if err != nil {
		if errors.Is(err, enrich.ErrMalformedRecord) {
			writeError(w, http.StatusUnprocessableEntity, "malformed_record", err)
			return
		}
		writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
