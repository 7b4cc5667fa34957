package api

import (
	"net/http"
)

// LeaderboardHandler scores the configured leaderboard source.
type LeaderboardHandler struct {
	analyzer Analyzer
	maxTop   int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(analyzer Analyzer, maxTop int) *LeaderboardHandler {
	return &LeaderboardHandler{analyzer: analyzer, maxTop: maxTop}
}

// HandleGetLeaderboard handles GET /leaderboard?top=N requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	top, err := parseTop(r, h.maxTop)
	if err != nil {
		writeTopError(w, err)
		return
	}
	report, err := h.analyzer.AnalyzeSource(r.Context(), top)
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
