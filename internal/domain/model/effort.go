// Package model contains domain models passed between layers.
package model

// RawEffort is a leaderboard entry as served by the upstream source.
// Nullable numeric fields are pointers so "missing" is distinguishable from zero.
type RawEffort struct {
	EffortID     int64    `json:"effort_id"`
	ActivityID   int64    `json:"activity_id"`
	Distance     *float64 `json:"distance"`     // meters
	ElapsedTime  *float64 `json:"elapsed_time"` // seconds
	AverageWatts *float64 `json:"average_watts"`
	AverageHR    *float64 `json:"average_hr"`
	Rank         int      `json:"rank"`

	// Not projected into EnrichedEffort.
	AthleteName string   `json:"athlete_name,omitempty"`
	MovingTime  *float64 `json:"moving_time,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
}

// EnrichedEffort is the projection of a RawEffort that scorers work on.
type EnrichedEffort struct {
	EffortID     int64    `json:"effort_id"`
	ActivityID   int64    `json:"activity_id"`
	Distance     float64  `json:"distance"`
	ElapsedTime  float64  `json:"elapsed_time"`
	AverageWatts *float64 `json:"average_watts"`
	AverageHR    *float64 `json:"average_hr"`
	Rank         int      `json:"rank"`
	EffortSpeed  float64  `json:"effort_speed"` // km/h
}

// HasHeartRate reports whether the effort carries heart-rate telemetry.
func (e EnrichedEffort) HasHeartRate() bool { return e.AverageHR != nil }

// HasWatts reports whether the effort carries power telemetry.
func (e EnrichedEffort) HasWatts() bool { return e.AverageWatts != nil }

// Contribution is one scorer's share of a dodginess score.
type Contribution struct {
	Scorer string  `json:"scorer"`
	Value  float64 `json:"value"`
}

// ScoredEffort is an EnrichedEffort annotated with its dodginess score.
type ScoredEffort struct {
	EnrichedEffort
	Score     float64        `json:"score"`
	Breakdown []Contribution `json:"breakdown,omitempty"`
}

// Flagged reports whether any scorer contributed to the score.
func (s ScoredEffort) Flagged() bool { return s.Score > 0 }

// Rejection records an effort that was dropped before scoring.
type Rejection struct {
	EffortID int64  `json:"effort_id"`
	Rank     int    `json:"rank"`
	Reason   string `json:"reason"`
}

// Leaderboard is the JSON envelope of a segment leaderboard.
type Leaderboard struct {
	EffortCount int         `json:"effort_count,omitempty"`
	EntryCount  int         `json:"entry_count,omitempty"`
	Entries     []RawEffort `json:"entries"`
}

// Float64 returns a pointer to v, for building nullable fields.
func Float64(v float64) *float64 { return &v }
