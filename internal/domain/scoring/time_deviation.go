package scoring

import (
	"context"

	"github.com/okian/dodgy/internal/domain/model"
	"github.com/okian/dodgy/internal/domain/stats"
	"github.com/okian/dodgy/pkg/logger"
)

// TimeDeviationKey identifies the time-deviation scorer.
const TimeDeviationKey = "time_deviation"

// Default time-deviation parameters.
const (
	DefaultBaseThreshold       = 2.0
	DefaultMissingHRPenalty    = 0.1
	DefaultMissingWattsPenalty = 0.1
	DefaultRankLeniency        = 0.02
)

// TimeDeviationScorer flags an effort whose gap to the next slower effort
// is large compared with the spread of elapsed times on the leaderboard.
//
// The gap is measured in population standard deviations of elapsed_time
// across the whole working set. The threshold starts at BaseThreshold,
// tightens when heart rate or power is missing and loosens further down
// the leaderboard. The last effort has no slower neighbour and is never
// flagged.
type TimeDeviationScorer struct {
	baseThreshold       float64
	missingHRPenalty    float64
	missingWattsPenalty float64
	rankLeniency        float64
	logger              logger.Logger
}

// TimeDeviationOption configures a TimeDeviationScorer.
type TimeDeviationOption func(*TimeDeviationScorer)

// WithBaseThreshold sets the threshold, in standard deviations, before modifiers.
func WithBaseThreshold(v float64) TimeDeviationOption {
	return func(s *TimeDeviationScorer) {
		if v > 0 {
			s.baseThreshold = v
		}
	}
}

// WithMissingHRPenalty sets how much a missing heart rate lowers the modifier.
func WithMissingHRPenalty(v float64) TimeDeviationOption {
	return func(s *TimeDeviationScorer) {
		if v >= 0 {
			s.missingHRPenalty = v
		}
	}
}

// WithMissingWattsPenalty sets how much missing power lowers the modifier.
func WithMissingWattsPenalty(v float64) TimeDeviationOption {
	return func(s *TimeDeviationScorer) {
		if v >= 0 {
			s.missingWattsPenalty = v
		}
	}
}

// WithRankLeniency sets the per-rank growth of the modifier.
func WithRankLeniency(v float64) TimeDeviationOption {
	return func(s *TimeDeviationScorer) {
		if v >= 0 {
			s.rankLeniency = v
		}
	}
}

// WithTimeDeviationLogger sets the logger used to report flagged efforts.
func WithTimeDeviationLogger(l logger.Logger) TimeDeviationOption {
	return func(s *TimeDeviationScorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewTimeDeviationScorer creates the scorer with default parameters.
func NewTimeDeviationScorer(opts ...TimeDeviationOption) *TimeDeviationScorer {
	s := &TimeDeviationScorer{
		baseThreshold:       DefaultBaseThreshold,
		missingHRPenalty:    DefaultMissingHRPenalty,
		missingWattsPenalty: DefaultMissingWattsPenalty,
		rankLeniency:        DefaultRankLeniency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

// Key implements Scorer.
func (s *TimeDeviationScorer) Key() string { return TimeDeviationKey }

// Modifier returns the threshold multiplier for effort. It is clamped at
// zero, so a threshold is never negative.
func (s *TimeDeviationScorer) Modifier(effort model.EnrichedEffort) float64 { //nolint:gocritic // hugeParam
	mod := 1.0
	if !effort.HasHeartRate() {
		mod -= s.missingHRPenalty
	}
	if !effort.HasWatts() {
		mod -= s.missingWattsPenalty
	}
	mod *= 1 + s.rankLeniency*float64(effort.Rank-1)
	if mod < 0 {
		return 0
	}
	return mod
}

// Threshold returns the deviation, in standard deviations, above which
// effort is flagged.
func (s *TimeDeviationScorer) Threshold(effort model.EnrichedEffort) float64 { //nolint:gocritic // hugeParam
	return s.baseThreshold * s.Modifier(effort)
}

// Score implements Scorer. It returns 1 when the gap to the next effort
// exceeds the threshold and 0 otherwise, including when there is no next
// effort or no spread in elapsed times.
func (s *TimeDeviationScorer) Score(ctx context.Context, effort model.EnrichedEffort, position int, efforts []model.EnrichedEffort) float64 { //nolint:gocritic // hugeParam
	if position < 0 || position+1 >= len(efforts) {
		return 0
	}
	next := efforts[position+1]

	spread, err := stats.StdDev(stats.Pluck(efforts, func(e model.EnrichedEffort) float64 { return e.ElapsedTime }))
	if err != nil || spread == 0 {
		return 0
	}

	deviation := (next.ElapsedTime - effort.ElapsedTime) / spread
	threshold := s.Threshold(effort)
	if deviation <= threshold {
		return 0
	}

	s.logger.Info(ctx, "flagging effort",
		logger.Int("rank", effort.Rank),
		logger.Int64("effort_id", effort.EffortID),
		logger.Float64("deviation", deviation),
		logger.Float64("threshold", threshold),
	)
	return 1
}
