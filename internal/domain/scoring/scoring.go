// Package scoring assigns dodginess scores to leaderboard efforts by summing
// the contributions of independent scorers.
package scoring

import (
	"context"
	"math"

	"github.com/okian/dodgy/internal/domain/model"
	"github.com/okian/dodgy/internal/worker"
	"github.com/okian/dodgy/pkg/logger"
	"github.com/okian/dodgy/pkg/metrics"
)

// Scorer is one dodginess heuristic.
type Scorer interface {
	// Key returns the machine-readable scorer identifier.
	Key() string
	// Score returns the contribution for the effort at position within
	// efforts. efforts is the whole ordered working set and is read-only.
	Score(ctx context.Context, effort model.EnrichedEffort, position int, efforts []model.EnrichedEffort) float64
}

// Aggregator runs an ordered list of scorers and sums their contributions.
type Aggregator struct {
	scorers []Scorer
	pool    *worker.Pool
	logger  logger.Logger
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithPool scores efforts on p.
func WithPool(p *worker.Pool) Option {
	return func(a *Aggregator) {
		if p != nil {
			a.pool = p
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an aggregator over scorers, run in the given order.
func NewAggregator(scorers []Scorer, opts ...Option) *Aggregator {
	a := &Aggregator{scorers: append([]Scorer(nil), scorers...)}
	for _, opt := range opts {
		opt(a)
	}
	if a.pool == nil {
		a.pool = worker.NewPool(0, worker.WithName("score"))
	}
	if a.logger == nil {
		a.logger = logger.Nop()
	}
	return a
}

// Keys returns the active scorer keys in evaluation order.
func (a *Aggregator) Keys() []string {
	keys := make([]string, len(a.scorers))
	for i, s := range a.scorers {
		keys[i] = s.Key()
	}
	return keys
}

// Score evaluates every scorer for the effort at position. The returned
// ScoredEffort carries a copy of effort; the input is not modified.
// Negative or non-finite contributions count as zero.
func (a *Aggregator) Score(ctx context.Context, effort model.EnrichedEffort, position int, efforts []model.EnrichedEffort) model.ScoredEffort { //nolint:gocritic // hugeParam
	scored := model.ScoredEffort{
		EnrichedEffort: effort,
		Breakdown:      make([]model.Contribution, 0, len(a.scorers)),
	}
	for _, s := range a.scorers {
		v := s.Score(ctx, effort, position, efforts)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			a.logger.Warn(ctx, "discarding invalid scorer contribution",
				logger.String("scorer", s.Key()),
				logger.Int64("effort_id", effort.EffortID),
				logger.Float64("value", v),
			)
			v = 0
		}
		if v > 0 {
			metrics.RecordEffortFlagged(s.Key())
		}
		scored.Breakdown = append(scored.Breakdown, model.Contribution{Scorer: s.Key(), Value: v})
		scored.Score += v
	}
	metrics.RecordEffortScored()
	return scored
}

// ScoreAll scores every effort against the whole working set, preserving
// order. Efforts are scored concurrently; efforts is only read.
func (a *Aggregator) ScoreAll(ctx context.Context, efforts []model.EnrichedEffort) ([]model.ScoredEffort, error) {
	out := make([]model.ScoredEffort, len(efforts))
	if _, err := a.pool.Run(ctx, len(efforts), func(ctx context.Context, i int) error {
		out[i] = a.Score(ctx, efforts[i], i, efforts)
		return nil
	}); err != nil {
		return nil, err
	}
	metrics.UpdateLeaderboardSize(len(efforts))
	return out, nil
}
