// Package service wires leaderboard selection, enrichment and scoring into
// one batch analysis.
package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dodgy/internal/adapters/repository"
	"github.com/okian/dodgy/internal/domain/enrich"
	"github.com/okian/dodgy/internal/domain/model"
	"github.com/okian/dodgy/internal/domain/scoring"
	"github.com/okian/dodgy/internal/worker"
	"github.com/okian/dodgy/pkg/logger"
	"github.com/okian/dodgy/pkg/metrics"
)

// Report is the outcome of one analysis run.
type Report struct {
	RunID    string               `json:"run_id"`
	Scorers  []string             `json:"scorers"`
	Efforts  []model.ScoredEffort `json:"efforts"`
	Rejected []model.Rejection    `json:"rejected,omitempty"`
}

// Flagged returns the efforts with a non-zero score.
func (r *Report) Flagged() []model.ScoredEffort {
	var out []model.ScoredEffort
	for _, e := range r.Efforts {
		if e.Flagged() {
			out = append(out, e)
		}
	}
	return out
}

// Service runs dodginess analyses over leaderboard snapshots.
type Service struct {
	source      repository.Source
	scorers     []scoring.Scorer
	workerCount int
	topN        int
	failFast    bool

	enricher   *enrich.Enricher
	aggregator *scoring.Aggregator

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where AnalyzeSource reads the leaderboard from.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithScorers sets the active scorers, in evaluation order.
func WithScorers(scorers ...scoring.Scorer) Option {
	return func(s *Service) {
		if len(scorers) > 0 {
			s.scorers = scorers
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithTopN sets the default rank cut-off; 0 keeps every rank.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.topN = n
		}
	}
}

// WithFailFast makes a malformed record fail the whole batch.
func WithFailFast(enabled bool) Option {
	return func(s *Service) {
		s.failFast = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without WithScorers it uses the time-deviation
// scorer with default parameters.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		topN:        10,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if len(s.scorers) == 0 {
		s.scorers = []scoring.Scorer{
			scoring.NewTimeDeviationScorer(scoring.WithTimeDeviationLogger(s.logger.Named("time_deviation"))),
		}
	}

	s.enricher = enrich.NewEnricher(
		enrich.WithPool(worker.NewPool(s.workerCount, worker.WithName("enrich"), worker.WithLogger(s.logger))),
		enrich.WithFailFast(s.failFast),
		enrich.WithLogger(s.logger),
	)
	s.aggregator = scoring.NewAggregator(s.scorers,
		scoring.WithPool(worker.NewPool(s.workerCount, worker.WithName("score"), worker.WithLogger(s.logger))),
		scoring.WithLogger(s.logger),
	)
	return s
}

// TopN returns the default rank cut-off.
func (s *Service) TopN() int { return s.topN }

// Analyze selects, enriches and scores raws. topN < 0 uses the service default.
func (s *Service) Analyze(ctx context.Context, raws []model.RawEffort, topN int) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	if topN < 0 {
		topN = s.topN
	}
	log := s.logger.With(logger.String("run_id", runID))

	report, err := s.analyze(ctx, log, runID, raws, topN)
	durationMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordBatch("error", durationMs)
		log.Error(ctx, "analysis failed", logger.Error(err))
		return nil, err
	}
	metrics.RecordBatch("ok", durationMs)
	log.Info(ctx, "analysis complete",
		logger.Int("efforts", len(report.Efforts)),
		logger.Int("rejected", len(report.Rejected)),
		logger.Int("flagged", len(report.Flagged())),
		logger.Float64("duration_ms", durationMs),
	)
	return report, nil
}

func (s *Service) analyze(ctx context.Context, log logger.Logger, runID string, raws []model.RawEffort, topN int) (*Report, error) {
	metrics.RecordEffortsLoaded(len(raws))

	selected, duplicates := repository.Select(raws, topN)
	for _, d := range duplicates {
		metrics.RecordEffortRejected(repository.ReasonDuplicate)
		log.Warn(ctx, "skipping duplicate effort", logger.Int64("effort_id", d.EffortID), logger.Int("rank", d.Rank))
	}
	log.Debug(ctx, "selected working set", logger.Int("entries", len(raws)), logger.Int("selected", len(selected)), logger.Int("top_n", topN))

	enriched, malformed, err := s.enricher.EnrichAll(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}

	scored, err := s.aggregator.ScoreAll(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	return &Report{
		RunID:    runID,
		Scorers:  s.aggregator.Keys(),
		Efforts:  scored,
		Rejected: append(duplicates, malformed...),
	}, nil
}

// AnalyzeSource loads the configured source and analyzes it.
func (s *Service) AnalyzeSource(ctx context.Context, topN int) (*Report, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	raws, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return s.Analyze(ctx, raws, topN)
}
