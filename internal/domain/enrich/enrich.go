// Package enrich projects raw leaderboard efforts onto the fields scorers
// need and derives each effort's average speed.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/dodgy/internal/domain/model"
	"github.com/okian/dodgy/internal/worker"
	"github.com/okian/dodgy/pkg/logger"
	"github.com/okian/dodgy/pkg/metrics"
)

const (
	metersPerKilometer = 1000
	secondsPerHour     = 3600
)

// Rejection reasons, also used as metric labels.
const (
	ReasonMalformed      = "malformed"
	ReasonUndefinedSpeed = "undefined_speed"
)

// Speed returns km/h for a distance in meters covered in elapsed seconds.
func Speed(distance, elapsed float64) (float64, error) {
	if elapsed <= 0 {
		return 0, fmt.Errorf("%w: %w: elapsed_time %v", ErrMalformedRecord, ErrUndefinedSpeed, elapsed)
	}
	return (distance / metersPerKilometer) / (elapsed / secondsPerHour), nil
}

// Enrich narrows raw to the scored fields and computes its speed.
func Enrich(raw model.RawEffort) (model.EnrichedEffort, error) { //nolint:gocritic // hugeParam
	switch {
	case raw.Distance == nil:
		return model.EnrichedEffort{}, fmt.Errorf("%w: missing distance", ErrMalformedRecord)
	case raw.ElapsedTime == nil:
		return model.EnrichedEffort{}, fmt.Errorf("%w: missing elapsed_time", ErrMalformedRecord)
	case !finite(*raw.Distance) || *raw.Distance < 0:
		return model.EnrichedEffort{}, fmt.Errorf("%w: distance %v", ErrMalformedRecord, *raw.Distance)
	case !finite(*raw.ElapsedTime):
		return model.EnrichedEffort{}, fmt.Errorf("%w: elapsed_time %v", ErrMalformedRecord, *raw.ElapsedTime)
	case raw.Rank < 1:
		return model.EnrichedEffort{}, fmt.Errorf("%w: rank %d", ErrMalformedRecord, raw.Rank)
	}

	speed, err := Speed(*raw.Distance, *raw.ElapsedTime)
	if err != nil {
		return model.EnrichedEffort{}, err
	}

	return model.EnrichedEffort{
		EffortID:     raw.EffortID,
		ActivityID:   raw.ActivityID,
		Distance:     *raw.Distance,
		ElapsedTime:  *raw.ElapsedTime,
		AverageWatts: copyFloat(raw.AverageWatts),
		AverageHR:    copyFloat(raw.AverageHR),
		Rank:         raw.Rank,
		EffortSpeed:  speed,
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Reason maps an enrichment error to its rejection reason.
func Reason(err error) string {
	if errors.Is(err, ErrUndefinedSpeed) {
		return ReasonUndefinedSpeed
	}
	return ReasonMalformed
}

// Enricher enriches whole leaderboards on a worker pool.
type Enricher struct {
	pool     *worker.Pool
	failFast bool
	logger   logger.Logger
}

// Option applies a configuration option to the Enricher.
type Option func(*Enricher)

// WithPool runs enrichment on p.
func WithPool(p *worker.Pool) Option {
	return func(e *Enricher) {
		if p != nil {
			e.pool = p
		}
	}
}

// WithFailFast aborts the batch on the first malformed record instead of
// skipping it.
func WithFailFast(enabled bool) Option {
	return func(e *Enricher) {
		e.failFast = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEnricher creates an Enricher. The default policy is skip-and-continue.
func NewEnricher(opts ...Option) *Enricher {
	e := &Enricher{}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = worker.NewPool(0, worker.WithName("enrich"))
	}
	if e.logger == nil {
		e.logger = logger.Nop()
	}
	return e
}

// EnrichAll enriches raws, preserving their order. Malformed records are
// returned as rejections, or abort the batch when fail-fast is enabled.
func (e *Enricher) EnrichAll(ctx context.Context, raws []model.RawEffort) ([]model.EnrichedEffort, []model.Rejection, error) {
	out := make([]model.EnrichedEffort, len(raws))
	errs, err := e.pool.Run(ctx, len(raws), func(_ context.Context, i int) error {
		enriched, err := Enrich(raws[i])
		if err != nil {
			return err
		}
		out[i] = enriched
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	enriched := make([]model.EnrichedEffort, 0, len(raws))
	var rejected []model.Rejection
	for i := range raws {
		if errs == nil || errs[i] == nil {
			enriched = append(enriched, out[i])
			metrics.RecordEffortEnriched()
			continue
		}
		if e.failFast {
			return nil, nil, fmt.Errorf("effort %d (rank %d): %w", raws[i].EffortID, raws[i].Rank, errs[i])
		}
		reason := Reason(errs[i])
		metrics.RecordEffortRejected(reason)
		e.logger.Warn(ctx, "skipping malformed effort",
			logger.Int64("effort_id", raws[i].EffortID),
			logger.Int("rank", raws[i].Rank),
			logger.Error(errs[i]),
		)
		rejected = append(rejected, model.Rejection{
			EffortID: raws[i].EffortID,
			Rank:     raws[i].Rank,
			Reason:   errs[i].Error(),
		})
	}
	return enriched, rejected, nil
}
