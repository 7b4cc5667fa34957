package testleaderboard

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dodgy/internal/domain/model"
	"github.com/okian/dodgy/pkg/logger"
)

// ID bases keep generated identifiers recognisable.
const (
	effortIDBase   = 1_000_000
	activityIDBase = 5_000_000
	seedMix        = 0x9e3779b97f4a7c15
)

// Telemetry ranges for generated efforts.
const (
	wattsMin   = 200.0
	wattsRange = 150.0
	hrMin      = 140.0
	hrRange    = 40.0
)

// Generated is a synthetic leaderboard together with the efforts planted
// as anomalies.
type Generated struct {
	Seed        uint64
	Leaderboard model.Leaderboard
	Planted     []int64
}

// Generate builds a synthetic leaderboard. Efforts get increasing elapsed
// times with random gaps; each planted effort is followed by an extra
// AnomalyGap. Entries are returned shuffled, as an upstream source would.
func Generate(ctx context.Context, cfg *Config) (*Generated, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^seedMix)) //nolint:gosec // reproducible test data

	logger.Get().Info(ctx, "generating leaderboard",
		logger.Int("efforts", cfg.Count),
		logger.Int("anomalies", cfg.Anomalies),
		logger.Int("malformed", cfg.Malformed),
		logger.Any("seed", seed),
	)

	planted := make(map[int]bool, cfg.Anomalies)
	for _, p := range rng.Perm(cfg.plantable())[:cfg.Anomalies] {
		planted[p] = true
	}

	gen := &Generated{Seed: seed}
	entries := make([]model.RawEffort, 0, cfg.Count+cfg.Malformed)
	elapsed := cfg.BaseElapsed
	for i := 0; i < cfg.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		e := newEffort(rng, cfg, i)
		e.ElapsedTime = model.Float64(elapsed)
		entries = append(entries, e)

		gap := rng.Float64() * 2 * cfg.MeanGap
		if planted[i] {
			gap += cfg.AnomalyGap
			gen.Planted = append(gen.Planted, e.EffortID)
		}
		elapsed += gap
	}
	for i := cfg.Count; i < cfg.Count+cfg.Malformed; i++ {
		entries = append(entries, newEffort(rng, cfg, i))
	}

	rng.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
	gen.Leaderboard = model.Leaderboard{
		EffortCount: len(entries),
		EntryCount:  len(entries),
		Entries:     entries,
	}
	return gen, nil
}

// newEffort returns the effort at position i without an elapsed time.
func newEffort(rng *rand.Rand, cfg *Config, i int) model.RawEffort {
	e := model.RawEffort{
		EffortID:    int64(effortIDBase + i),
		ActivityID:  int64(activityIDBase + i),
		Distance:    model.Float64(cfg.Distance),
		Rank:        i + 1,
		AthleteName: "athlete-" + uuid.NewString()[:8],
	}
	if rng.Float64() >= cfg.DropoutRate {
		e.AverageWatts = model.Float64(wattsMin + rng.Float64()*wattsRange)
	}
	if rng.Float64() >= cfg.DropoutRate {
		e.AverageHR = model.Float64(hrMin + rng.Float64()*hrRange)
	}
	return e
}
