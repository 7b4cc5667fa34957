package scoring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/okian/dodgy/pkg/logger"
)

// Settings carries the tunables scorers are built from.
type Settings struct {
	BaseThreshold       float64
	MissingHRPenalty    float64
	MissingWattsPenalty float64
	RankLeniency        float64
	Logger              logger.Logger
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() Settings {
	return Settings{
		BaseThreshold:       DefaultBaseThreshold,
		MissingHRPenalty:    DefaultMissingHRPenalty,
		MissingWattsPenalty: DefaultMissingWattsPenalty,
		RankLeniency:        DefaultRankLeniency,
	}
}

// Factory builds a scorer from settings.
type Factory func(Settings) Scorer

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		TimeDeviationKey: func(cfg Settings) Scorer {
			return NewTimeDeviationScorer(
				WithBaseThreshold(cfg.BaseThreshold),
				WithMissingHRPenalty(cfg.MissingHRPenalty),
				WithMissingWattsPenalty(cfg.MissingWattsPenalty),
				WithRankLeniency(cfg.RankLeniency),
				WithTimeDeviationLogger(cfg.Logger),
			)
		},
	}
)

// Register makes a scorer available to Build under key.
func Register(key string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key] = f
}

// Available lists the registered scorer keys.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Build instantiates the scorers named by keys, in order.
func Build(keys []string, cfg Settings) ([]Scorer, error) {
	if len(keys) == 0 {
		return nil, ErrNoScorers
	}
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool, len(keys))
	scorers := make([]Scorer, 0, len(keys))
	for _, key := range keys {
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScorer, key)
		}
		seen[key] = true
		f, ok := registry[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScorer, key)
		}
		scorers = append(scorers, f(cfg))
	}
	return scorers, nil
}
