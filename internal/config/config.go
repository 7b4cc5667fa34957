// Package config defines service configuration and its loading.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and env vars on top.
// - Functions that may do I/O accept context.Context first.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"

	"github.com/okian/dodgy/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// LeaderboardPath is the leaderboard JSON file served by GET /leaderboard
	// and read by the score command when no file argument is given.
	LeaderboardPath string `koanf:"leaderboard_path"`

	// TopN keeps efforts with rank <= TopN; 0 keeps all.
	TopN int `koanf:"top_n"`

	// MaxTopN caps the ?top= query parameter.
	MaxTopN int `koanf:"max_top_n"`

	// WorkerCount sets the size of the enrichment and scoring pools.
	WorkerCount int `koanf:"worker_count"`

	// FailFast aborts a batch on the first malformed record instead of
	// skipping it.
	FailFast bool `koanf:"fail_fast"`

	// Scorers lists the active scorer keys, in evaluation order.
	Scorers []string `koanf:"scorers"`

	// Time-deviation scorer tunables.
	BaseThreshold       float64 `koanf:"base_threshold"`
	MissingHRPenalty    float64 `koanf:"missing_hr_penalty"`
	MissingWattsPenalty float64 `koanf:"missing_watts_penalty"`
	RankLeniency        float64 `koanf:"rank_leniency"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		TopN:                10,
		MaxTopN:             1000,
		WorkerCount:         runtime.NumCPU(),
		Scorers:             []string{scoring.TimeDeviationKey},
		BaseThreshold:       scoring.DefaultBaseThreshold,
		MissingHRPenalty:    scoring.DefaultMissingHRPenalty,
		MissingWattsPenalty: scoring.DefaultMissingWattsPenalty,
		RankLeniency:        scoring.DefaultRankLeniency,
	}
}

// ScoringSettings returns the scorer tunables.
func (c *Config) ScoringSettings() scoring.Settings {
	return scoring.Settings{
		BaseThreshold:       c.BaseThreshold,
		MissingHRPenalty:    c.MissingHRPenalty,
		MissingWattsPenalty: c.MissingWattsPenalty,
		RankLeniency:        c.RankLeniency,
	}
}
