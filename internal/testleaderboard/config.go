package testleaderboard

import (
	"errors"
	"fmt"
	"time"
)

// Default generator settings.
const (
	DefaultCount       = 10
	DefaultAnomalies   = 1
	DefaultAnomalyGap  = 60.0
	DefaultMeanGap     = 1.0
	DefaultBaseElapsed = 600.0
	DefaultDistance    = 5000.0
	DefaultDropoutRate = 0.2
	DefaultTimeout     = 30 * time.Second
)

// ErrInvalidConfig reports generator settings that cannot produce a leaderboard.
var ErrInvalidConfig = errors.New("invalid test leaderboard config")

// Config holds configuration for a synthetic leaderboard run.
type Config struct {
	Count       int           // Number of well-formed efforts
	Anomalies   int           // Efforts followed by a planted time gap
	AnomalyGap  float64       // Extra seconds added after each planted effort
	MeanGap     float64       // Mean gap in seconds between neighbouring efforts
	BaseElapsed float64       // Elapsed time of rank 1, in seconds
	Distance    float64       // Segment length in meters
	DropoutRate float64       // Probability that HR or watts is missing
	Malformed   int           // Efforts without an elapsed time, ranked last
	Seed        uint64        // RNG seed; 0 picks one from the clock
	TopN        int           // Rank cut-off used when scoring; 0 keeps all
	BaseURL     string        // Score over HTTP instead of in-process when set
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Write the generated leaderboard here when set
}

// DefaultConfig returns a Config with the default generator settings.
func DefaultConfig() *Config {
	return &Config{
		Count:       DefaultCount,
		Anomalies:   DefaultAnomalies,
		AnomalyGap:  DefaultAnomalyGap,
		MeanGap:     DefaultMeanGap,
		BaseElapsed: DefaultBaseElapsed,
		Distance:    DefaultDistance,
		DropoutRate: DefaultDropoutRate,
		Timeout:     DefaultTimeout,
	}
}

// plantable returns how many leading positions may carry an anomaly. Gaps in
// the top quarter stand out against the leaderboard's spread; the last
// position has no neighbour to compare with.
func (c *Config) plantable() int {
	n := c.Count / 4
	if n < 1 {
		n = 1
	}
	if n > c.Count-1 {
		n = c.Count - 1
	}
	return n
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Count < 2:
		return fmt.Errorf("%w: count must be at least 2", ErrInvalidConfig)
	case c.Anomalies < 0 || c.Anomalies > c.plantable():
		return fmt.Errorf("%w: anomalies must be between 0 and %d", ErrInvalidConfig, c.plantable())
	case c.Malformed < 0:
		return fmt.Errorf("%w: malformed must not be negative", ErrInvalidConfig)
	case c.AnomalyGap <= 0 || c.MeanGap < 0:
		return fmt.Errorf("%w: gaps must be positive", ErrInvalidConfig)
	case c.BaseElapsed <= 0 || c.Distance <= 0:
		return fmt.Errorf("%w: base_elapsed and distance must be positive", ErrInvalidConfig)
	case c.DropoutRate < 0 || c.DropoutRate > 1:
		return fmt.Errorf("%w: dropout rate must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	EffortsGenerated int
	EffortsScored    int
	EffortsRejected  int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
