// Package testleaderboard generates synthetic leaderboards with planted
// anomalies and checks that scoring recovers them.
package testleaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	service "github.com/okian/dodgy/internal/app"
	"github.com/okian/dodgy/internal/domain/model"
	"github.com/okian/dodgy/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Analyzer scores a leaderboard. *service.Service and *RemoteAnalyzer
// satisfy it.
type Analyzer interface {
	Analyze(ctx context.Context, raws []model.RawEffort, topN int) (*service.Report, error)
}

// Summary is the outcome of Run.
type Summary struct {
	Generated *Generated
	Report    *service.Report
	Result    *Result
	Stats     Stats
}

// Run generates a leaderboard, optionally saves it, scores it with
// analyzer and verifies the planted anomalies.
func Run(ctx context.Context, cfg *Config, analyzer Analyzer) (*Summary, error) {
	stats := Stats{StartTime: time.Now()}
	log := logger.Get()

	gen, err := Generate(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("leaderboard generation failed: %w", err)
	}
	stats.EffortsGenerated = len(gen.Leaderboard.Entries)

	if cfg.OutputFile != "" {
		if err := Save(cfg.OutputFile, &gen.Leaderboard); err != nil {
			return nil, err
		}
		log.Info(ctx, "leaderboard saved", logger.String("path", cfg.OutputFile))
	}

	report, err := analyzer.Analyze(ctx, gen.Leaderboard.Entries, cfg.TopN)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}
	stats.EffortsScored = len(report.Efforts)
	stats.EffortsRejected = len(report.Rejected)

	res := Verify(report, gen.Planted)
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "verification complete",
		logger.String("run_id", report.RunID),
		logger.Int("planted", res.Planted),
		logger.Int("flagged", res.Flagged),
		logger.Int("missed", len(res.Missed)),
		logger.Int("unexpected", len(res.Unexpected)),
		logger.Float64("recall", res.Recall()),
		logger.String("duration", stats.Duration.String()),
	)
	return &Summary{Generated: gen, Report: report, Result: res, Stats: stats}, nil
}

// Save writes lb as indented JSON to path, creating parent directories.
func Save(path string, lb *model.Leaderboard) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(lb, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}
	return nil
}
