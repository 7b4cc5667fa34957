package main

import (
	"context"
	"io"
	"os"

	"github.com/okian/dodgy/internal/adapters/repository"
	service "github.com/okian/dodgy/internal/app"
	"github.com/okian/dodgy/internal/config"
	"github.com/okian/dodgy/internal/domain/scoring"
	"github.com/okian/dodgy/pkg/logger"
)

// loadConfig loads configuration from path, or from $DODGY_CONFIG when path
// is empty.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.Load(ctx)
	}
	return config.LoadFile(ctx, path)
}

// initLogger configures the global logger from cfg and returns it.
func initLogger(ctx context.Context, cfg *config.Config, w io.Writer) (logger.Logger, error) {
	if err := logger.Init(logger.WithWriter(w), logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return log, nil
}

// newService builds the analysis service described by cfg. src may be nil.
func newService(cfg *config.Config, log logger.Logger, src repository.Source) (*service.Service, error) {
	settings := cfg.ScoringSettings()
	settings.Logger = log.Named("scoring")
	scorers, err := scoring.Build(cfg.Scorers, settings)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithScorers(scorers...),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithTopN(cfg.TopN),
		service.WithFailFast(cfg.FailFast),
	}
	if src != nil {
		opts = append(opts, service.WithSource(src))
	}
	return service.New(opts...), nil
}

// configuredSource returns a FileSource for cfg.LeaderboardPath, or nil.
func configuredSource(cfg *config.Config) repository.Source {
	if cfg.LeaderboardPath == "" {
		return nil
	}
	return repository.NewFileSource(cfg.LeaderboardPath)
}

var stderr io.Writer = os.Stderr //nolint:gochecknoglobals // swapped in tests
