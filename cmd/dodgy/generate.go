package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/dodgy/internal/testleaderboard"
)

func newGenerateCmd(configPath *string) *cobra.Command {
	cfg := testleaderboard.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic leaderboard with planted anomalies and verify scoring",
		Long: `Builds a leaderboard whose elapsed times contain planted gaps, scores it
in-process (or against a running server with --url) and reports which planted
efforts were flagged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), *configPath, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Count, "efforts", cfg.Count, "Number of well-formed efforts")
	f.IntVar(&cfg.Anomalies, "anomalies", cfg.Anomalies, "Number of planted anomalies (top quarter only)")
	f.Float64Var(&cfg.AnomalyGap, "anomaly-gap", cfg.AnomalyGap, "Seconds added after each planted effort")
	f.Float64Var(&cfg.MeanGap, "mean-gap", cfg.MeanGap, "Mean seconds between neighbouring efforts")
	f.Float64Var(&cfg.DropoutRate, "dropout", cfg.DropoutRate, "Probability that HR or watts is missing")
	f.IntVar(&cfg.Malformed, "malformed", cfg.Malformed, "Efforts without an elapsed time")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed (0 = random)")
	f.IntVar(&cfg.TopN, "top", cfg.TopN, "Rank cut-off when scoring; 0 keeps all")
	f.StringVar(&cfg.BaseURL, "url", "", "Score against a running server, e.g. http://localhost:9080")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.StringVar(&cfg.OutputFile, "out", "", "Write the generated leaderboard to this file")

	return cmd
}

func runGenerate(ctx context.Context, configPath string, gcfg *testleaderboard.Config, out io.Writer) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	log, err := initLogger(ctx, cfg, stderr)
	if err != nil {
		return err
	}

	var analyzer testleaderboard.Analyzer
	if gcfg.BaseURL != "" {
		remote := testleaderboard.NewRemoteAnalyzer(gcfg.BaseURL, gcfg.Timeout)
		if err := remote.CheckHealth(ctx); err != nil {
			return err
		}
		analyzer = remote
	} else {
		svc, err := newService(cfg, log, nil)
		if err != nil {
			return err
		}
		analyzer = svc
	}

	summary, err := testleaderboard.Run(ctx, gcfg, analyzer)
	if err != nil {
		return err
	}

	res := summary.Result
	fmt.Fprintf(out, "seed %d: %d efforts, %d planted, %d flagged, recall %.2f\n",
		summary.Generated.Seed, summary.Stats.EffortsGenerated, res.Planted, res.Flagged, res.Recall())
	for _, id := range res.Missed {
		fmt.Fprintf(out, "missed planted effort %d\n", id)
	}
	for _, id := range res.Unexpected {
		fmt.Fprintf(out, "unexpected flag on effort %d\n", id)
	}
	return nil
}
