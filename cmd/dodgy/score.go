package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/dodgy/internal/adapters/repository"
	service "github.com/okian/dodgy/internal/app"
)

func newScoreCmd(configPath *string) *cobra.Command {
	var (
		top       int
		outputFmt string
		failFast  bool
	)

	cmd := &cobra.Command{
		Use:   "score [leaderboard.json]",
		Short: "Score a leaderboard file once and print the result",
		Long: `Reads a leaderboard envelope ({"entries": [...]}) from the given file, or from
leaderboard_path in the configuration, and prints every effort with its speed
and dodginess score.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := scoreOpts{
				configPath: *configPath,
				top:        top,
				outputFmt:  outputFmt,
				failFast:   failFast,
			}
			if len(args) == 1 {
				opts.path = args[0]
			}
			return runScore(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&top, "top", -1, "Keep efforts with rank <= N; 0 keeps all (default: top_n from config)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort on the first malformed record")

	return cmd
}

type scoreOpts struct {
	configPath string
	path       string
	top        int
	outputFmt  string
	failFast   bool
}

func runScore(ctx context.Context, opts scoreOpts, out io.Writer) error {
	if opts.outputFmt != "text" && opts.outputFmt != "json" {
		return fmt.Errorf("unknown output format %q: want text or json", opts.outputFmt)
	}

	cfg, err := loadConfig(ctx, opts.configPath)
	if err != nil {
		return err
	}
	if opts.path != "" {
		cfg.LeaderboardPath = opts.path
	}
	if opts.failFast {
		cfg.FailFast = true
	}
	if cfg.LeaderboardPath == "" {
		return fmt.Errorf("%w: pass a file or set leaderboard_path", repository.ErrNoSource)
	}

	log, err := initLogger(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	svc, err := newService(cfg, log, configuredSource(cfg))
	if err != nil {
		return err
	}

	report, err := svc.AnalyzeSource(ctx, opts.top)
	if err != nil {
		return err
	}

	if opts.outputFmt == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return renderText(out, report)
}

func renderText(out io.Writer, report *service.Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tEFFORT\tACTIVITY\tELAPSED_S\tSPEED_KMH\tHR\tWATTS\tSCORE")
	for _, e := range report.Efforts {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.0f\t%.2f\t%s\t%s\t%.0f\n",
			e.Rank, e.EffortID, e.ActivityID, e.ElapsedTime, e.EffortSpeed,
			optional(e.AverageHR), optional(e.AverageWatts), e.Score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d of %d efforts flagged (run %s)\n", len(report.Flagged()), len(report.Efforts), report.RunID)
	for _, r := range report.Rejected {
		fmt.Fprintf(out, "skipped effort %d (rank %d): %s\n", r.EffortID, r.Rank, r.Reason)
	}
	return nil
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 0, 64)
}
