// Package main provides the dodgy CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "dodgy",
		Short: "Flag suspicious efforts on timed leaderboards",
		Long: `dodgy enriches leaderboard efforts with their average speed and scores
each one for dodginess: how far its elapsed time stands apart from the next
effort, relative to the spread of the whole leaderboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: $DODGY_CONFIG)")

	rootCmd.AddCommand(
		newScoreCmd(&configPath),
		newServeCmd(&configPath),
		newGenerateCmd(&configPath),
	)
	return rootCmd
}
