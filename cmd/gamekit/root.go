package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gamekit",
		Short: "gamekit - score datasets with composite additive models",
		Long: `gamekit scores datasets with GAME models: named collections of
fixed-effect and random-effect sub-models that share one task type and
sum their per-record scores.

It loads a YAML model config, vectorizes a CSV dataset through per-shard
feature indexes, and produces per-record scores plus diagnostics.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newScoreCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newIndexCommand())
	cmd.AddCommand(newCheckCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
