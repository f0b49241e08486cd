package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gradestat",
		Short: "Gradestat - statistics over published exam grade tables",
		Long: `Gradestat computes candidate statistics from published grade bulletins.

A bulletin carries the mark band awarded each grade and the world-wide
share of candidates per grade. From those two tables gradestat estimates
scaled-mark moments, standardizes individual marks, and bootstraps
confidence intervals for the average grade of candidate groups.`,
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
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newIntervalCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newImportCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newNewCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
