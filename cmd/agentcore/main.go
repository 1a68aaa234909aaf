// Package main provides the CLI entry point for the agent orchestration
// engine: a long-running serve process that drains the inbound bus
// through one agent turn loop, plus cron subcommands for inspecting and
// editing scheduled jobs without starting the engine.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "agentcore",
		Short:        "agentcore - multi-channel agent orchestration engine",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "agentcore.yaml", "path to the engine config file")

	rootCmd.AddCommand(
		buildServeCmd(),
		buildCronCmd(),
	)

	return rootCmd
}
