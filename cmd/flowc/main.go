// Package main implements flowc's command-line driver: a thin
// convenience binary over the translate package's Translate entry point.
// ASL-JSON rendering and deployment packaging belong to downstream tools;
// this binary exists only so the translator can be exercised end-to-end
// from a terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	flowconfig "github.com/c360studio/flowc/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "flowc",
		Short: "DSL-to-state-machine IR translator",
		Long:  "flowc parses a workflow DSL project file and builds the in-memory state-machine IR that downstream tools render as Amazon States Language.",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", flowconfig.FileName, "path to .flowc.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newTranslateCmd(&configPath, &verbose))
	rootCmd.AddCommand(newWatchCmd(&configPath, &verbose))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(path string) (*flowconfig.Config, error) {
	cfg, err := flowconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
