package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-stats/analyze"
	"github.com/dhcgn/mbox-stats/config"
	"github.com/dhcgn/mbox-stats/filter"
	"github.com/dhcgn/mbox-stats/mbox"
	"github.com/dhcgn/mbox-stats/progress"
	"github.com/dhcgn/mbox-stats/runner"
	"github.com/dhcgn/mbox-stats/sink"
	"github.com/dhcgn/mbox-stats/stats"
)

var rootCmd = &cobra.Command{
	Use:   "mbox-stats [mbox file]",
	Short: "Print message size statistics from an mbox archive, per message or grouped by sender and labels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd, args)
		if err != nil {
			return err
		}

		logger := setupLogger(cfg)
		slog.SetDefault(logger)
		logger.Info("starting mbox-stats", "mbox", cfg.MboxPath, "agg", cfg.Aggregate, "sort", cfg.SortBySize)

		return run(cfg, logger)
	},
	SilenceUsage: true,
}

func init() {
	config.RegisterFlags(rootCmd)
	rootCmd.AddCommand(countCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	return runPipeline(cfg, logger, os.Stdout)
}

func runPipeline(cfg config.Config, logger *slog.Logger, out io.Writer) error {
	f, err := filter.New(filter.Options{
		IncludeHeader: cfg.IncludeHeader,
		IncludeBody:   cfg.IncludeBody,
		ExcludeHeader: cfg.ExcludeHeader,
		ExcludeBody:   cfg.ExcludeBody,
	})
	if err != nil {
		return fmt.Errorf("filter.New: %w", err)
	}

	reader, err := mbox.Open(cfg.MboxPath)
	if err != nil {
		return err
	}

	r := runner.New(cfg, logger)

	// Subscribers first: the producer stage starts emitting events the
	// moment it is registered.
	stats.NewReporter(r, logger)
	progress.NewReporter(reader, r, logger, cfg.LogLevel)

	analyze.NewAnalyzer(cfg, f, r, logger)
	sink.NewWriter(out, cfg.Aggregate, cfg.SortBySize, r, logger)
	mbox.NewProducer(reader, r, logger)

	return r.Start()
}

// setupLogger builds a slog logger on stderr, keeping stdout free for the
// stat lines.
func setupLogger(cfg config.Config) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
