// Package main provides the CLI entrypoint of the email extractor.
// It wires subcommands (run, serve), loads configuration, and initializes logging.
package main

import (
	"context"
	"fmt"
	"os"

	"extractor/internal/config"
	"extractor/internal/extract"
	"extractor/internal/scanner"
	"extractor/pkg/logger"
	"extractor/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newScanner builds a scanner whose measurements are exported into a fresh
// Prometheus registry. The returned cleanup flushes the meter provider.
func newScanner(ctx context.Context) (scanner.Scanner, *prometheus.Registry, func()) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewPrometheusProvider(reg)
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}
	recorder, err := metrics.NewRecorder(mp)
	if err != nil {
		logger.Fatal(ctx, "could not create metrics recorder", zap.Error(err))
	}

	registry := extract.NewRegistry()
	logger.Debug(ctx, "registered extractors", zap.Strings("extensions", registry.Extensions()))

	return scanner.New(registry, scanner.Options{Recorder: recorder}), reg, func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
		}
	}
}

// main sets up the root Cobra command, loads configuration and logging before
// any subcommand runs, and executes the CLI.
func main() {
	cfg := &config.Config{}
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "extractor",
		Short:         "Extracts email addresses from documents in a directory tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			*cfg = *loaded

			logger.Setup(cfg.Environment, cfg.LogLevel)

			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "Config File Path")

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		runCommand(cfg),
		serveCommand(cfg),
	)

	err := rootCmd.Execute()
	logger.Sync(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1) //nolint: gocritic
	}
}
