package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"extractor/internal/config"
	"extractor/internal/matcher"
	"extractor/internal/progress"
	"extractor/internal/scanner"
	"extractor/pkg/domain"
	"extractor/pkg/logger"
	"extractor/pkg/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runFlags are the command line overrides of the scan section of the config.
type runFlags struct {
	root        string
	output      string
	domains     string
	metricsFile string
	noProgress  bool
}

// scanRequest merges flags over the configured defaults. Only flags set on
// the command line win.
func (f runFlags) scanRequest(cmd *cobra.Command, cfg *config.Config) domain.ScanRequest {
	req := domain.ScanRequest{
		Mode:          domain.ModeDirectory,
		Root:          cfg.Scan.Root,
		Output:        cfg.Scan.Output,
		DomainFilters: matcher.ParseFilters(strings.Join(cfg.Scan.Domains, ",")),
	}
	if cmd.Flags().Changed("root") {
		req.Root = f.root
	}
	if cmd.Flags().Changed("output") {
		req.Output = f.output
	}
	if cmd.Flags().Changed("domains") {
		req.DomainFilters = matcher.ParseFilters(f.domains)
	}

	return req
}

func runCommand(cfg *config.Config) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scans a directory tree once and writes the unique addresses to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, reg, closeMetrics := newScanner(ctx)
			defer closeMetrics()

			var reporter scanner.Reporter = progress.NewStdout()
			if flags.noProgress {
				reporter = scanner.NopReporter{}
			}

			req := flags.scanRequest(cmd, cfg)
			res, err := s.Run(ctx, req, reporter)
			if err != nil {
				return fmt.Errorf("could not run: %w", err)
			}

			metricsFile := cfg.Scan.MetricsFile
			if cmd.Flags().Changed("metrics-file") {
				metricsFile = flags.metricsFile
			}
			if metricsFile != "" {
				if err := metrics.WriteTextfile(metricsFile, reg); err != nil {
					logger.Warn(ctx, "could not write metrics", zap.String("path", metricsFile), zap.Error(err))
				}
			}

			if flags.noProgress {
				fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "Directory to scan")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "File the unique addresses are written to")
	cmd.Flags().StringVarP(&flags.domains, "domains", "d", "", "Comma separated domain suffixes to keep")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Only print the summary line")

	return cmd
}
