package scanner

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"extractor/internal/output"
	"extractor/internal/walker"
	"extractor/pkg/domain"
	"extractor/pkg/logger"
	"extractor/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracerName scopes the spans emitted by runs.
const tracerName = "extractor/scanner"

// Options configure the instrumentation of a scanner.
type Options struct {
	// Recorder receives per-file and per-run measurements. Nil disables metrics.
	Recorder *metrics.Recorder
	// Tracer creates the run and file spans. Nil uses the global tracer provider.
	Tracer trace.Tracer
}

// scanner is the concrete implementation of the Scanner interface. It owns
// no state between runs.
type scanner struct {
	// options holds the instrumentation hooks.
	options Options
	// extractor reads addresses out of single files.
	extractor Extractor
}

// New returns a Scanner that reads files with extractor.
func New(extractor Extractor, opts Options) Scanner {
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	return scanner{options: opts, extractor: extractor}
}

// Percent returns round(processed/total*100). A run without files is
// reported as complete.
func Percent(processed, total int) int {
	if total <= 0 {
		return 100
	}

	return int(math.Round(float64(processed) / float64(total) * 100))
}

// Run implements Scanner. Files are processed one at a time; each yields a
// FileReport which is drained into the run's address set. Cancellation is
// honored between files and leaves the output untouched.
func (s scanner) Run(ctx context.Context, req domain.ScanRequest, reporter Reporter) (*domain.RunResult, error) {
	start := time.Now()
	if reporter == nil {
		reporter = NopReporter{}
	}

	runID := domain.NewRunID()
	ctx = logger.WithFields(ctx, zap.String("runID", runID.String()))

	if err := req.Validate(); err != nil {
		logger.Error(ctx, "invalid run configuration", zap.Error(err))

		return nil, fmt.Errorf("could not start run: %w", err)
	}

	ctx, span := s.options.Tracer.Start(ctx, "extractor.run",
		trace.WithAttributes(attribute.String("root", req.Root), attribute.String("runID", runID.String())))
	defer span.End()

	files, err := walker.Enumerate(ctx, req.Root, s.extractor.Supports)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "walk failed")
		logger.Error(ctx, "could not enumerate files", zap.String("root", req.Root), zap.Error(err))

		return nil, fmt.Errorf("could not enumerate files: %w", err)
	}

	logger.Info(ctx, "starting run",
		zap.String("root", req.Root),
		zap.Strings("domains", req.DomainFilters),
		zap.Int("files", len(files)))

	res := domain.RunResult{RunID: runID, Files: len(files), Output: req.Output}
	set := domain.EmailSet{}

	if len(files) == 0 {
		reporter.Progress(ctx, domain.Progress{RunID: runID, Percent: Percent(0, 0)})
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			logger.Warn(ctx, "run cancelled", zap.Int("processed", i), zap.Int("files", len(files)))

			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		report := s.extractFile(ctx, path, req.DomainFilters)
		if report.Failed() {
			res.Failed = append(res.Failed, report)
		}
		set.Add(report.Emails...)

		reporter.Progress(ctx, domain.Progress{
			RunID:     runID,
			Path:      path,
			Processed: i + 1,
			Total:     len(files),
			Percent:   Percent(i+1, len(files)),
			Unique:    len(set),
		})
	}

	res.Emails = set.Sorted()
	if len(res.Emails) > 0 {
		if err := output.Write(req.Output, res.Emails); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "write failed")
			logger.Error(ctx, "could not write output", zap.String("output", req.Output), zap.Error(err))

			return nil, fmt.Errorf("could not write output: %w", err)
		}
		res.Written = true
		logger.Info(ctx, "saved unique email addresses",
			zap.Int("emails", len(res.Emails)),
			zap.String("output", req.Output))
	} else {
		logger.Info(ctx, "no email addresses found")
	}

	res.Elapsed = time.Since(start)
	span.SetAttributes(attribute.Int("emails", len(res.Emails)), attribute.Int("failed", len(res.Failed)))
	s.options.Recorder.RunFinished(ctx, len(res.Emails), res.Elapsed)
	logger.Info(ctx, "run finished",
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("failed", len(res.Failed)))

	reporter.Finished(ctx, res)

	return &res, nil
}

// extractFile runs the extractor on one path and turns any failure into a
// FileReport carrying the error.
func (s scanner) extractFile(ctx context.Context, path string, domainFilters []string) domain.FileReport {
	ctx = logger.WithFields(ctx, zap.String("path", path))
	ctx, span := s.options.Tracer.Start(ctx, "extractor.file", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()
	emails, err := s.extractor.Extract(ctx, path, domainFilters)
	s.options.Recorder.FileScanned(ctx, strings.ToLower(filepath.Ext(path)), len(emails), time.Since(start), err != nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		logger.Warn(ctx, "could not extract emails, skipping file", zap.Error(err))

		return domain.FileReport{Path: path, Err: err}
	}

	span.SetAttributes(attribute.Int("emails", len(emails)))
	logger.Debug(ctx, "file extracted", zap.Int("emails", len(emails)))

	return domain.FileReport{Path: path, Emails: emails}
}

// NopReporter discards every event.
type NopReporter struct{}

// Progress implements Reporter.
func (NopReporter) Progress(context.Context, domain.Progress) {}

// Finished implements Reporter.
func (NopReporter) Finished(context.Context, domain.RunResult) {}
