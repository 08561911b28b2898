package scanner

import (
	"context"

	"extractor/pkg/domain"
)

//go:generate mockgen -package mockscanner -source=interface.go -destination=mock/mockscanner.go *

// Scanner runs one extraction over a directory tree.
type Scanner interface {
	// Run walks req.Root, extracts addresses from every qualifying file and
	// writes the unique set to req.Output. Per-file failures never abort the
	// run; an invalid request or an unreadable root does, before any file is
	// read.
	Run(ctx context.Context, req domain.ScanRequest, reporter Reporter) (*domain.RunResult, error)
}

// Extractor reads addresses out of a single file.
type Extractor interface {
	// Supports reports whether path is a qualifying file.
	Supports(path string) bool
	// Extract returns the addresses found in path, filtered by domainFilters.
	Extract(ctx context.Context, path string, domainFilters []string) ([]domain.Email, error)
}

// Reporter is the presentation side of a run. Calls are made synchronously
// from the goroutine executing Run.
type Reporter interface {
	// Progress is called after every processed file, or once with Percent
	// 100 when the run has no qualifying files.
	Progress(ctx context.Context, p domain.Progress)
	// Finished is called once with the final result of a successful run.
	Finished(ctx context.Context, res domain.RunResult)
}
