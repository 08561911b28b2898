package domain

import (
	"fmt"
	"time"

	"extractor/pkg/serrors"

	"github.com/google/uuid"
)

// RunID uniquely identifies one extraction run in logs, metrics and the
// progress stream.
type RunID uuid.UUID

// NewRunID returns a random run ID.
func NewRunID() RunID { return RunID(uuid.New()) }

// String returns the canonical UUID form.
func (id RunID) String() string { return uuid.UUID(id).String() }

// Mode selects what a run scans.
type Mode string

const (
	// ModeDirectory walks a directory tree. It is the only supported mode.
	ModeDirectory Mode = "directory"
)

// ScanRequest is the immutable input of a run.
type ScanRequest struct {
	// Mode selects the scan strategy; empty means ModeDirectory.
	Mode Mode `json:"mode,omitempty"`
	// Root is the directory to walk.
	Root string `json:"root"`
	// DomainFilters keeps only addresses ending with one of the entries.
	// An empty list disables filtering.
	DomainFilters []string `json:"domains,omitempty"`
	// Output is the file the unique addresses are written to.
	Output string `json:"output"`
}

// Validate reports an invalid run configuration. Runs that fail validation
// must abort before any file is read.
func (r ScanRequest) Validate() error {
	switch r.Mode {
	case "", ModeDirectory:
	default:
		return serrors.With(serrors.ErrBadRequest, "invalid mode %q", r.Mode)
	}
	if r.Root == "" {
		return serrors.With(serrors.ErrBadRequest, "root path is required")
	}
	if r.Output == "" {
		return serrors.With(serrors.ErrBadRequest, "output path is required")
	}

	return nil
}

// FileReport is the outcome of extracting one file. Err is set when the
// file could not be opened or parsed; Emails is then empty.
type FileReport struct {
	Path   string
	Emails []Email
	Err    error
}

// Failed reports whether the extraction of the file failed.
func (f FileReport) Failed() bool { return f.Err != nil }

// Progress is emitted after every processed file.
type Progress struct {
	RunID RunID
	// Path is the file that was just processed. Empty when the run had no
	// qualifying files.
	Path string
	// Processed is the number of files handled so far, including failures.
	Processed int
	// Total is the number of qualifying files found by the walker.
	Total int
	// Percent is round(Processed/Total*100), or 100 when Total is zero.
	Percent int
	// Unique is the number of distinct addresses collected so far.
	Unique int
}

// RunResult is the final state of a run. It is handed to the reporter and
// discarded; nothing survives between runs except the output file.
type RunResult struct {
	RunID RunID
	// Emails holds the unique addresses in lexical order.
	Emails []Email
	// Files is the number of qualifying files processed.
	Files int
	// Failed lists the files whose extraction failed.
	Failed []FileReport
	// Output is the path the addresses were written to.
	Output string
	// Written is false when no address was found and the output file was
	// left untouched.
	Written bool
	// Elapsed is the wall-clock duration of the whole run.
	Elapsed time.Duration
}

// ElapsedSeconds returns Elapsed as fractional seconds.
func (r RunResult) ElapsedSeconds() float64 { return r.Elapsed.Seconds() }

// Summary is the one-line outcome shown to users.
func (r RunResult) Summary() string {
	if !r.Written {
		return "No email addresses found."
	}

	return fmt.Sprintf("Found %d unique email addresses. Saved to %s.", len(r.Emails), r.Output)
}
