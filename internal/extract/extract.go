// Package extract reads supported document types and returns the email
// addresses found in them.
//
// Supported formats:
//   - .txt, .csv, .sql: whole file as text, invalid bytes dropped
//   - .xlsx, .xls: first sheet, header row skipped, one text blob per column (cells space-joined)
//   - .docx: each paragraph matched independently
//   - .zip: only entries whose name ends with "valid.csv", read as text
//
// Extension matching is case-insensitive.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"extractor/pkg/domain"
	"extractor/pkg/serrors"
)

// Extractor returns the addresses found in one file, already filtered by
// the domain suffixes.
type Extractor interface {
	Extract(ctx context.Context, path string, domainFilters []string) ([]domain.Email, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, path string, domainFilters []string) ([]domain.Email, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, path string, domainFilters []string) ([]domain.Email, error) {
	return f(ctx, path, domainFilters)
}

// Registry dispatches files to extractors by extension.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with all built-in extractors registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}

	r.Register(Func(extractText), ".txt", ".csv", ".sql")
	r.Register(Func(extractXLSX), ".xlsx")
	r.Register(Func(extractXLS), ".xls")
	r.Register(Func(extractDOCX), ".docx")
	r.Register(Func(extractZIP), ".zip")

	return r
}

// Register binds an extractor to one or more extensions, replacing any
// previous binding. Extensions are normalized to lower case with a leading dot.
func (r *Registry) Register(e Extractor, extensions ...string) {
	for _, ext := range extensions {
		r.extractors[normalizeExt(ext)] = e
	}
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.extractors[normalizeExt(filepath.Ext(path))]

	return ok
}

// Extensions returns the registered extensions in lexical order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return exts
}

// Extract dispatches path to the extractor registered for its extension.
// Any failure, including a panic inside a format library, is returned as an
// error naming the path and no addresses are returned.
func (r *Registry) Extract(ctx context.Context, path string, domainFilters []string) (emails []domain.Email, err error) {
	e, ok := r.extractors[normalizeExt(filepath.Ext(path))]
	if !ok {
		return nil, serrors.With(serrors.ErrUnsupported, "no extractor for %s", path)
	}

	defer func() {
		if p := recover(); p != nil {
			emails = nil
			err = serrors.Wrap(serrors.ErrCorrupt, fmt.Errorf("panic: %v", p), "could not read %s", path)
		}
	}()

	emails, err = e.Extract(ctx, path, domainFilters)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrCorrupt, err, "could not read %s", path)
	}

	return emails, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return ext
}
