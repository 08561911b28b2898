// Package output persists the unique addresses of a run as a newline
// delimited text file.
package output

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"extractor/pkg/domain"
	"extractor/pkg/serrors"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to the output path to name the lock file that
// serializes writers across processes. It is never removed, so every writer
// locks the same inode.
const LockSuffix = ".lock"

// Write replaces the file at path with one address per line. The content is
// written to a temporary file in the same directory and renamed over path,
// so readers never observe a partial file. A concurrent writer holding the
// lock makes Write fail with serrors.ErrConflict instead of waiting.
func Write(path string, emails []domain.Email) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	lockPath := path + LockSuffix
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("could not lock %s: %w", lockPath, err)
	}
	if !locked {
		_ = lock.Close()

		return serrors.With(serrors.ErrConflict, "output %s is being written by another process", path)
	}
	defer func() { _ = lock.Unlock() }()

	var buf bytes.Buffer
	for _, e := range emails {
		buf.WriteString(string(e))
		buf.WriteByte('\n')
	}

	return atomicWrite(dir, path, buf.Bytes())
}

func atomicWrite(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// removes the temp file on every error path; after a successful rename
	// tmp is set to nil
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("could not write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("could not sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("could not set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("could not rename temp file to %s: %w", path, err)
	}
	tmp = nil

	return nil
}

// Read loads an output file back, one address per non-blank line.
func Read(path string) ([]domain.Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open output: %w", err)
	}
	defer f.Close()

	var emails []domain.Email
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			emails = append(emails, domain.Email(line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read output: %w", err)
	}

	return emails, nil
}
