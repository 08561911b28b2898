// Package walker enumerates the qualifying files under a root directory.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"extractor/pkg/logger"
	"extractor/pkg/serrors"

	"go.uber.org/zap"
)

// IsHidden reports whether a file or directory name is hidden under the POSIX
// dotfile convention. "." and ".." are not hidden.
func IsHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// Enumerate walks root depth-first in lexical order and returns the paths of
// files accepted by qualifies. Hidden directories are skipped before
// descending, hidden files before queuing; the root itself is always walked.
// Entries below the root that cannot be read are logged and skipped; a root
// that cannot be listed fails the walk.
func Enumerate(ctx context.Context, root string, qualifies func(path string) bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "root directory does not exist")
		}

		return nil, fmt.Errorf("could not stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, serrors.With(serrors.ErrBadRequest, "root path is not a directory: %s", root)
	}

	return EnumerateFS(ctx, os.DirFS(root), root, qualifies)
}

// EnumerateFS is Enumerate over fsys. Returned paths, and the paths handed to
// qualifies, are the slash-separated fsys paths joined onto root.
func EnumerateFS(ctx context.Context, fsys fs.FS, root string, qualifies func(path string) bool) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		path := filepath.Join(root, filepath.FromSlash(rel))
		if err != nil {
			if rel == "." {
				return serrors.Wrap(serrors.ErrBadRequest, err, "could not read root directory %s", root)
			}

			logger.Warn(ctx, "could not access path, skipping", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if rel == "." {
			return nil
		}

		if IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() || !qualifies(path) {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk %s: %w", root, err)
	}

	return files, nil
}
