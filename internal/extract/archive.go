package extract

import (
	"archive/zip"
	"context"
	"io"
	"strings"

	"extractor/internal/matcher"
	"extractor/pkg/domain"

	"github.com/go-faster/errors"
)

// archiveEntrySuffix selects the archive entries that are scanned. Every
// other entry is ignored and nested archives are not opened.
const archiveEntrySuffix = "valid.csv"

func extractZIP(ctx context.Context, path string, domainFilters []string) ([]domain.Email, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	defer zr.Close()

	var emails []domain.Email
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, archiveEntrySuffix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := readEntry(f)
		if err != nil {
			return nil, errors.Wrapf(err, "read entry %q", f.Name)
		}
		emails = append(emails, matcher.Match(decodeText(data), domainFilters)...)
	}

	return emails, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
