package extract

import (
	"context"
	"io"
	"os"
	"strings"

	"extractor/internal/matcher"
	"extractor/pkg/domain"

	"github.com/go-faster/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func extractText(_ context.Context, path string, domainFilters []string) ([]domain.Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	return matcher.Match(decodeText(data), domainFilters), nil
}

// decodeText turns raw bytes into text without ever failing: a UTF-8 or
// UTF-16 byte order mark selects the encoding, everything else is taken as
// UTF-8, and invalid sequences are dropped.
func decodeText(data []byte) string {
	if decoded, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), data); err == nil {
		data = decoded
	}

	return strings.ToValidUTF8(string(data), "")
}
