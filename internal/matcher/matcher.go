// Package matcher finds email addresses in text.
package matcher

import (
	"regexp"
	"strings"

	"extractor/pkg/domain"
)

// emailPattern is a pragmatic superset of valid addresses: it accepts some
// RFC-noncompliant forms (e.g. consecutive dots) and is case-sensitive.
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`) //nolint: gochecknoglobals

// Match returns every non-overlapping address in text, in input order and
// with duplicates retained.
//
// When domainFilters is non-empty only addresses whose string ends with one
// of the filters are kept. This is a plain suffix test: it does not check for
// a preceding "@" or ".", so a filter of "com" also keeps "a@b.xcom".
//
// Match never fails; text without addresses yields nil.
func Match(text string, domainFilters []string) []domain.Email {
	found := emailPattern.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}

	out := make([]domain.Email, 0, len(found))
	for _, s := range found {
		if len(domainFilters) > 0 && !hasAnySuffix(s, domainFilters) {
			continue
		}
		out = append(out, domain.Email(s))
	}
	if len(out) == 0 {
		return nil
	}

	return out
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}

	return false
}

// ParseFilters splits a comma-separated filter list as typed by a user,
// trimming whitespace around each entry and dropping empty entries, so that
// "com, org," becomes ["com" "org"] and "" disables filtering.
func ParseFilters(raw string) []string {
	var filters []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			filters = append(filters, part)
		}
	}

	return filters
}
