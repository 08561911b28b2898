package matcher_test

import (
	"testing"

	"extractor/internal/matcher"
	"extractor/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		filters []string
		want    []domain.Email
	}{
		{
			name: "no addresses",
			text: "nothing to see here @ all",
			want: nil,
		},
		{
			name: "input order and duplicates retained",
			text: "b@y.org, a@x.com; b@y.org",
			want: []domain.Email{"b@y.org", "a@x.com", "b@y.org"},
		},
		{
			name:    "suffix filter",
			text:    "a@x.com b@y.org",
			filters: []string{"com"},
			want:    []domain.Email{"a@x.com"},
		},
		{
			name:    "any filter may match",
			text:    "a@x.com b@y.org c@z.net",
			filters: []string{"org", "net"},
			want:    []domain.Email{"b@y.org", "c@z.net"},
		},
		{
			name:    "suffix is not domain-boundary aware",
			text:    "a@b.xcom",
			filters: []string{"com"},
			want:    []domain.Email{"a@b.xcom"},
		},
		{
			name:    "filters remove everything",
			text:    "a@x.com",
			filters: []string{"org"},
			want:    nil,
		},
		{
			name: "tld needs two letters",
			text: "a@x.c",
			want: nil,
		},
		{
			name: "greedy domain",
			text: "<john.doe+tag@mail.example.co.uk>",
			want: []domain.Email{"john.doe+tag@mail.example.co.uk"},
		},
		{
			name: "punctuation trims the match",
			text: "mailto:jane_doe%1@host-name.io!",
			want: []domain.Email{"jane_doe%1@host-name.io"},
		},
		{
			name: "whitespace ends the local part",
			text: "foo bar@baz.com",
			want: []domain.Email{"bar@baz.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, matcher.Match(tt.text, tt.filters))
		})
	}
}

func TestMatch_CaseSensitiveTLD(t *testing.T) {
	// the TLD class includes upper case letters, the filter does not fold case
	require.Equal(t, []domain.Email{"A@X.COM"}, matcher.Match("A@X.COM", nil))
	require.Nil(t, matcher.Match("A@X.COM", []string{"com"}))
}

func TestParseFilters(t *testing.T) {
	require.Nil(t, matcher.ParseFilters(""))
	require.Nil(t, matcher.ParseFilters(" , ,"))
	require.Equal(t, []string{"com", "org"}, matcher.ParseFilters(" com, org ,"))
	require.Equal(t, []string{"example.com"}, matcher.ParseFilters("example.com"))
}
