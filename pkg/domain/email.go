package domain

import "sort"

// Email is an address matched syntactically as local-part@domain. No attempt
// is made to verify that the mailbox exists.
type Email string

// EmailSet accumulates unique addresses across files. Insertion order is not
// retained.
type EmailSet map[Email]struct{}

// Add inserts every address into the set.
func (s EmailSet) Add(emails ...Email) {
	for _, e := range emails {
		s[e] = struct{}{}
	}
}

// Sorted returns the set members in lexical order, or nil for an empty set.
func (s EmailSet) Sorted() []Email {
	if len(s) == 0 {
		return nil
	}

	out := make([]Email, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
