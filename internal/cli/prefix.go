// Package cli provides CLI infrastructure for rk.
package cli

import (
	"fmt"
	"sort"
	"strings"
)

// MatchPrefix finds a unique choice from a prefix, e.g. "sq" for "sqlite".
// what names the kind of choice in errors.
func MatchPrefix(what, prefix string, choices []string) (string, error) {
	match, matches := matchPrefix(prefix, choices)
	switch {
	case match != "":
		return match, nil
	case len(matches) == 0:
		return "", fmt.Errorf("unknown %s %q (valid: %s)", what, strings.ToLower(prefix), strings.Join(choices, ", "))
	default:
		return "", fmt.Errorf("ambiguous %s %q matches: %s", what, strings.ToLower(prefix), strings.Join(matches, ", "))
	}
}

// ResolveID expands an ID prefix to the full ID of exactly one record.
// An exact match always wins; kind names the record type in errors.
func ResolveID(kind, prefix string, ids []string) (string, error) {
	if prefix == "" {
		return "", &NotFoundError{Type: kind, ID: `""`}
	}
	match, matches := matchPrefix(prefix, ids)
	switch {
	case match != "":
		return match, nil
	case len(matches) == 0:
		return "", &NotFoundError{Type: kind, ID: prefix}
	default:
		sort.Strings(matches)
		return "", &AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
}

// matchPrefix returns the unique case-insensitive match for prefix, or
// every candidate starting with it when there is no single winner.
func matchPrefix(prefix string, candidates []string) (string, []string) {
	prefix = strings.ToLower(prefix)

	// First check for exact match
	for _, c := range candidates {
		if strings.ToLower(c) == prefix {
			return c, nil
		}
	}

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return "", matches
}
