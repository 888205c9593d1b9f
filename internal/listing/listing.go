// Package listing filters and sorts in-memory record lists for the
// dashboard list screens. Lists are never modified in place: Apply returns
// a new slice and leaves the caller's collection as it was.
package listing

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownField is returned when a spec names a field the list does not expose.
var ErrUnknownField = errors.New("unknown field")

// Fields maps a field name to an accessor returning the value used for
// filtering and sorting.
type Fields[T any] map[string]func(T) any

// Matcher decides whether a field value passes a filter.
type Matcher func(v any) bool

// Spec is a declarative list query: every filter must match, then the
// survivors are ordered by SortKey.
type Spec struct {
	Filters map[string]Matcher
	SortKey string
	Desc    bool
}

// Apply returns the records of items that pass every filter in spec,
// ordered by spec.SortKey when one is set. Filtering keeps the original
// relative order. Sorting uses an unstable sort, so records with equal
// keys may come back in any order.
func Apply[T any](items []T, fields Fields[T], spec Spec) ([]T, error) {
	type check struct {
		get   func(T) any
		match Matcher
	}
	checks := make([]check, 0, len(spec.Filters))
	for name, m := range spec.Filters {
		get, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("filter %q: %w", name, ErrUnknownField)
		}
		if m == nil {
			continue
		}
		checks = append(checks, check{get: get, match: m})
	}

	var sortBy func(T) any
	if spec.SortKey != "" {
		get, ok := fields[spec.SortKey]
		if !ok {
			return nil, fmt.Errorf("sort %q: %w", spec.SortKey, ErrUnknownField)
		}
		sortBy = get
	}

	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, c := range checks {
			if !c.match(c.get(it)) {
				continue next
			}
		}
		out = append(out, it)
	}

	if sortBy != nil {
		slices.SortFunc(out, func(a, b T) int {
			c := Compare(sortBy(a), sortBy(b))
			if spec.Desc {
				return -c
			}
			return c
		})
	}
	return out, nil
}

// Filter is Apply without sorting, for callers with a single predicate.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
