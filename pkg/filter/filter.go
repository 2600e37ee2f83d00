// Package filter holds the analyst's filter selections and their legal value domains
package filter

import (
	"sort"
	"strings"
)

// Field names a filterable dimension
type Field string

const (
	// FieldState restricts rows to practice-location states
	FieldState Field = "state"
	// FieldYear restricts rows to claim years
	FieldYear Field = "year"
	// FieldCategory restricts provider directory rows to a service category
	FieldCategory Field = "category"
)

// State is an immutable snapshot of the current selections. An empty set
// always means "no restriction".
type State struct {
	states []string
	years  []string
}

// New builds a filter state, dropping blank values and sorting and deduplicating the rest
func New(states, years []string) State {
	return State{
		states: normalize(states),
		years:  normalize(years),
	}
}

// States returns a copy of the selected states in sorted order
func (s State) States() []string {
	return append([]string(nil), s.states...)
}

// Years returns a copy of the selected years in sorted order
func (s State) Years() []string {
	return append([]string(nil), s.years...)
}

// HasStates reports whether a state restriction is active
func (s State) HasStates() bool {
	return len(s.states) > 0
}

// HasYears reports whether a year restriction is active
func (s State) HasYears() bool {
	return len(s.years) > 0
}

// IsEmpty reports whether the state applies no restriction at all
func (s State) IsEmpty() bool {
	return !s.HasStates() && !s.HasYears()
}

// WithoutYears returns the same selection with the year restriction dropped
func (s State) WithoutYears() State {
	return State{states: s.states}
}

// String renders the selection for logging
func (s State) String() string {
	return "states=[" + strings.Join(s.states, ",") + "] years=[" + strings.Join(s.years, ",") + "]"
}

func normalize(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		// Values are kept byte for byte so they match the stored data
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}
