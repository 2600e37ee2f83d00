package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidValue is wrapped by every ValidationError
var ErrInvalidValue = errors.New("filter value not in the current domain")

// ValidationError reports selections that are not part of the legal domain.
// A query carrying such a selection must never be built.
type ValidationError struct {
	Field  Field
	Values []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s filter: %s", e.Field, strings.Join(e.Values, ", "))
}

// Unwrap allows errors.Is(err, ErrInvalidValue)
func (e *ValidationError) Unwrap() error {
	return ErrInvalidValue
}

// Domain is the set of legal values for each filter, as last read from the warehouse
type Domain struct {
	States     []string `json:"states"`
	Years      []string `json:"years"`
	Categories []string `json:"categories"`
}

// NewDomain sorts and deduplicates the supplied value lists
func NewDomain(states, years, categories []string) Domain {
	return Domain{
		States:     normalize(states),
		Years:      normalize(years),
		Categories: normalize(categories),
	}
}

// Validate rejects any selected state or year missing from the domain
func (d Domain) Validate(s State) error {
	if bad := missing(d.States, s.states); len(bad) > 0 {
		return &ValidationError{Field: FieldState, Values: bad}
	}

	if bad := missing(d.Years, s.years); len(bad) > 0 {
		return &ValidationError{Field: FieldYear, Values: bad}
	}

	return nil
}

// ValidateCategory rejects a category selection missing from the domain. An
// empty category means "all".
func (d Domain) ValidateCategory(category string) error {
	if category == "" {
		return nil
	}

	if bad := missing(d.Categories, []string{category}); len(bad) > 0 {
		return &ValidationError{Field: FieldCategory, Values: bad}
	}

	return nil
}

// missing returns the selected values absent from the sorted legal list
func missing(legal, selected []string) []string {
	var bad []string

	for _, v := range selected {
		i := sort.SearchStrings(legal, v)
		if i >= len(legal) || legal[i] != v {
			bad = append(bad, v)
		}
	}

	return bad
}
