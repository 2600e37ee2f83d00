package query

import (
	"strings"

	"github.com/nastad/tmsis-dashboard/pkg/filter"
)

// Builder turns filter state into SQL boolean fragments for a given alias.
// Callers validate the state against the current domain first; the builder
// still escapes every literal it emits.
type Builder struct {
	dialect Dialect
}

// NewBuilder creates a predicate builder for dialect
func NewBuilder(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// States returns the state restriction, or "" when no state is selected
func (b *Builder) States(fs filter.State, alias string) string {
	if !fs.HasStates() {
		return ""
	}

	return qualify(alias, ColState) + " IN (" + b.dialect.QuoteList(fs.States()) + ")"
}

// Years returns the year restriction, or "" when no year is selected
func (b *Builder) Years(fs filter.State, alias string) string {
	if !fs.HasYears() {
		return ""
	}

	return b.dialect.YearPrefix(qualify(alias, ColMonth)) + " IN (" + b.dialect.QuoteList(fs.Years()) + ")"
}

// Fragments returns the non-empty restrictions for the requested fields, in
// state then year order
func (b *Builder) Fragments(fs filter.State, alias string, fields ...filter.Field) []string {
	var out []string

	if accepts(fields, filter.FieldState) {
		if frag := b.States(fs, alias); frag != "" {
			out = append(out, frag)
		}
	}

	if accepts(fields, filter.FieldYear) {
		if frag := b.Years(fs, alias); frag != "" {
			out = append(out, frag)
		}
	}

	return out
}

// Predicate joins the requested restrictions with AND. The result is empty
// when nothing is selected.
func (b *Builder) Predicate(fs filter.State, alias string, fields ...filter.Field) string {
	return strings.Join(b.Fragments(fs, alias, fields...), " AND ")
}

func accepts(fields []filter.Field, field filter.Field) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}

	return false
}
