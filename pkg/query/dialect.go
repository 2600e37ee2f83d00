package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDialect is returned when no dialect matches the configured name
var ErrUnknownDialect = errors.New("unknown SQL dialect")

// Dialect captures the handful of SQL differences between supported warehouses
type Dialect struct {
	Name string
	// YearPrefix renders the expression extracting the 4-character year from a
	// YYYY-MM month column.
	YearPrefix func(expr string) string
	// DistinctList renders an aggregate joining the distinct values of expr
	// with ", ".
	DistinctList func(expr string) string
	// BackslashEscapes is set when the dialect treats backslash inside string
	// literals as an escape character.
	BackslashEscapes bool
}

//nolint:gochecknoglobals // Dialects are fixed at compile time
var (
	// ClickHouse is the production warehouse dialect
	ClickHouse = Dialect{
		Name: "clickhouse",
		YearPrefix: func(expr string) string {
			return fmt.Sprintf("LEFT(%s, 4)", expr)
		},
		DistinctList: func(expr string) string {
			return fmt.Sprintf("arrayStringConcat(arraySort(groupUniqArray(%s)), ', ')", expr)
		},
		BackslashEscapes: true,
	}

	// SQLite is used for fixture and extract warehouses
	SQLite = Dialect{
		Name: "sqlite",
		YearPrefix: func(expr string) string {
			return fmt.Sprintf("substr(%s, 1, 4)", expr)
		},
		DistinctList: func(expr string) string {
			// DISTINCT aggregates take one argument, so members are joined with
			// the default "," and a trailing char(31) marks the real separators.
			member := expr + " || char(31)"
			return fmt.Sprintf("RTRIM(REPLACE(GROUP_CONCAT(DISTINCT %s ORDER BY %s), char(31) || ',', ', '), char(31))", member, member)
		},
	}
)

// DialectByName resolves a dialect from its configured name
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case ClickHouse.Name:
		return ClickHouse, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// Quote renders value as a single-quoted SQL string literal. Embedded quotes
// are doubled so the value can never terminate the literal early.
func (d Dialect) Quote(value string) string {
	if d.BackslashEscapes {
		value = strings.ReplaceAll(value, `\`, `\\`)
	}

	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// QuoteList renders values as a comma separated list of literals
func (d Dialect) QuoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = d.Quote(v)
	}

	return strings.Join(quoted, ", ")
}
