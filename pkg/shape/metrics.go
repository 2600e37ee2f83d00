// Package shape post-processes warehouse results for display: summary
// metrics, category pivots, directory filters and CSV export
package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Define static errors
var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnknownMetric = errors.New("unknown metric kind")
	ErrNotNumeric    = errors.New("column is not numeric")
)

// Format controls how a value is rendered
type Format string

const (
	// FormatText renders the value as is
	FormatText Format = "text"
	// FormatInt renders a whole number with thousands separators
	FormatInt Format = "int"
	// FormatMoney renders a dollar amount with two decimals
	FormatMoney Format = "money"
)

// MetricKind selects the reduction computed for a metric
type MetricKind string

const (
	// MetricCount counts rows
	MetricCount MetricKind = "count"
	// MetricSum sums a numeric column
	MetricSum MetricKind = "sum"
	// MetricDistinct counts distinct non-null values of a column
	MetricDistinct MetricKind = "distinct"
)

// MetricSpec declares one headline metric of a view
type MetricSpec struct {
	Label  string
	Kind   MetricKind
	Column string
	Format Format
}

// Metric is a computed headline number
type Metric struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// Count returns the number of rows
func Count(f *frame.Frame) int {
	return f.Len()
}

// Sum adds the numeric values of column, treating NULL as zero
func Sum(f *frame.Frame, column string) (float64, error) {
	col, ok := f.Column(column)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	if col.Kind != frame.KindInt && col.Kind != frame.KindFloat {
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, column)
	}

	total := 0.0
	for i := range col.Values {
		total += col.Float(i)
	}

	return total, nil
}

// CountDistinct counts the distinct non-null values of column
func CountDistinct(f *frame.Frame, column string) (int, error) {
	col, ok := f.Column(column)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	seen := make(map[string]struct{}, len(col.Values))
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		seen[col.String(i)] = struct{}{}
	}

	return len(seen), nil
}

// Metrics computes specs over the displayed rows of f
func Metrics(f *frame.Frame, specs []MetricSpec) ([]Metric, error) {
	out := make([]Metric, 0, len(specs))

	for _, spec := range specs {
		var value float64

		switch spec.Kind {
		case MetricCount:
			value = float64(Count(f))
		case MetricSum:
			sum, err := Sum(f, spec.Column)
			if err != nil {
				return nil, err
			}
			value = sum
		case MetricDistinct:
			n, err := CountDistinct(f, spec.Column)
			if err != nil {
				return nil, err
			}
			value = float64(n)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, spec.Kind)
		}

		out = append(out, Metric{Label: spec.Label, Value: value, Text: FormatNumber(value, spec.Format)})
	}

	return out, nil
}

// FormatNumber renders v for display: "1,234" for counts, "$1,234.50" for money
func FormatNumber(v float64, format Format) string {
	printer := message.NewPrinter(language.AmericanEnglish)

	switch format {
	case FormatMoney:
		return printer.Sprintf("$%.2f", v)
	case FormatInt:
		return printer.Sprintf("%d", int64(math.Round(v)))
	default:
		return printer.Sprint(v)
	}
}
