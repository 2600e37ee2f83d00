package shape

import (
	"fmt"
	"sort"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
)

// Pivot reshapes long (period, category, value) rows into one row per period
// with a column per observed category. Periods sort ascending, categories keep
// the order they are first seen in, and absent combinations are zero.
func Pivot(f *frame.Frame, period, category, value string) (*frame.Frame, error) {
	periodCol, ok := f.Column(period)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, period)
	}

	categoryCol, ok := f.Column(category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, category)
	}

	valueCol, ok := f.Column(value)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, value)
	}

	if valueCol.Kind != frame.KindInt && valueCol.Kind != frame.KindFloat {
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, value)
	}

	var (
		periods    []string
		categories []string
		cells      = make(map[string]map[string]float64)
		seen       = make(map[string]struct{})
	)

	for i := 0; i < f.Len(); i++ {
		p := periodCol.String(i)
		c := categoryCol.String(i)

		if _, ok := cells[p]; !ok {
			cells[p] = make(map[string]float64)
			periods = append(periods, p)
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			categories = append(categories, c)
		}

		cells[p][c] += valueCol.Float(i)
	}

	sort.Strings(periods)

	columns := make([]*frame.Column, 0, len(categories)+1)
	periodValues := make([]any, len(periods))
	for i, p := range periods {
		periodValues[i] = p
	}
	columns = append(columns, &frame.Column{Name: period, Kind: frame.KindString, Values: periodValues})

	for _, c := range categories {
		values := make([]any, len(periods))
		for i, p := range periods {
			v := cells[p][c]
			if valueCol.Kind == frame.KindInt {
				values[i] = int64(v)
			} else {
				values[i] = v
			}
		}
		columns = append(columns, &frame.Column{Name: c, Kind: valueCol.Kind, Values: values})
	}

	return frame.New(columns...)
}
