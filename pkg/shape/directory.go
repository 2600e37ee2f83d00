package shape

import (
	"fmt"
	"strings"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
)

// DirectoryFilter narrows already-fetched provider rows. Empty fields do not
// restrict; set fields combine conjunctively.
type DirectoryFilter struct {
	// Category keeps rows whose comma-joined CategoriesColumn lists it
	Category string
	// Search keeps rows where any rendered value contains it, ignoring case
	Search string
	// CategoriesColumn names the aggregated categories column
	CategoriesColumn string
}

// Active reports whether the filter restricts anything
func (d DirectoryFilter) Active() bool {
	return strings.TrimSpace(d.Category) != "" || strings.TrimSpace(d.Search) != ""
}

// Apply returns the rows of f that pass the filter
func (d DirectoryFilter) Apply(f *frame.Frame) (*frame.Frame, error) {
	category := strings.TrimSpace(d.Category)
	search := strings.ToLower(strings.TrimSpace(d.Search))

	if category == "" && search == "" {
		return f, nil
	}

	var served *frame.Column
	if category != "" {
		col, ok := f.Column(d.CategoriesColumn)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, d.CategoriesColumn)
		}
		served = col
	}

	return f.Filter(func(i int) bool {
		if served != nil && !listContains(served.String(i), category) {
			return false
		}

		if search != "" && !rowContains(f, i, search) {
			return false
		}

		return true
	}), nil
}

// listContains reports whether the comma-joined list holds item
func listContains(list, item string) bool {
	for _, member := range strings.Split(list, ",") {
		if strings.TrimSpace(member) == item {
			return true
		}
	}

	return false
}

// rowContains reports whether any rendered value of row i contains term
func rowContains(f *frame.Frame, i int, term string) bool {
	for _, col := range f.Columns {
		if strings.Contains(strings.ToLower(col.String(i)), term) {
			return true
		}
	}

	return false
}
