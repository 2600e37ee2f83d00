package shape

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
)

// DisplayColumn describes one column of a rendered table
type DisplayColumn struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Format Format `json:"format"`
}

// WriteCSV writes the rows of f restricted to columns, in display order. The
// header holds the column keys. Money renders with two decimals and counts as
// integers. With no columns every frame column is written as text.
func WriteCSV(w io.Writer, f *frame.Frame, columns []DisplayColumn) error {
	if len(columns) == 0 {
		for _, name := range f.Names() {
			columns = append(columns, DisplayColumn{Key: name, Label: name, Format: FormatText})
		}
	}

	cols := make([]*frame.Column, len(columns))
	header := make([]string, len(columns))

	for i, dc := range columns {
		col, ok := f.Column(dc.Key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, dc.Key)
		}
		cols[i] = col
		header[i] = dc.Key
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for row := 0; row < f.Len(); row++ {
		for i, dc := range columns {
			record[i] = csvValue(cols[i], row, dc.Format)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func csvValue(col *frame.Column, row int, format Format) string {
	if col.Values[row] == nil {
		return ""
	}

	switch format {
	case FormatMoney:
		return strconv.FormatFloat(col.Float(row), 'f', 2, 64)
	case FormatInt:
		if col.Kind == frame.KindString {
			return col.String(row)
		}
		return strconv.FormatInt(int64(math.Round(col.Float(row))), 10)
	default:
		return col.String(row)
	}
}
