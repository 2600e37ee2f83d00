// Package frame provides the columnar result set returned by warehouse queries
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Define static errors
var (
	ErrLengthMismatch = errors.New("column length mismatch")
	ErrUnknownKind    = errors.New("unknown column kind")
)

// Kind identifies the value type held by a column
type Kind string

const (
	// KindString holds string values
	KindString Kind = "string"
	// KindInt holds int64 values
	KindInt Kind = "int"
	// KindFloat holds float64 values
	KindFloat Kind = "float"
)

// Column is a named, homogeneous sequence of values. A nil entry is SQL NULL.
type Column struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Values []any  `json:"values"`
}

// Frame is an ordered set of equally sized columns. Frames handed out by the
// executor are shared between callers and must be treated as read-only.
type Frame struct {
	Columns []*Column `json:"columns"`
}

// New creates a frame from columns, checking that every column has the same length
func New(columns ...*Column) (*Frame, error) {
	for _, col := range columns {
		if len(col.Values) != len(columns[0].Values) {
			return nil, fmt.Errorf("%w: %s has %d values, %s has %d", ErrLengthMismatch,
				col.Name, len(col.Values), columns[0].Name, len(columns[0].Values))
		}
	}

	return &Frame{Columns: columns}, nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	if f == nil || len(f.Columns) == 0 {
		return 0
	}

	return len(f.Columns[0].Values)
}

// Names returns the column names in order
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		names[i] = col.Name
	}

	return names
}

// Column looks up a column by name
func (f *Frame) Column(name string) (*Column, bool) {
	for _, col := range f.Columns {
		if col.Name == name {
			return col, true
		}
	}

	return nil, false
}

// Row returns the values of row i in column order
func (f *Frame) Row(i int) []any {
	row := make([]any, len(f.Columns))
	for j, col := range f.Columns {
		row[j] = col.Values[i]
	}

	return row
}

// Records returns every row as a name to value map
func (f *Frame) Records() []map[string]any {
	records := make([]map[string]any, f.Len())
	for i := range records {
		record := make(map[string]any, len(f.Columns))
		for _, col := range f.Columns {
			record[col.Name] = col.Values[i]
		}
		records[i] = record
	}

	return records
}

// Filter returns a new frame holding only the rows for which keep returns true
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	out := &Frame{Columns: make([]*Column, len(f.Columns))}
	for j, col := range f.Columns {
		out.Columns[j] = &Column{Name: col.Name, Kind: col.Kind, Values: make([]any, 0)}
	}

	for i := 0; i < f.Len(); i++ {
		if !keep(i) {
			continue
		}
		for j, col := range f.Columns {
			out.Columns[j].Values = append(out.Columns[j].Values, col.Values[i])
		}
	}

	return out
}

// Float returns the numeric value at row i, treating NULL and strings as zero
func (c *Column) Float(i int) float64 {
	switch v := c.Values[i].(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

// String renders the value at row i the way it is displayed
func (c *Column) String(i int) string {
	switch v := c.Values[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// UnmarshalJSON restores column values with their declared kind, since JSON
// numbers otherwise decode as float64 and lose integer identity.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string            `json:"name"`
		Kind   Kind              `json:"kind"`
		Values []json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.Kind = raw.Kind
	c.Values = make([]any, len(raw.Values))

	for i, msg := range raw.Values {
		v, err := DecodeValue(raw.Kind, msg)
		if err != nil {
			return fmt.Errorf("column %s row %d: %w", raw.Name, i, err)
		}
		c.Values[i] = v
	}

	return nil
}

// DecodeValue converts a raw JSON value into the Go type for kind
func DecodeValue(kind Kind, msg json.RawMessage) (any, error) {
	if len(msg) == 0 || string(msg) == "null" {
		return nil, nil
	}

	switch kind {
	case KindString:
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			// Non-string scalars are rendered as their literal text
			return string(msg), nil //nolint:nilerr // fall back to literal text
		}
		return s, nil
	case KindInt:
		return parseInt(msg)
	case KindFloat:
		return parseFloat(msg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func parseInt(msg json.RawMessage) (any, error) {
	text := unquote(msg)
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %s: %w", string(msg), err)
	}

	return int64(math.Round(f)), nil
}

func parseFloat(msg json.RawMessage) (any, error) {
	f, err := strconv.ParseFloat(unquote(msg), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid float %s: %w", string(msg), err)
	}

	return f, nil
}

// unquote strips the quotes ClickHouse puts around 64-bit integers
func unquote(msg json.RawMessage) string {
	s := string(msg)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}
