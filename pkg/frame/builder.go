package frame

import (
	"fmt"
	"strconv"
)

// Builder accumulates rows whose column types are only known once data is seen
type Builder struct {
	names []string
	cols  [][]any
}

// NewBuilder creates a builder for the given column names
func NewBuilder(names ...string) *Builder {
	return &Builder{
		names: names,
		cols:  make([][]any, len(names)),
	}
}

// Append adds one row. Byte slices are stored as strings, integer types as
// int64 and floating point types as float64.
func (b *Builder) Append(row []any) error {
	if len(row) != len(b.names) {
		return fmt.Errorf("%w: row has %d values, want %d", ErrLengthMismatch, len(row), len(b.names))
	}

	for i, v := range row {
		b.cols[i] = append(b.cols[i], normalize(v))
	}

	return nil
}

// Frame finalizes the accumulated rows, inferring each column's kind
func (b *Builder) Frame() *Frame {
	f := &Frame{Columns: make([]*Column, len(b.names))}

	for i, name := range b.names {
		values := b.cols[i]
		if values == nil {
			values = make([]any, 0)
		}

		kind := InferKind(values)
		f.Columns[i] = &Column{Name: name, Kind: kind, Values: coerce(kind, values)}
	}

	return f
}

// InferKind picks the narrowest kind able to hold every non-nil value
func InferKind(values []any) Kind {
	kind := Kind("")

	for _, v := range values {
		switch v.(type) {
		case nil:
			continue
		case string:
			return KindString
		case float64:
			kind = KindFloat
		case int64:
			if kind == "" {
				kind = KindInt
			}
		}
	}

	if kind == "" {
		return KindString
	}

	return kind
}

func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case string:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint32:
		return int64(t)
	case uint64:
		return int64(t) //nolint:gosec // warehouse aggregates fit in int64
	case float32:
		return float64(t)
	case float64:
		return t
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	default:
		return fmt.Sprint(t)
	}
}

func coerce(kind Kind, values []any) []any {
	if kind != KindFloat && kind != KindString {
		return values
	}

	out := make([]any, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case int64:
			if kind == KindFloat {
				out[i] = float64(t)
			} else {
				out[i] = strconv.FormatInt(t, 10)
			}
		case float64:
			if kind == KindString {
				out[i] = strconv.FormatFloat(t, 'f', -1, 64)
			} else {
				out[i] = t
			}
		default:
			out[i] = v
		}
	}

	return out
}
