// Package features aligns user input to a trained model's feature schema.
package features

import (
	"fmt"
	"strings"
)

// Schema is the ordered, unique list of feature names a predictor expects.
// The zero value is an empty schema and is rejected by Build.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema validates names and returns an immutable Schema.
// Names must be non-empty and unique; order is preserved.
func NewSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, fmt.Errorf("%w: schema is empty", ErrSchemaMismatch)
	}
	s := Schema{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return Schema{}, fmt.Errorf("%w: blank column at position %d", ErrSchemaMismatch, i)
		}
		if _, dup := s.index[n]; dup {
			return Schema{}, fmt.Errorf("%w: duplicate column %q", ErrSchemaMismatch, n)
		}
		s.names[i] = n
		s.index[n] = i
	}
	return s, nil
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.names) }

// Names returns a copy of the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Has reports whether name is a schema column.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Index returns the position of name, or -1.
func (s Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// WithPrefix returns the option names of columns shaped "<prefix><sep><option>",
// in schema order. The prefix and separator are stripped.
func (s Schema) WithPrefix(prefix, sep string) []string {
	head := prefix + sep
	if head == "" {
		return nil
	}
	var out []string
	for _, n := range s.names {
		if strings.HasPrefix(n, head) && len(n) > len(head) {
			out = append(out, n[len(head):])
		}
	}
	return out
}

// Named pairs a vector with column names. Vectors of the wrong length yield nil.
func (s Schema) Named(v Vector) map[string]float64 {
	if len(v) != len(s.names) {
		return nil
	}
	out := make(map[string]float64, len(v))
	for i, n := range s.names {
		out[n] = v[i]
	}
	return out
}
