package features

import (
	"fmt"
	"slices"
	"strings"
)

// Vector holds one value per schema column, in schema order.
type Vector []float64

// Group declares a categorical field and how its options map to indicator columns.
type Group struct {
	Name             string   `koanf:"name" json:"name"`
	Label            string   `koanf:"label" json:"label"`
	Prefix           string   `koanf:"prefix" json:"prefix,omitempty"`
	Separator        string   `koanf:"separator" json:"separator,omitempty"`
	Options          []string `koanf:"options" json:"options"`
	DeriveFromSchema bool     `koanf:"derive_from_schema" json:"derive_from_schema,omitempty"`
	Default          string   `koanf:"default" json:"default,omitempty"`
}

// Column returns the indicator column name for option.
// Groups without a prefix use the bare option name.
func (g Group) Column(option string) string {
	if g.Prefix == "" {
		return option
	}
	return g.Prefix + g.Separator + option
}

// Choice is a single selected option out of a group's full option list.
type Choice struct {
	Group    Group
	Selected string
	Options  []string
}

type buildOptions struct {
	strict bool
}

// BuildOption tunes Build.
type BuildOption func(*buildOptions)

// WithStrict makes Build fail with ErrMissingValue when a schema column is
// not assigned by numeric input or a categorical group.
func WithStrict() BuildOption {
	return func(o *buildOptions) { o.strict = true }
}

// Build aligns numeric fields and categorical choices to schema.
// Columns not covered default to 0; inputs outside the schema are ignored.
// Build has no side effects.
func Build(schema Schema, numeric map[string]float64, choices []Choice, opts ...BuildOption) (Vector, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: schema is empty", ErrSchemaMismatch)
	}

	vec := make(Vector, schema.Len())
	var assigned []bool
	if o.strict {
		assigned = make([]bool, schema.Len())
	}
	set := func(name string, v float64) {
		i := schema.Index(name)
		if i < 0 {
			return
		}
		vec[i] = v
		if assigned != nil {
			assigned[i] = true
		}
	}

	for name, v := range numeric {
		set(name, v)
	}

	for _, c := range choices {
		if !slices.Contains(c.Options, c.Selected) {
			return nil, fmt.Errorf("%w: %q is not an option of %q", ErrInvalidChoice, c.Selected, c.Group.Name)
		}
		for _, opt := range c.Options {
			v := 0.0
			if opt == c.Selected {
				v = 1
			}
			set(c.Group.Column(opt), v)
		}
	}

	if assigned != nil {
		var missing []string
		for i, ok := range assigned {
			if !ok {
				missing = append(missing, schema.names[i])
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
		}
	}
	return vec, nil
}
