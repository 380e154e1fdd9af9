package features

import (
	"fmt"
	"slices"
	"strings"
)

// Catalog holds the categorical groups resolved and validated against a schema.
type Catalog struct {
	schema   Schema
	groups   []Group
	byName   map[string]int
	warnings []string
}

// CatalogOption applies a configuration option to NewCatalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	lenient bool
}

// WithLenientValidation keeps groups whose option columns are missing from
// the schema and records the mismatches in Warnings instead of failing.
func WithLenientValidation() CatalogOption {
	return func(o *catalogOptions) { o.lenient = true }
}

// NewCatalog resolves groups against schema. Groups marked DeriveFromSchema
// take their options from schema columns named "<Prefix><Separator><Option>".
func NewCatalog(schema Schema, groups []Group, opts ...CatalogOption) (*Catalog, error) {
	var o catalogOptions
	for _, opt := range opts {
		opt(&o)
	}
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: schema is empty", ErrSchemaMismatch)
	}

	c := &Catalog{
		schema: schema,
		groups: make([]Group, 0, len(groups)),
		byName: make(map[string]int, len(groups)),
	}
	var missing []string
	for _, g := range groups {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("%w: group without name", ErrSchemaMismatch)
		}
		if _, dup := c.byName[g.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrSchemaMismatch, g.Name)
		}
		if g.DeriveFromSchema {
			if g.Prefix == "" {
				return nil, fmt.Errorf("%w: group %q derives options but has no prefix", ErrSchemaMismatch, g.Name)
			}
			g.Options = schema.WithPrefix(g.Prefix, g.Separator)
		} else {
			g.Options = slices.Clone(g.Options)
		}
		if len(g.Options) == 0 {
			return nil, fmt.Errorf("%w: group %q has no options", ErrSchemaMismatch, g.Name)
		}
		if g.Default != "" && !slices.Contains(g.Options, g.Default) {
			return nil, fmt.Errorf("%w: default %q of group %q is not an option", ErrInvalidChoice, g.Default, g.Name)
		}
		if g.Label == "" {
			g.Label = g.Name
		}
		for _, opt := range g.Options {
			if col := g.Column(opt); !schema.Has(col) {
				missing = append(missing, g.Name+"."+col)
			}
		}
		c.byName[g.Name] = len(c.groups)
		c.groups = append(c.groups, g)
	}

	if len(missing) > 0 {
		if !o.lenient {
			return nil, fmt.Errorf("%w: columns not in schema: %s", ErrSchemaMismatch, strings.Join(missing, ", "))
		}
		c.warnings = missing
	}
	return c, nil
}

// Schema returns the schema the catalog was validated against.
func (c *Catalog) Schema() Schema { return c.schema }

// Groups returns the resolved groups in declaration order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		g.Options = slices.Clone(g.Options)
		out[i] = g
	}
	return out
}

// Warnings lists "<group>.<column>" entries missing from the schema in lenient mode.
func (c *Catalog) Warnings() []string { return slices.Clone(c.warnings) }

// Choices converts per-group selections into Build input. Groups missing
// from selected use their default, or the first option.
func (c *Catalog) Choices(selected map[string]string) ([]Choice, error) {
	for name := range selected {
		if _, ok := c.byName[name]; !ok {
			return nil, fmt.Errorf("%w: unknown group %q", ErrInvalidChoice, name)
		}
	}
	out := make([]Choice, 0, len(c.groups))
	for _, g := range c.groups {
		sel, ok := selected[g.Name]
		if !ok || sel == "" {
			sel = g.Default
			if sel == "" {
				sel = g.Options[0]
			}
		}
		if !slices.Contains(g.Options, sel) {
			return nil, fmt.Errorf("%w: %q is not an option of %q", ErrInvalidChoice, sel, g.Name)
		}
		out = append(out, Choice{Group: g, Selected: sel, Options: g.Options})
	}
	return out, nil
}
