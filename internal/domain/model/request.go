// Package model contains domain models passed between layers.
package model

// FieldKind distinguishes numeric inputs from yes/no flags.
type FieldKind string

// Supported field kinds.
const (
	FieldNumber FieldKind = "number"
	FieldBool   FieldKind = "bool"
)

// FormField describes one property input rendered by the form and accepted by the API.
type FormField struct {
	Name    string    `koanf:"name" json:"name"`
	Label   string    `koanf:"label" json:"label"`
	Kind    FieldKind `koanf:"kind" json:"kind"`
	Min     float64   `koanf:"min" json:"min,omitempty"`
	Max     float64   `koanf:"max" json:"max,omitempty"`
	Step    float64   `koanf:"step" json:"step,omitempty"`
	Default float64   `koanf:"default" json:"default,omitempty"`
}

// InRange reports whether v is acceptable for a numeric field.
// Fields without bounds accept any value.
func (f FormField) InRange(v float64) bool {
	if f.Kind != FieldNumber || (f.Min == 0 && f.Max == 0) {
		return true
	}
	return v >= f.Min && v <= f.Max
}

// EstimateRequest is one price estimate request.
type EstimateRequest struct {
	RequestID string             // assigned by the service when empty
	Address   string             // free-text address to geocode
	Numeric   map[string]float64 // semantic field name -> value
	Flags     map[string]bool    // boolean amenities, encoded as 1/0
	Choices   map[string]string  // categorical group name -> selected option
	// IncludeFeatures asks for the named feature vector in the response.
	IncludeFeatures bool
}
