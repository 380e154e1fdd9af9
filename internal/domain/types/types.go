// Package types contains common types used across the application
package types

import (
	"github.com/okian/homeprice/internal/domain/features"
	"github.com/okian/homeprice/internal/domain/model"
)

// Estimate is the outcome of a successful price estimate.
type Estimate struct {
	RequestID      string             `json:"request_id"`
	Price          float64            `json:"price"`
	FormattedPrice string             `json:"formatted_price"`
	Latitude       float64            `json:"latitude"`
	Longitude      float64            `json:"longitude"`
	Address        string             `json:"address"`
	Features       map[string]float64 `json:"features,omitempty"`
}

// Stats is a snapshot of estimate outcome counters.
type Stats struct {
	Requests          int64 `json:"requests"`
	Succeeded         int64 `json:"succeeded"`
	BadRequests       int64 `json:"bad_requests"`
	GeocodeNotFound   int64 `json:"geocode_not_found"`
	GeocodeFailures   int64 `json:"geocode_failures"`
	InvalidChoices    int64 `json:"invalid_choices"`
	BuildFailures     int64 `json:"build_failures"`
	PredictFailures   int64 `json:"predict_failures"`
	UptimeSeconds     int64 `json:"uptime_seconds"`
	SchemaColumns     int   `json:"schema_columns"`
	CategoricalGroups int   `json:"categorical_groups"`
}

// FormOptions describes the inputs a client may send.
type FormOptions struct {
	Fields []model.FormField `json:"fields"`
	Groups []features.Group  `json:"groups"`
}
