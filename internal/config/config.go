// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults live in New(); Load layers an optional YAML file and env vars on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"github.com/okian/homeprice/internal/domain/features"
	"github.com/okian/homeprice/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SchemaPath points at the ordered feature column list the model was trained on.
	SchemaPath string `koanf:"schema_path"`

	// Predictor selects the model backend: linear or remote.
	Predictor string `koanf:"predictor"`

	// ModelPath is the linear model file (predictor=linear).
	ModelPath string `koanf:"model_path"`

	// PredictorURL is the model server invocation endpoint (predictor=remote).
	PredictorURL string `koanf:"predictor_url"`

	// PredictorTimeoutMS bounds a remote prediction call.
	PredictorTimeoutMS int `koanf:"predictor_timeout_ms"`

	// Geocoder selects the provider: nominatim or google.
	Geocoder string `koanf:"geocoder"`

	// GeocodeBaseURL overrides the provider endpoint.
	GeocodeBaseURL string `koanf:"geocode_base_url"`

	// GeocodeAPIKey is the provider credential. Never commit it to a file.
	GeocodeAPIKey string `koanf:"geocode_api_key"`

	// GeocodeUserAgent identifies this service to Nominatim.
	GeocodeUserAgent string `koanf:"geocode_user_agent"`

	// GeocodeTimeoutMS bounds a single geocode call.
	GeocodeTimeoutMS int `koanf:"geocode_timeout_ms"`

	// GeocodeRatePerSec caps outbound geocode requests.
	GeocodeRatePerSec float64 `koanf:"geocode_rate_per_sec"`

	// StrictFeatures makes the builder fail when a schema column is left unassigned.
	StrictFeatures bool `koanf:"strict_features"`

	// StrictCatalog makes startup fail when a group option has no schema column.
	StrictCatalog bool `koanf:"strict_catalog"`

	// CurrencyLocale is the BCP 47 tag used to format prices.
	CurrencyLocale string `koanf:"currency_locale"`

	// CORSAllowedOrigins lists origins allowed to call the JSON API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsRefreshMS is how often the system gauges are refreshed.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`

	// MetricsLatencyBucketsMS overrides the latency histogram buckets. Empty keeps the defaults.
	MetricsLatencyBucketsMS []float64 `koanf:"metrics_latency_buckets_ms"`

	// MetricsConstLabels are attached to every metric, e.g. {env: prod}.
	MetricsConstLabels map[string]string `koanf:"metrics_const_labels"`

	// FormFields describes the numeric and boolean inputs of the form.
	FormFields []model.FormField `koanf:"form_fields"`

	// CategoricalGroups describes the one-hot groups of the form.
	CategoricalGroups []features.Group `koanf:"categorical_groups"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":8080",
		SchemaPath:         "model/schema.yaml",
		Predictor:          "linear",
		ModelPath:          "model/linear.yaml",
		PredictorTimeoutMS: 5000,
		Geocoder:           "nominatim",
		GeocodeUserAgent:   "homeprice/1.0",
		GeocodeTimeoutMS:   10000,
		GeocodeRatePerSec:  1,
		StrictFeatures:     false,
		StrictCatalog:      true,
		CurrencyLocale:     "en-US",
		CORSAllowedOrigins: []string{"*"},
		MetricsNamespace:   "homeprice",
		MetricsSubsystem:   "estimator",
		MetricsRefreshMS:   10000,
		FormFields:         DefaultFormFields(),
		CategoricalGroups:  DefaultCategoricalGroups(),
	}
}

// DefaultFormFields returns the property inputs of the standard form.
func DefaultFormFields() []model.FormField {
	return []model.FormField{
		{Name: "LivingArea", Label: "Living area (sq ft)", Kind: model.FieldNumber, Min: 200, Max: 10000, Step: 50, Default: 1500},
		{Name: "BathroomsTotalInteger", Label: "Bathrooms", Kind: model.FieldNumber, Min: 0, Max: 10, Step: 1, Default: 2},
		{Name: "BedroomsTotal", Label: "Bedrooms", Kind: model.FieldNumber, Min: 0, Max: 10, Step: 1, Default: 3},
		{Name: "GarageSpaces", Label: "Garage spaces", Kind: model.FieldNumber, Min: 0, Max: 5, Step: 1, Default: 2},
		{Name: "LotSizeSquareFeet", Label: "Lot size (sq ft)", Kind: model.FieldNumber, Min: 500, Max: 100000, Step: 100, Default: 5000},
		{Name: "Age", Label: "Age (years)", Kind: model.FieldNumber, Min: 0, Max: 150, Step: 1, Default: 20},
		{Name: "ViewYN", Label: "View", Kind: model.FieldBool},
		{Name: "PoolPrivateYN", Label: "Private pool", Kind: model.FieldBool},
		{Name: "AttachedGarageYN", Label: "Attached garage", Kind: model.FieldBool},
		{Name: "FireplaceYN", Label: "Fireplace", Kind: model.FieldBool},
		{Name: "NewConstructionYN", Label: "New construction", Kind: model.FieldBool},
	}
}

// DefaultCategoricalGroups returns the one-hot groups of the standard form.
func DefaultCategoricalGroups() []features.Group {
	return []features.Group{
		{Name: "stories", Label: "Stories", Options: []string{"One", "Two", "ThreeOrMore"}},
		{Name: "flooring", Label: "Flooring", Prefix: "Flooring", Separator: "_", Options: []string{"Carpet", "Tile", "Wood", "Laminate", "Vinyl"}},
		{Name: "district", Label: "District", Prefix: "District", Separator: "_", DeriveFromSchema: true},
	}
}
