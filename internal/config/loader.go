package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/homeprice/internal/domain/model"
)

const (
	envPrefix     = "HOMEPRICE_"
	envConfigPath = "HOMEPRICE_CONFIG"
)

// listKeys are env values split on commas.
var listKeys = map[string]bool{
	"cors_allowed_origins":       true,
	"metrics_latency_buckets_ms": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if HOMEPRICE_CONFIG is set
//  3. env (prefix HOMEPRICE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// HOMEPRICE_GEOCODE_API_KEY -> geocode_api_key (flat keys).
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Slices decode element-wise onto existing values; drop defaults that are replaced.
	for key, reset := range map[string]func(){
		"cors_allowed_origins":       func() { cfg.CORSAllowedOrigins = nil },
		"metrics_latency_buckets_ms": func() { cfg.MetricsLatencyBucketsMS = nil },
		"form_fields":                func() { cfg.FormFields = nil },
		"categorical_groups":         func() { cfg.CategoricalGroups = nil },
	} {
		if k.Exists(key) {
			reset()
		}
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.SchemaPath == "" {
		return invalid("schema_path must not be empty")
	}
	switch c.Predictor {
	case "linear":
		if c.ModelPath == "" {
			return invalid("model_path is required for the linear predictor")
		}
	case "remote":
		if c.PredictorURL == "" {
			return invalid("predictor_url is required for the remote predictor")
		}
	default:
		return invalid("predictor must be linear or remote, got %q", c.Predictor)
	}
	if c.PredictorTimeoutMS <= 0 {
		return invalid("predictor_timeout_ms must be positive")
	}
	switch c.Geocoder {
	case "nominatim":
		if c.GeocodeUserAgent == "" {
			return invalid("geocode_user_agent is required for nominatim")
		}
	case "google":
		if c.GeocodeAPIKey == "" {
			return invalid("geocode_api_key is required for google")
		}
	default:
		return invalid("geocoder must be nominatim or google, got %q", c.Geocoder)
	}
	if c.GeocodeTimeoutMS <= 0 {
		return invalid("geocode_timeout_ms must be positive")
	}
	if c.GeocodeRatePerSec <= 0 {
		return invalid("geocode_rate_per_sec must be positive")
	}

	if c.MetricsNamespace == "" {
		return invalid("metrics_namespace must not be empty")
	}
	if c.MetricsRefreshMS <= 0 {
		return invalid("metrics_refresh_ms must be positive")
	}
	for i, b := range c.MetricsLatencyBucketsMS {
		if i > 0 && b <= c.MetricsLatencyBucketsMS[i-1] {
			return invalid("metrics_latency_buckets_ms must be strictly increasing")
		}
	}

	seen := make(map[string]bool, len(c.FormFields))
	for _, f := range c.FormFields {
		if f.Name == "" {
			return invalid("form field without name")
		}
		if seen[f.Name] {
			return invalid("duplicate form field %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case model.FieldNumber:
			if f.Max < f.Min {
				return invalid("form field %q: max below min", f.Name)
			}
		case model.FieldBool:
		default:
			return invalid("form field %q: unknown kind %q", f.Name, f.Kind)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
