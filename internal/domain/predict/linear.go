package predict

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rotisserie/eris"

	"github.com/okian/homeprice/internal/domain/features"
)

// Target transforms a linear model may have been trained on.
const (
	transformNone  = ""
	transformLog1p = "log1p"
)

// LinearModel is a linear regression bound to schema positions.
type LinearModel struct {
	intercept float64
	weights   []float64
	transform string
}

// LinearOption applies a configuration option to NewLinearModel.
type LinearOption func(*LinearModel)

// WithTargetTransform sets the inverse transform applied to the raw output.
// Only "" and "log1p" are understood.
func WithTargetTransform(name string) LinearOption {
	return func(m *LinearModel) {
		m.transform = strings.ToLower(strings.TrimSpace(name))
	}
}

// NewLinearModel binds named coefficients to schema positions. Columns
// without a coefficient weigh 0; coefficients for unknown columns are an error.
func NewLinearModel(schema features.Schema, intercept float64, coefficients map[string]float64, opts ...LinearOption) (*LinearModel, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: %w: schema is empty", ErrLoadModel, features.ErrSchemaMismatch)
	}
	m := &LinearModel{
		intercept: intercept,
		weights:   make([]float64, schema.Len()),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.transform != transformNone && m.transform != transformLog1p {
		return nil, fmt.Errorf("%w: unknown target transform %q", ErrLoadModel, m.transform)
	}

	var unknown []string
	for name, w := range coefficients {
		i := schema.Index(name)
		if i < 0 {
			unknown = append(unknown, name)
			continue
		}
		m.weights[i] = w
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %w: coefficients for unknown columns: %s",
			ErrLoadModel, features.ErrSchemaMismatch, strings.Join(unknown, ", "))
	}
	return m, nil
}

// LoadLinearModel reads a YAML or JSON linear model artifact from path.
func LoadLinearModel(path string, schema features.Schema) (*LinearModel, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, eris.Wrapf(ErrLoadModel, "read %s: %v", path, err)
	}
	if !k.Exists("coefficients") {
		return nil, eris.Wrapf(ErrLoadModel, "%s has no coefficients", path)
	}

	coefficients, err := flatCoefficients(k)
	if err != nil {
		return nil, eris.Wrapf(ErrLoadModel, "%s: %v", path, err)
	}
	return NewLinearModel(schema, k.Float64("intercept"), coefficients,
		WithTargetTransform(k.String("target_transform")))
}

// flatCoefficients reads coefficients from the flattened key space so column
// names containing the koanf delimiter survive intact.
func flatCoefficients(k *koanf.Koanf) (map[string]float64, error) {
	out := make(map[string]float64)
	prefix := "coefficients."
	for key, v := range k.All() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		w, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("coefficient %q is not a number", name)
		}
		out[name] = w
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Predict returns intercept + w·v, inverted through the target transform.
func (m *LinearModel) Predict(ctx context.Context, v features.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(ErrPrediction, err.Error())
	}
	if len(v) != len(m.weights) {
		return 0, eris.Wrapf(ErrPrediction, "vector length %d, model expects %d", len(v), len(m.weights))
	}
	y := m.intercept
	for i, x := range v {
		y += m.weights[i] * x
	}
	if m.transform == transformLog1p {
		y = math.Expm1(y)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, eris.Wrap(ErrPrediction, "non-finite prediction")
	}
	return y, nil
}
