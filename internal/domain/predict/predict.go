// Package predict defines the contract for turning a feature vector into a price.
package predict

import (
	"context"
	"errors"

	"github.com/okian/homeprice/internal/domain/features"
)

// Sentinel error kinds for this package.
var (
	ErrPrediction = errors.New("prediction failed")
	ErrLoadModel  = errors.New("load model failed")
)

// Predictor computes a price from a vector aligned to the model's schema.
// Implementations may block (remote model servers) and must honor ctx.
type Predictor interface {
	Predict(ctx context.Context, v features.Vector) (float64, error)
}

// Kind names a predictor implementation selected by configuration.
type Kind string

// Predictor kinds.
const (
	KindLinear Kind = "linear"
	KindRemote Kind = "remote"
)
