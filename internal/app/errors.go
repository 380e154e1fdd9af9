package service

import (
	"errors"
	"fmt"

	"github.com/okian/homeprice/internal/domain/features"
	"github.com/okian/homeprice/internal/domain/predict"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrGeocodeNotFound = errors.New("address not found")
	ErrGeocodeProvider = errors.New("geocoding provider unavailable")
	ErrNotConfigured   = errors.New("service not configured")

	// Kinds owned by the domain packages.
	ErrPrediction     = predict.ErrPrediction
	ErrSchemaMismatch = features.ErrSchemaMismatch
	ErrMissingValue   = features.ErrMissingValue
	ErrInvalidChoice  = features.ErrInvalidChoice
)

// Error is a failed estimate step. Both Kind and Err match errors.Is.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Kind returns the sentinel kind of err, or nil when err carries none.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []error{ErrBadRequest, ErrGeocodeNotFound, ErrGeocodeProvider, ErrPrediction,
		ErrSchemaMismatch, ErrMissingValue, ErrInvalidChoice} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
