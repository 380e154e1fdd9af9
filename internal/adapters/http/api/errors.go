package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/homeprice/internal/app"
)

// ErrBadRequest marks input rejected before it reaches the service.
var ErrBadRequest = errors.New("bad request")

// kindError tags an error with the handler operation and a sentinel kind.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}

// Classification maps an error to the response a client sees.
type Classification struct {
	Status  int
	Code    string
	Message string
}

// Classify maps service and API errors to a status, a stable code and a
// message safe to show to users.
func Classify(err error) Classification {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrBadRequest):
		return Classification{http.StatusBadRequest, "bad_request", "The request is incomplete or malformed. Check the address and field values."}
	case errors.Is(err, service.ErrInvalidChoice):
		return Classification{http.StatusBadRequest, "invalid_choice", "One of the selected options is not available."}
	case errors.Is(err, service.ErrGeocodeNotFound):
		return Classification{http.StatusUnprocessableEntity, "geocode_not_found", "Address not found. Please check the address and try again."}
	case errors.Is(err, service.ErrGeocodeProvider):
		return Classification{http.StatusBadGateway, "geocode_provider_error", "The address lookup service is unavailable. Please try again later."}
	case errors.Is(err, service.ErrPrediction):
		return Classification{http.StatusBadGateway, "prediction_error", "The price model could not produce an estimate. Please try again later."}
	case errors.Is(err, service.ErrMissingValue):
		return Classification{http.StatusInternalServerError, "missing_value", "The model needs inputs this form does not provide."}
	case errors.Is(err, service.ErrSchemaMismatch):
		return Classification{http.StatusInternalServerError, "schema_mismatch", "The model configuration does not match its feature schema."}
	default:
		return Classification{http.StatusInternalServerError, "internal_error", "Something went wrong while estimating the price."}
	}
}
