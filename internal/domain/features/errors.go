package features

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrMissingValue   = errors.New("missing value")
	ErrInvalidChoice  = errors.New("invalid choice")
)
