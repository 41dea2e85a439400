package service

import "errors"

// ErrValidation marks input that fails structural validation before it
// reaches the store: unknown event types, missing identifiers, out-of-range
// confidence or a negative count.
var ErrValidation = errors.New("validation failed")
