package mind

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or argument failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamClosed indicates an operation on a closed event source.
	ErrStreamClosed = errors.New("stream closed")

	// ErrNotFound indicates the backend has no such resource.
	ErrNotFound = errors.New("not found")
)
