package audit

import (
	"errors"
)

var (
	// ErrGeneratorRequired is returned by New when no generative model is
	// available.
	ErrGeneratorRequired = errors.New("generative model is not configured")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid audit request")
	// ErrTimeout is returned when the caller's context ends before the
	// audit completes. It wraps the context error.
	ErrTimeout = errors.New("audit deadline exceeded")
)
