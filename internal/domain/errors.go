// Package domain contains the core domain models and types.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure cases.
var (
	// ErrEmptyInput indicates the user text is empty or whitespace only.
	ErrEmptyInput = errors.New("input text is empty")

	// ErrInputTooLarge indicates the input exceeds the maximum allowed size.
	ErrInputTooLarge = errors.New("input exceeds maximum size")

	// ErrSchemaUnavailable indicates the schema fetch failed and no cached
	// analysis exists to fall back to.
	ErrSchemaUnavailable = errors.New("schema unavailable")

	// ErrPerspectiveBuild indicates an individual perspective's candidate
	// build failed. Isolated per perspective; siblings continue.
	ErrPerspectiveBuild = errors.New("perspective build failed")

	// ErrBuilderTimeout indicates the query builder did not respond in time.
	ErrBuilderTimeout = errors.New("query builder timeout")

	// ErrBuilderUnavailable indicates the query builder is not available.
	ErrBuilderUnavailable = errors.New("query builder unavailable")

	// ErrInvalidBuilderResponse indicates the builder response failed validation.
	ErrInvalidBuilderResponse = errors.New("invalid query builder response")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// PipelineError wraps an error with additional context.
type PipelineError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// WrapError creates a new PipelineError with context.
func WrapError(op string, err error, retryable bool) *PipelineError {
	return &PipelineError{
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
