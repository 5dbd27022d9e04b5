package resilience

import "errors"

var (
	// ErrCircuitOpen is returned while a breaker is shedding calls to a
	// collaborator that has exceeded its failure threshold.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when every retry attempt failed.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the token bucket is empty and
	// the caller chose not to wait.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when every concurrency slot is taken.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation was abandoned at its
	// deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
