package health

import (
	"context"
	"time"
)

// Status represents the health status of a monitored module.
type Status int

const (
	// StatusHealthy indicates the module is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the module is failing below its threshold.
	StatusDegraded
	// StatusUnhealthy indicates the module has reached its failure threshold.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// CheckResult is the outcome reported by a module's check function.
type CheckResult struct {
	// Healthy reports whether the module is currently functioning.
	Healthy bool

	// Latency is the probe latency as measured by the check itself.
	// If zero, the evaluator substitutes the observed wall time.
	Latency time.Duration

	// Message provides additional context about the outcome.
	Message string

	// Metadata contains arbitrary details about the check. It is overlaid
	// onto the module's registration metadata in the record and every
	// audit entry.
	Metadata map[string]any
}

// CheckFunc is a caller-supplied probe for a single module.
//
// Contract:
//   - Concurrency: may be invoked from the registry's scheduling goroutines;
//     must be safe for concurrent use with itself across ticks.
//   - Context: should honor cancellation, but the evaluator does not force
//     cancellation at timeout - a timed-out check keeps running in the
//     background and its result is discarded (abandon, don't kill). Checks
//     with side effects must guard against duplicate effects themselves.
//   - Errors: a non-nil error is equivalent to CheckResult{Healthy: false};
//     a panic is recovered and treated the same way.
type CheckFunc func(ctx context.Context) (CheckResult, error)

// Pass creates a healthy check result.
func Pass(message string) CheckResult {
	return CheckResult{Healthy: true, Message: message}
}

// Fail creates an unhealthy check result.
func Fail(message string) CheckResult {
	return CheckResult{Healthy: false, Message: message}
}

// WithMetadata adds metadata to a check result.
func (r CheckResult) WithMetadata(md map[string]any) CheckResult {
	r.Metadata = md
	return r
}

// WithLatency sets the self-reported latency on a check result.
func (r CheckResult) WithLatency(d time.Duration) CheckResult {
	r.Latency = d
	return r
}

// CheckOptions holds per-module scheduling options.
type CheckOptions struct {
	// Interval is how often the module is evaluated.
	// Default: 30 seconds
	Interval time.Duration

	// Timeout is the maximum time a single evaluation waits for the check.
	// Default: 5 seconds
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count at which the module
	// is classified unhealthy rather than degraded.
	// Default: 3
	FailureThreshold int

	// Disabled registers the module without starting its timer.
	Disabled bool

	// Metadata is attached to the module's record and every audit entry.
	Metadata map[string]any
}

func (o CheckOptions) withDefaults() CheckOptions {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 3
	}
	return o
}
