package health

import "time"

// Record holds the live metrics for a registered module.
//
// A record is created at registration with StatusHealthy and zeroed
// counters, mutated only by the evaluator after each check, and survives
// until the module is unregistered. Callers always receive copies; the
// registry owns the canonical record.
type Record struct {
	// Name is the module's unique key.
	Name string

	// Status is the derived health status.
	Status Status

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int

	// ConsecutiveSuccesses counts successes since the last failure.
	ConsecutiveSuccesses int

	// TotalChecks counts every evaluation, pass or fail.
	TotalChecks int

	// SuccessfulChecks counts passing evaluations.
	SuccessfulChecks int

	// FailedChecks counts failing evaluations.
	FailedChecks int

	// AverageLatency is the running mean latency over successful checks.
	AverageLatency time.Duration

	// LastCheckTime is when the module was last evaluated (zero = never).
	LastCheckTime time.Time

	// LastHealthyTime is when the module last passed a check (zero = never).
	LastHealthyTime time.Time

	// LastError is the message from the most recent failure (empty = none).
	LastError string

	// Enabled reports whether the module's timer is currently running.
	Enabled bool

	// Metadata is the opaque bag supplied at registration, overlaid with
	// whatever the most recent check reported.
	Metadata map[string]any
}

// clone returns a copy safe to hand to callers. The metadata map is shared;
// the evaluator replaces it wholesale instead of mutating it.
func (r Record) clone() Record {
	return r
}

// reset returns the record to its just-registered state, preserving
// identity, enablement and metadata.
func (r *Record) reset() {
	name, enabled, md := r.Name, r.Enabled, r.Metadata
	*r = Record{Name: name, Enabled: enabled, Metadata: md}
}

// OverallHealth summarizes the registry at a point in time.
type OverallHealth struct {
	Total      int
	Healthy    int
	Degraded   int
	Unhealthy  int
	AllHealthy bool
}
