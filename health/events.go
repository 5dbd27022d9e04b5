package health

import "time"

// TransitionType classifies a status transition event.
type TransitionType int

const (
	// TransitionDegraded is emitted when a module leaves StatusHealthy.
	TransitionDegraded TransitionType = iota
	// TransitionRecovered is emitted when a module returns to StatusHealthy.
	TransitionRecovered
)

// String returns the string representation of the transition type.
func (t TransitionType) String() string {
	switch t {
	case TransitionDegraded:
		return "degraded"
	case TransitionRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Transition is emitted whenever an evaluation changes a module's status.
type Transition struct {
	// Module is the affected module name.
	Module string

	// Type is recovered when To is healthy, degraded otherwise.
	Type TransitionType

	// From and To are the previous and current statuses.
	From Status
	To   Status

	// ConsecutiveFailures is the failure streak at the time of transition.
	ConsecutiveFailures int

	// Err is the failure message, if any.
	Err string

	// Record is a snapshot of the module's record after the evaluation.
	Record Record

	// Timestamp is when the transition occurred.
	Timestamp time.Time
}

// Listener receives status transition events from the registry.
//
// Contract:
//   - Concurrency: OnTransition may be called from multiple scheduling
//     goroutines at once (for different modules) and must be safe for
//     concurrent use.
//   - Errors: OnTransition must not panic and should return quickly;
//     long-running reactions belong on the listener's own goroutines.
type Listener interface {
	OnTransition(t Transition)
}

// ListenerFunc is an adapter to allow ordinary functions to be used as
// Listeners.
type ListenerFunc func(t Transition)

// OnTransition calls the wrapped function.
func (f ListenerFunc) OnTransition(t Transition) { f(t) }
