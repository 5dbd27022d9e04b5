package incident

import (
	"time"
)

// Severity ranks an incident by how many modules it implicates.
type Severity int

const (
	// SeverityMinor is reserved for single-module incidents; the correlator
	// never opens one (a lone failing module is remediation's job), but the
	// scale keeps the slot for external producers.
	SeverityMinor Severity = iota
	// SeverityModerate covers incidents implicating two modules.
	SeverityModerate
	// SeverityMajor covers incidents implicating three modules.
	SeverityMajor
	// SeverityCritical covers incidents implicating four or more modules.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeverityMajor:
		return "major"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// severityFor maps a failing-module count to a severity.
func severityFor(failing int) Severity {
	switch {
	case failing >= 4:
		return SeverityCritical
	case failing == 3:
		return SeverityMajor
	case failing == 2:
		return SeverityModerate
	default:
		return SeverityMinor
	}
}

// Incident groups temporally-overlapping failures across modules into one
// record, distinguishing a systemic outage from isolated faults.
type Incident struct {
	// ID is the generated incident identifier.
	ID string

	// Modules are the implicated module names.
	Modules []string

	// StartTime is when the incident was opened.
	StartTime time.Time

	// Severity is derived from the implicated-module count at open time.
	Severity Severity

	// Resolved is true once every implicated module reported healthy.
	Resolved bool

	// ResolutionTime is when the incident resolved (zero while open).
	ResolutionTime time.Time

	// RemediationAttempts counts remediation cycles run against implicated
	// modules while the incident was open.
	RemediationAttempts int
}

// covers reports whether the incident implicates the named module.
func (i *Incident) covers(module string) bool {
	for _, m := range i.Modules {
		if m == module {
			return true
		}
	}
	return false
}

// clone returns a copy safe to hand to callers.
func (i *Incident) clone() Incident {
	out := *i
	out.Modules = append([]string(nil), i.Modules...)
	return out
}
