// Package incident correlates simultaneous module failures into incidents.
//
// The correlator keeps a bounded, time-ordered buffer of degrade samples
// across all modules. A module is considered failing once it logs two or
// more degraded/unhealthy samples inside the sliding window; when two or
// more distinct modules are failing at once and no open incident already
// covers any of them, a new severity-ranked incident is opened and
// broadcast. An incident resolves exactly when every implicated module
// reports healthy again.
//
// Severity is purely a function of the failing-module count: two modules
// is moderate, three is major, four or more is critical.
package incident
