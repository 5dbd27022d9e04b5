package incident

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/autoheal/audit"
	"github.com/jonwraymond/autoheal/health"
	"github.com/jonwraymond/autoheal/observe"
)

// Fixed correlation policy. A module is "failing" once it logs at least
// two degraded/unhealthy samples inside the window; an incident needs at
// least two failing modules.
const (
	failingOccurrences = 2
	failingModulesMin  = 2
)

// CorrelatorConfig configures the incident correlator.
type CorrelatorConfig struct {
	// Window is the sliding correlation window.
	// Default: 60 seconds
	Window time.Duration

	// MaxSamples bounds the sample buffer regardless of window.
	// Default: 1000
	MaxSamples int

	// Retention is how long resolved incidents are kept before the
	// periodic sweep prunes them.
	// Default: 1 hour
	Retention time.Duration

	// Horizon is the rolling bound the periodic sweep trims the sample
	// buffer to; it is independent of (and longer than) Window.
	// Default: 5 minutes
	Horizon time.Duration

	// Logger receives incident lifecycle logs.
	// Default: no logging
	Logger observe.Logger

	// Metrics records incident open/resolve counts.
	// Default: no metrics
	Metrics observe.Metrics

	// Broadcaster receives incident detected/resolved envelopes.
	// Default: audit.NopBroadcaster
	Broadcaster audit.Broadcaster

	// Now is an injectable clock for tests.
	// Default: time.Now
	Now func() time.Time
}

type sample struct {
	module string
	status health.Status
	at     time.Time
}

// Correlator maintains a sliding window of failure samples across all
// modules and groups co-occurring failures into severity-ranked incidents.
//
// Feeds arrive concurrently from per-module evaluation goroutines; the
// shared buffer and incident map are mutex-protected.
type Correlator struct {
	cfg CorrelatorConfig

	mu        sync.Mutex
	samples   []sample
	incidents map[string]*Incident
}

// NewCorrelator creates a new incident correlator.
func NewCorrelator(config ...CorrelatorConfig) *Correlator {
	cfg := CorrelatorConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Window <= 0 {
		cfg.Window = 60 * time.Second
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 1000
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = audit.NopBroadcaster{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Correlator{
		cfg:       cfg,
		incidents: make(map[string]*Incident),
	}
}

// Observe feeds one degrade/unhealthy sample into the window and opens a
// new incident when at least two distinct modules are failing inside the
// window and no unresolved incident already covers any of them.
//
// The returned incident is a copy of the newly opened record, or nil when
// no incident was opened.
func (c *Correlator) Observe(module string, status health.Status, at time.Time) *Incident {
	now := c.cfg.Now()
	if at.IsZero() {
		at = now
	}

	c.mu.Lock()

	c.samples = append(c.samples, sample{module: module, status: status, at: at})
	c.trimLocked(now.Add(-c.cfg.Window))
	if len(c.samples) > c.cfg.MaxSamples {
		c.samples = c.samples[len(c.samples)-c.cfg.MaxSamples:]
	}

	failing := c.failingLocked()
	if len(failing) < failingModulesMin || c.coveredLocked(failing) {
		c.mu.Unlock()
		return nil
	}

	inc := &Incident{
		ID:        uuid.NewString(),
		Modules:   failing,
		StartTime: now,
		Severity:  severityFor(len(failing)),
	}
	c.incidents[inc.ID] = inc
	snapshot := inc.clone()
	c.mu.Unlock()

	ctx := context.Background()
	c.cfg.Logger.Warn(ctx, "incident opened",
		observe.Field{Key: "incident", Value: snapshot.ID},
		observe.Field{Key: "severity", Value: snapshot.Severity.String()},
		observe.Field{Key: "modules", Value: snapshot.Modules},
	)
	c.cfg.Metrics.RecordIncident(ctx, snapshot.Severity.String(), false)
	c.cfg.Broadcaster.Broadcast(audit.Envelope{
		Type:      audit.EventIncidentDetected,
		Data:      snapshot,
		Timestamp: now,
	})

	return &snapshot
}

// failingLocked returns the sorted names of modules with at least
// failingOccurrences degraded/unhealthy samples inside the window.
func (c *Correlator) failingLocked() []string {
	counts := make(map[string]int)
	for _, s := range c.samples {
		if s.status == health.StatusDegraded || s.status == health.StatusUnhealthy {
			counts[s.module]++
		}
	}

	var failing []string
	for module, n := range counts {
		if n >= failingOccurrences {
			failing = append(failing, module)
		}
	}
	sort.Strings(failing)
	return failing
}

// coveredLocked reports whether any unresolved incident already implicates
// one of the given modules.
func (c *Correlator) coveredLocked(modules []string) bool {
	for _, inc := range c.incidents {
		if inc.Resolved {
			continue
		}
		for _, m := range modules {
			if inc.covers(m) {
				return true
			}
		}
	}
	return false
}

func (c *Correlator) trimLocked(cutoff time.Time) {
	idx := 0
	for idx < len(c.samples) && !c.samples[idx].at.After(cutoff) {
		idx++
	}
	if idx > 0 {
		c.samples = append(c.samples[:0], c.samples[idx:]...)
	}
}

// RecordAttempt increments the remediation-attempt counter on every
// unresolved incident implicating the module.
func (c *Correlator) RecordAttempt(module string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, inc := range c.incidents {
		if !inc.Resolved && inc.covers(module) {
			inc.RemediationAttempts++
		}
	}
}

// ResolveHealthy marks every unresolved incident resolved once all of its
// implicated modules report healthy, and broadcasts each resolution.
// isHealthy is consulted per module; it must be safe for concurrent use.
func (c *Correlator) ResolveHealthy(isHealthy func(module string) bool) []Incident {
	now := c.cfg.Now()

	c.mu.Lock()
	var resolved []Incident
	for _, inc := range c.incidents {
		if inc.Resolved {
			continue
		}
		all := true
		for _, m := range inc.Modules {
			if !isHealthy(m) {
				all = false
				break
			}
		}
		if all {
			inc.Resolved = true
			inc.ResolutionTime = now
			resolved = append(resolved, inc.clone())
		}
	}
	c.mu.Unlock()

	ctx := context.Background()
	for _, inc := range resolved {
		c.cfg.Logger.Info(ctx, "incident resolved",
			observe.Field{Key: "incident", Value: inc.ID},
			observe.Field{Key: "duration", Value: inc.ResolutionTime.Sub(inc.StartTime).String()},
		)
		c.cfg.Metrics.RecordIncident(ctx, inc.Severity.String(), true)
		c.cfg.Broadcaster.Broadcast(audit.Envelope{
			Type:      audit.EventIncidentResolved,
			Data:      inc,
			Timestamp: now,
		})
	}
	return resolved
}

// Active returns copies of all unresolved incidents.
func (c *Correlator) Active() []Incident {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Incident
	for _, inc := range c.incidents {
		if !inc.Resolved {
			out = append(out, inc.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// All returns copies of every retained incident, resolved included.
func (c *Correlator) All() []Incident {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Incident, 0, len(c.incidents))
	for _, inc := range c.incidents {
		out = append(out, inc.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// Sweep prunes incidents resolved longer than the retention window ago and
// trims the sample buffer to the rolling horizon. Called by the engine's
// periodic cleanup.
func (c *Correlator) Sweep() {
	now := c.cfg.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, inc := range c.incidents {
		if inc.Resolved && now.Sub(inc.ResolutionTime) > c.cfg.Retention {
			delete(c.incidents, id)
		}
	}
	c.trimLocked(now.Add(-c.cfg.Horizon))
}
