package remediation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/autoheal/health"
)

// Result is the outcome of one handler execution. It is a value object:
// consumed once, folded into the module's remediation state and the audit
// boundary, never stored.
type Result struct {
	// Success reports whether the handler considers the module repaired.
	Success bool

	// Action is a short label for what was done.
	Action string

	// Message is a human-readable description of the outcome.
	Message string

	// Duration is how long the handler ran.
	Duration time.Duration

	// RequiresManualIntervention forces immediate escalation regardless of
	// Success.
	RequiresManualIntervention bool
}

// Handler is a pluggable, priority-ordered remediation strategy.
//
// Contract:
//   - Concurrency: CanHandle and Execute may run concurrently for different
//     modules; the engine guarantees they never run concurrently for the
//     same module.
//   - Context: Execute should honor cancellation/deadlines.
//   - Errors: a non-nil error is a handler exception - the engine logs it,
//     doubles the module's backoff, and aborts the remediation cycle. A
//     handler that ran but did not fix the module should instead return
//     Result{Success: false} with a nil error.
type Handler interface {
	// Name returns a unique identifier for this handler.
	Name() string

	// Priority orders the chain; lower values are tried first. Ties are
	// broken by registration order.
	Priority() int

	// CanHandle reports whether this handler applies to the module in its
	// current state.
	CanHandle(module string, rec health.Record) bool

	// Execute attempts the repair.
	Execute(ctx context.Context, module string, rec health.Record) (Result, error)
}

// chain is the shared, append-then-resort handler list. Reads vastly
// outnumber writes; iteration works on snapshots so a concurrent
// registration never corrupts a remediation attempt in flight.
type chain struct {
	mu       sync.RWMutex
	handlers []Handler
}

// add appends a handler and resorts by priority, keeping registration
// order for equal priorities.
func (c *chain) add(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers = append(c.handlers, h)
	sort.SliceStable(c.handlers, func(i, j int) bool {
		return c.handlers[i].Priority() < c.handlers[j].Priority()
	})
}

// snapshot returns the current chain in priority order.
func (c *chain) snapshot() []Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Handler, len(c.handlers))
	copy(out, c.handlers)
	return out
}

// names returns the handler names in priority order.
func (c *chain) names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.handlers))
	for i, h := range c.handlers {
		out[i] = h.Name()
	}
	return out
}
