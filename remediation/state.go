package remediation

import (
	"context"
	"sync"
	"time"
)

// MaxBackoff caps the backoff between remediation attempts for one module.
const MaxBackoff = 5 * time.Minute

// moduleState tracks remediation progress for one module, independent of
// its health record. Created lazily on the first degrade event, pruned by
// the periodic sweep once stale with zero attempts.
type moduleState struct {
	attempts    int
	lastAttempt time.Time // zero = never
	backoff     time.Duration
	locked      bool // true only while an attempt is executing
	createdAt   time.Time
}

// doubleBackoff doubles the backoff, capped at MaxBackoff.
func (s *moduleState) doubleBackoff() {
	s.backoff *= 2
	if s.backoff > MaxBackoff {
		s.backoff = MaxBackoff
	}
}

// Stats is a caller-facing snapshot of one module's remediation state.
type Stats struct {
	Module      string        `json:"module"`
	Attempts    int           `json:"attempts"`
	LastAttempt time.Time     `json:"last_attempt"`
	Backoff     time.Duration `json:"backoff"`
	Locked      bool          `json:"locked"`
}

// RestartFunc restarts one module's underlying service. It reports whether
// the restart took effect.
type RestartFunc func(ctx context.Context) (bool, error)

// RestarterRegistry holds restart callbacks keyed by module name. It is
// consumed only by the built-in service-restart handler.
type RestarterRegistry struct {
	mu  sync.RWMutex
	fns map[string]RestartFunc
}

// NewRestarterRegistry creates an empty restarter registry.
func NewRestarterRegistry() *RestarterRegistry {
	return &RestarterRegistry{fns: make(map[string]RestartFunc)}
}

// Register installs the restart callback for a module, replacing any
// previous one.
func (r *RestarterRegistry) Register(module string, fn RestartFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[module] = fn
}

// Get returns the restart callback for a module.
func (r *RestarterRegistry) Get(module string) (RestartFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[module]
	return fn, ok
}

// Names returns the module names with a registered restarter.
func (r *RestarterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.fns))
	for name := range r.fns {
		out = append(out, name)
	}
	return out
}
