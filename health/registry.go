package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/autoheal/audit"
	"github.com/jonwraymond/autoheal/observe"
	"github.com/jonwraymond/autoheal/resilience"
)

// RegistryConfig configures the health registry.
type RegistryConfig struct {
	// Logger receives registry warnings and evaluation errors.
	// Default: no logging
	Logger observe.Logger

	// Metrics records evaluation telemetry.
	// Default: no metrics
	Metrics observe.Metrics

	// Tracer spans individual evaluations.
	// Default: no tracing
	Tracer observe.Tracer

	// Audit receives one CheckRecord per evaluation. Write errors are
	// logged and swallowed.
	// Default: audit.NopSink
	Audit audit.Sink

	// MaxConcurrentChecks caps how many evaluations run at once across all
	// modules. Zero means unlimited. Per-module evaluations never overlap
	// regardless of this setting.
	MaxConcurrentChecks int

	// Now is an injectable clock for record timestamps.
	// Default: time.Now
	Now func() time.Time
}

// module is the registry's internal per-module state.
type module struct {
	check    CheckFunc
	opts     CheckOptions
	record   Record
	checking bool          // re-entrancy guard for evaluations
	stop     chan struct{} // closed to stop the scheduling loop
}

// Registry holds one record per registered module and runs an independent
// periodic evaluation timer for each. It only observes and reports; no
// remediation logic lives here.
//
// All maps are owned by the registry and exposed to other components only
// through accessor methods returning copies.
type Registry struct {
	cfg      RegistryConfig
	bulkhead *resilience.Bulkhead

	mu        sync.RWMutex
	modules   map[string]*module
	listeners []Listener
	stopped   bool
}

// NewRegistry creates a new health registry.
func NewRegistry(config ...RegistryConfig) *Registry {
	cfg := RegistryConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NopTracer()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NopSink{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Registry{
		cfg:     cfg,
		modules: make(map[string]*module),
	}
	if cfg.MaxConcurrentChecks > 0 {
		r.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrentChecks,
			MaxWait:       time.Second,
		})
	}
	return r
}

// AddListener registers a listener for status transition events.
func (r *Registry) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Register adds a module with the given check function and options and
// starts its evaluation timer. Re-registering an existing name first
// unregisters it; there is no silent merge of options or metrics.
func (r *Registry) Register(name string, check CheckFunc, opts CheckOptions) {
	opts = opts.withDefaults()

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.cfg.Logger.Warn(context.Background(), "register on stopped registry ignored",
			observe.Field{Key: "module", Value: name},
			observe.Field{Key: "error", Value: ErrRegistryStopped.Error()},
		)
		return
	}

	if prev, ok := r.modules[name]; ok {
		stopLoop(prev)
	}

	m := &module{
		check: check,
		opts:  opts,
		record: Record{
			Name:     name,
			Enabled:  !opts.Disabled,
			Metadata: opts.Metadata,
		},
	}
	r.modules[name] = m
	if m.record.Enabled {
		m.stop = make(chan struct{})
		go r.schedule(name, opts.Interval, m.stop)
	}
	r.mu.Unlock()

	r.cfg.Logger.Debug(context.Background(), "module registered",
		observe.Field{Key: "module", Value: name},
		observe.Field{Key: "interval", Value: opts.Interval.String()},
	)
}

// Unregister stops the module's timer and removes its record. Unknown names
// are a no-op with a logged warning.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	m, ok := r.modules[name]
	if ok {
		stopLoop(m)
		delete(r.modules, name)
	}
	r.mu.Unlock()

	if !ok {
		r.cfg.Logger.Warn(context.Background(), "unregister of unknown module",
			observe.Field{Key: "module", Value: name})
	}
}

// Enable restarts the module's evaluation timer without touching its
// metrics. Unknown names are a no-op with a logged warning.
func (r *Registry) Enable(name string) {
	r.mu.Lock()
	m, ok := r.modules[name]
	if ok && !m.record.Enabled && !r.stopped {
		m.record.Enabled = true
		m.stop = make(chan struct{})
		go r.schedule(name, m.opts.Interval, m.stop)
	}
	r.mu.Unlock()

	if !ok {
		r.cfg.Logger.Warn(context.Background(), "enable of unknown module",
			observe.Field{Key: "module", Value: name})
	}
}

// Disable stops the module's evaluation timer without discarding its
// metrics. Unknown names are a no-op with a logged warning.
func (r *Registry) Disable(name string) {
	r.mu.Lock()
	m, ok := r.modules[name]
	if ok && m.record.Enabled {
		m.record.Enabled = false
		stopLoop(m)
	}
	r.mu.Unlock()

	if !ok {
		r.cfg.Logger.Warn(context.Background(), "disable of unknown module",
			observe.Field{Key: "module", Value: name})
	}
}

// ResetMetrics returns the module's record to its just-registered state.
// Unknown names are a no-op with a logged warning.
func (r *Registry) ResetMetrics(name string) {
	r.mu.Lock()
	m, ok := r.modules[name]
	if ok {
		m.record.reset()
	}
	r.mu.Unlock()

	if !ok {
		r.cfg.Logger.Warn(context.Background(), "metrics reset of unknown module",
			observe.Field{Key: "module", Value: name})
	}
}

// Get returns a snapshot of the module's record.
func (r *Registry) Get(name string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[name]
	if !ok {
		return Record{}, ErrModuleNotFound
	}
	return m.record.clone(), nil
}

// All returns snapshots of every registered module's record.
func (r *Registry) All() map[string]Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Record, len(r.modules))
	for name, m := range r.modules {
		out[name] = m.record.clone()
	}
	return out
}

// Names returns the registered module names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	return names
}

// IsHealthy reports whether the named module is currently healthy.
// Unknown modules are reported unhealthy.
func (r *Registry) IsHealthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[name]
	return ok && m.record.Status == StatusHealthy
}

// Overall summarizes the registry by status.
func (r *Registry) Overall() OverallHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := OverallHealth{Total: len(r.modules)}
	for _, m := range r.modules {
		switch m.record.Status {
		case StatusHealthy:
			out.Healthy++
		case StatusDegraded:
			out.Degraded++
		case StatusUnhealthy:
			out.Unhealthy++
		}
	}
	out.AllHealthy = out.Unhealthy == 0 && out.Degraded == 0
	return out
}

// CheckNow forces one evaluation of the named module, subject to the same
// re-entrancy guard as scheduled evaluations.
func (r *Registry) CheckNow(ctx context.Context, name string) {
	r.evaluate(ctx, name)
}

// CheckAllNow forces one evaluation of every enabled module, running them
// concurrently with a bounded group.
func (r *Registry) CheckAllNow(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, name := range r.Names() {
		g.Go(func() error {
			r.evaluate(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
}

// Stop idempotently stops every module timer. Records remain queryable;
// subsequent Register calls are ignored with a warning.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopped = true
	for _, m := range r.modules {
		stopLoop(m)
		m.record.Enabled = false
	}
}

func stopLoop(m *module) {
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

// schedule runs the module's recurring evaluation timer until stopped.
func (r *Registry) schedule(name string, interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.evaluate(context.Background(), name)
		}
	}
}

// evaluate runs one health evaluation for the named module: it races the
// check function against the module's timeout, folds the outcome into the
// record, emits a transition event on status change, and persists the
// evaluation through the audit boundary.
//
// A timed-out check is abandoned, not cancelled: its goroutine keeps
// running and its eventual result is discarded.
func (r *Registry) evaluate(ctx context.Context, name string) {
	r.mu.Lock()
	m, ok := r.modules[name]
	if !ok || m.checking || !m.record.Enabled {
		r.mu.Unlock()
		return
	}
	m.checking = true
	check := m.check
	timeout := m.opts.Timeout
	r.mu.Unlock()

	// Release the re-entrancy guard in a final step, even on panic paths.
	defer func() {
		r.mu.Lock()
		m.checking = false
		r.mu.Unlock()
	}()

	run := func(ctx context.Context) error {
		r.runCheck(ctx, name, m, check, timeout)
		return nil
	}

	if r.bulkhead != nil {
		if err := r.bulkhead.Execute(ctx, run); err != nil {
			r.cfg.Logger.Warn(ctx, "evaluation skipped: too many concurrent checks",
				observe.Field{Key: "module", Value: name})
		}
		return
	}
	_ = run(ctx)
}

type checkOutcome struct {
	res CheckResult
	err error
}

func (r *Registry) runCheck(ctx context.Context, name string, m *module, check CheckFunc, timeout time.Duration) {
	ctx, span := r.cfg.Tracer.StartSpan(ctx, "health.check", name)

	start := time.Now()
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				outcomeCh <- checkOutcome{err: fmt.Errorf("check panicked: %v", p)}
			}
		}()
		res, err := check(ctx)
		outcomeCh <- checkOutcome{res: res, err: err}
	}()

	var out checkOutcome
	select {
	case out = <-outcomeCh:
	case <-time.After(timeout):
		out = checkOutcome{err: ErrCheckTimeout}
	}

	latency := time.Since(start)
	if out.err == nil && out.res.Latency > 0 {
		latency = out.res.Latency
	}

	failed := out.err != nil || !out.res.Healthy
	failMsg := ""
	if out.err != nil {
		failMsg = out.err.Error()
	} else if failed {
		failMsg = out.res.Message
		if failMsg == "" {
			failMsg = ErrCheckFailed.Error()
		}
	}

	snapshot, transition := r.apply(m, failed, failMsg, latency, out.res.Metadata)

	r.cfg.Tracer.EndSpan(span, out.err)
	r.cfg.Metrics.RecordCheck(ctx, name, snapshot.Status.String(), latency, failed)

	if transition != nil {
		r.notify(*transition)
	}

	// Every evaluation is persisted, transition or not. Audit failures are
	// logged and swallowed; they never affect the evaluation flow.
	if err := r.cfg.Audit.RecordCheck(ctx, audit.CheckRecord{
		Module:              name,
		Status:              snapshot.Status.String(),
		Latency:             latency,
		ConsecutiveFailures: snapshot.ConsecutiveFailures,
		Error:               snapshot.LastError,
		Metadata:            snapshot.Metadata,
		Timestamp:           snapshot.LastCheckTime,
	}); err != nil {
		r.cfg.Logger.Warn(ctx, "audit write failed",
			observe.Field{Key: "module", Value: name},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}

// apply folds one evaluation outcome into the module's record and returns a
// snapshot plus a transition event if the status changed.
func (r *Registry) apply(m *module, failed bool, failMsg string, latency time.Duration, checkMD map[string]any) (Record, *Transition) {
	now := r.cfg.Now()

	r.mu.Lock()
	rec := &m.record
	prev := rec.Status

	rec.TotalChecks++
	rec.LastCheckTime = now

	// Check-reported metadata overlays the registration metadata. The map
	// is rebuilt rather than mutated so earlier snapshots stay stable.
	if len(checkMD) != 0 {
		md := make(map[string]any, len(m.opts.Metadata)+len(checkMD))
		for k, v := range m.opts.Metadata {
			md[k] = v
		}
		for k, v := range checkMD {
			md[k] = v
		}
		rec.Metadata = md
	}

	if failed {
		rec.FailedChecks++
		rec.ConsecutiveFailures++
		rec.ConsecutiveSuccesses = 0
		rec.LastError = failMsg
		if rec.ConsecutiveFailures >= m.opts.FailureThreshold {
			rec.Status = StatusUnhealthy
		} else {
			rec.Status = StatusDegraded
		}
	} else {
		rec.SuccessfulChecks++
		rec.ConsecutiveSuccesses++
		rec.ConsecutiveFailures = 0
		rec.LastHealthyTime = now
		rec.LastError = ""
		n := rec.SuccessfulChecks
		rec.AverageLatency = (rec.AverageLatency*time.Duration(n-1) + latency) / time.Duration(n)
		rec.Status = StatusHealthy
	}

	snapshot := rec.clone()
	r.mu.Unlock()

	if snapshot.Status == prev {
		return snapshot, nil
	}

	tt := TransitionDegraded
	if snapshot.Status == StatusHealthy {
		tt = TransitionRecovered
	}
	return snapshot, &Transition{
		Module:              snapshot.Name,
		Type:                tt,
		From:                prev,
		To:                  snapshot.Status,
		ConsecutiveFailures: snapshot.ConsecutiveFailures,
		Err:                 snapshot.LastError,
		Record:              snapshot,
		Timestamp:           now,
	}
}

func (r *Registry) notify(t Transition) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, l := range listeners {
		l.OnTransition(t)
	}
}
