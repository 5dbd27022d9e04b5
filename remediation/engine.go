package remediation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/autoheal/audit"
	"github.com/jonwraymond/autoheal/health"
	"github.com/jonwraymond/autoheal/incident"
	"github.com/jonwraymond/autoheal/observe"
)

// Config configures the remediation engine.
type Config struct {
	// Disabled turns off remediation attempts. Transition events still
	// feed the incident correlator.
	Disabled bool

	// MaxAttempts is how many remediation cycles a module gets before the
	// engine escalates instead.
	// Default: 5
	MaxAttempts int

	// Cooldown is the initial (and post-success) backoff between attempts
	// for one module.
	// Default: 30 seconds
	Cooldown time.Duration

	// EscalationThreshold documents intent only; escalation actually
	// triggers at MaxAttempts. Retained for configuration compatibility
	// and never defaulted.
	EscalationThreshold int

	// AutoRestart includes the service-restart handler in the default
	// handler set.
	AutoRestart bool

	// RestartTimeout bounds each restart callback invocation.
	// Default: 30 seconds
	RestartTimeout time.Duration

	// CorrelationWindow is the incident correlator's sliding window; used
	// only when no Correlator is supplied.
	// Default: 60 seconds
	CorrelationWindow time.Duration

	// CleanupInterval is how often the periodic sweep runs.
	// Default: 60 seconds
	CleanupInterval time.Duration

	// StaleAfter is the age past which an idle remediation state with zero
	// attempts is pruned.
	// Default: 10 minutes
	StaleAfter time.Duration

	// EventBuffer is the transition event channel capacity. Events beyond
	// it are dropped with a logged warning rather than blocking the
	// registry's evaluation goroutines.
	// Default: 256
	EventBuffer int

	// Correlator groups co-occurring failures into incidents. When nil,
	// one is built from CorrelationWindow with this engine's sinks.
	Correlator *incident.Correlator

	// Controller is the slice of the health registry the engine and its
	// built-in handlers may drive.
	Controller ModuleController

	// Logger, Metrics and Tracer cover the engine's own telemetry.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer

	// Audit receives one RemediationRecord per handler outcome.
	// Default: audit.NopSink
	Audit audit.Sink

	// Broadcaster receives remediation, recovery and escalation envelopes.
	// Default: audit.NopBroadcaster
	Broadcaster audit.Broadcaster

	// Now is an injectable clock for tests.
	// Default: time.Now
	Now func() time.Time
}

// EscalationAlert is the broadcast payload for a terminal escalation.
type EscalationAlert struct {
	Module   string        `json:"module"`
	Record   health.Record `json:"record"`
	Message  string        `json:"message"`
	Severity string        `json:"severity"`
}

// RemediationEvent is the broadcast payload for a handler outcome.
type RemediationEvent struct {
	Module  string `json:"module"`
	Handler string `json:"handler"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

// Engine subscribes to health transition events and drives automated
// repair: on a degrade it feeds the incident correlator and walks the
// priority-ordered handler chain under per-module locking and backoff; on
// a recovery it resets remediation state and resolves incidents.
//
// The engine exclusively owns the remediation state map. Transition
// delivery is a bounded channel so backpressure is explicit: the registry
// never blocks on a slow engine.
type Engine struct {
	cfg        Config
	correlator *incident.Correlator
	chain      *chain
	restarters *RestarterRegistry

	events chan health.Transition

	mu      sync.Mutex
	states  map[string]*moduleState
	running bool
	stop    chan struct{}

	wg sync.WaitGroup
}

// NewEngine creates a remediation engine. Call Start to begin consuming
// transition events.
func NewEngine(config ...Config) *Engine {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.RestartTimeout <= 0 {
		cfg.RestartTimeout = 30 * time.Second
	}
	if cfg.CorrelationWindow <= 0 {
		cfg.CorrelationWindow = 60 * time.Second
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 60 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	if cfg.Controller == nil {
		cfg.Controller = nopController{}
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
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = audit.NopBroadcaster{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Correlator == nil {
		cfg.Correlator = incident.NewCorrelator(incident.CorrelatorConfig{
			Window:      cfg.CorrelationWindow,
			Logger:      cfg.Logger,
			Metrics:     cfg.Metrics,
			Broadcaster: cfg.Broadcaster,
			Now:         cfg.Now,
		})
	}

	return &Engine{
		cfg:        cfg,
		correlator: cfg.Correlator,
		chain:      &chain{},
		restarters: NewRestarterRegistry(),
		events:     make(chan health.Transition, cfg.EventBuffer),
		states:     make(map[string]*moduleState),
	}
}

// InstallDefaultHandlers registers the built-in handler set against the
// engine's controller: metrics-reset, graceful-degradation,
// circuit-breaker, and (when AutoRestart is set) service-restart.
func (e *Engine) InstallDefaultHandlers() {
	if e.cfg.AutoRestart {
		e.RegisterHandler(NewServiceRestartHandler(e.restarters, e.cfg.RestartTimeout))
	}
	e.RegisterHandler(NewMetricsResetHandler(e.cfg.Controller))
	e.RegisterHandler(NewGracefulDegradationHandler())
	e.RegisterHandler(NewCircuitBreakerHandler(e.cfg.Controller, 0))
}

// RegisterHandler adds a handler to the chain. Safe to call while the
// engine is running; in-flight attempts keep iterating their snapshot.
func (e *Engine) RegisterHandler(h Handler) {
	e.chain.add(h)
}

// RegisterRestarter installs a restart callback for a module, consumed by
// the built-in service-restart handler.
func (e *Engine) RegisterRestarter(module string, fn RestartFunc) {
	e.restarters.Register(module, fn)
}

// OnTransition implements health.Listener. Delivery is non-blocking: when
// the buffer is full the event is dropped with a warning so a slow engine
// can never stall health evaluation.
func (e *Engine) OnTransition(t health.Transition) {
	select {
	case e.events <- t:
	default:
		e.cfg.Logger.Warn(context.Background(), "transition event dropped: engine backlog full",
			observe.Field{Key: "module", Value: t.Module},
			observe.Field{Key: "type", Value: t.Type.String()},
		)
	}
}

// Start launches the event loop and the periodic cleanup sweep.
// Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	e.wg.Add(2)
	go e.run(stop)
	go e.cleanupLoop(stop)
}

// Stop idempotently stops the event loop and cleanup sweep and waits for
// in-flight remediation attempts to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stop)
	e.mu.Unlock()

	e.wg.Wait()
}

// Running reports whether the engine is consuming events.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Correlator returns the engine's incident correlator.
func (e *Engine) Correlator() *incident.Correlator {
	return e.correlator
}

// Handlers returns the handler names in priority order.
func (e *Engine) Handlers() []string {
	return e.chain.names()
}

// Restarters returns the module names with a registered restarter.
func (e *Engine) Restarters() []string {
	return e.restarters.Names()
}

// Stats returns a snapshot of every module's remediation state.
func (e *Engine) Stats() []Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Stats, 0, len(e.states))
	for name, st := range e.states {
		out = append(out, Stats{
			Module:      name,
			Attempts:    st.attempts,
			LastAttempt: st.lastAttempt,
			Backoff:     st.backoff,
			Locked:      st.locked,
		})
	}
	return out
}

func (e *Engine) run(stop chan struct{}) {
	defer e.wg.Done()

	for {
		select {
		case <-stop:
			return
		case t := <-e.events:
			if t.Type == health.TransitionRecovered {
				e.handleRecovery(t)
			} else {
				e.handleDegrade(t)
			}
		}
	}
}

func (e *Engine) cleanupLoop(stop chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.sweep()
		}
	}
}

// handleDegrade runs the remediation decision ladder for one degrade
// event: feed the correlator unconditionally, then lock/backoff/exhaustion
// checks, then a concurrent attempt walking the handler chain.
func (e *Engine) handleDegrade(t health.Transition) {
	// The correlator sees every degrade, even when remediation is skipped.
	e.correlator.Observe(t.Module, t.To, t.Timestamp)

	if e.cfg.Disabled {
		return
	}

	ctx := context.Background()
	now := e.cfg.Now()

	e.mu.Lock()
	st, ok := e.states[t.Module]
	if !ok {
		st = &moduleState{backoff: e.cfg.Cooldown, createdAt: now}
		e.states[t.Module] = st
	}

	if st.locked {
		e.mu.Unlock()
		e.cfg.Logger.Debug(ctx, "remediation already in flight",
			observe.Field{Key: "module", Value: t.Module})
		return
	}
	if now.Sub(st.lastAttempt) < st.backoff {
		e.mu.Unlock()
		e.cfg.Logger.Debug(ctx, "remediation in backoff",
			observe.Field{Key: "module", Value: t.Module},
			observe.Field{Key: "backoff", Value: st.backoff.String()},
		)
		return
	}
	if st.attempts >= e.cfg.MaxAttempts {
		e.mu.Unlock()
		e.escalate(ctx, t, "remediation attempts exhausted")
		return
	}

	st.locked = true
	st.attempts++
	st.lastAttempt = now
	e.mu.Unlock()

	e.correlator.RecordAttempt(t.Module)

	// Attempts for different modules run concurrently; the locked flag
	// guarantees at most one in flight per module.
	e.wg.Add(1)
	go e.attempt(ctx, t, st)
}

// attempt walks the handler chain in priority order: the first applicable
// handler runs; a success ends the cycle, a failure doubles the backoff
// and falls through to the next applicable handler, and a demand for
// manual intervention escalates immediately.
func (e *Engine) attempt(ctx context.Context, t health.Transition, st *moduleState) {
	defer e.wg.Done()

	// The lock is always released, whatever the chain does.
	defer func() {
		e.mu.Lock()
		st.locked = false
		e.mu.Unlock()
	}()

	ctx, span := e.cfg.Tracer.StartSpan(ctx, "remediation.attempt", t.Module)
	defer e.cfg.Tracer.EndSpan(span, nil)

	for _, h := range e.chain.snapshot() {
		if !h.CanHandle(t.Module, t.Record) {
			continue
		}

		res, err := e.execute(ctx, h, t.Module, t.Record)
		if err != nil {
			// Handler exception: backoff doubles and the cycle aborts.
			e.mu.Lock()
			st.doubleBackoff()
			e.mu.Unlock()
			e.cfg.Logger.Error(ctx, "remediation handler exception",
				observe.Field{Key: "module", Value: t.Module},
				observe.Field{Key: "handler", Value: h.Name()},
				observe.Field{Key: "error", Value: err.Error()},
			)
			return
		}

		e.cfg.Metrics.RecordRemediation(ctx, t.Module, h.Name(), res.Duration, res.Success)
		e.auditResult(ctx, t.Module, h.Name(), res)

		if res.RequiresManualIntervention {
			e.escalate(ctx, t, fmt.Sprintf("handler %q requires manual intervention", h.Name()))
			return
		}

		if res.Success {
			e.mu.Lock()
			st.backoff = e.cfg.Cooldown
			e.mu.Unlock()
			e.broadcastOutcome(audit.EventRemediationSuccess, t.Module, h.Name(), res)
			e.cfg.Logger.Info(ctx, "remediation succeeded",
				observe.Field{Key: "module", Value: t.Module},
				observe.Field{Key: "handler", Value: h.Name()},
				observe.Field{Key: "action", Value: res.Action},
			)
			return
		}

		// Handler ran but did not fix the module: back off harder and let
		// the next applicable handler try.
		e.mu.Lock()
		st.doubleBackoff()
		e.mu.Unlock()
		e.broadcastOutcome(audit.EventRemediationFailure, t.Module, h.Name(), res)
		e.cfg.Logger.Warn(ctx, "remediation handler failed",
			observe.Field{Key: "module", Value: t.Module},
			observe.Field{Key: "handler", Value: h.Name()},
			observe.Field{Key: "message", Value: res.Message},
		)
	}
}

// execute runs one handler with panic containment. A panic surfaces as a
// handler exception, never as a crash of the engine.
func (e *Engine) execute(ctx context.Context, h Handler, module string, rec health.Record) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %q: %v", ErrHandlerPanic, h.Name(), p)
		}
	}()

	start := time.Now()
	res, err = h.Execute(ctx, module, rec)
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	if res.Action == "" {
		res.Action = h.Name()
	}
	return res, err
}

// handleRecovery resets the module's remediation state and resolves any
// incident whose implicated modules are now all healthy.
func (e *Engine) handleRecovery(t health.Transition) {
	ctx := context.Background()

	e.mu.Lock()
	if st, ok := e.states[t.Module]; ok {
		st.attempts = 0
		st.backoff = e.cfg.Cooldown
	}
	e.mu.Unlock()

	e.cfg.Logger.Info(ctx, "module recovered",
		observe.Field{Key: "module", Value: t.Module},
		observe.Field{Key: "from", Value: t.From.String()},
	)
	e.cfg.Broadcaster.Broadcast(audit.Envelope{
		Type:      audit.EventRecovery,
		Data:      RemediationEvent{Module: t.Module, Action: "recovered"},
		Timestamp: e.cfg.Now(),
	})

	e.correlator.ResolveHealthy(e.cfg.Controller.IsHealthy)
}

// escalate emits the terminal signal: automated repair is exhausted or
// explicitly insufficient and a human has to look.
func (e *Engine) escalate(ctx context.Context, t health.Transition, reason string) {
	e.cfg.Logger.Error(ctx, "escalating module failure",
		observe.Field{Key: "module", Value: t.Module},
		observe.Field{Key: "reason", Value: reason},
		observe.Field{Key: "consecutive_failures", Value: t.ConsecutiveFailures},
	)
	e.cfg.Metrics.RecordEscalation(ctx, t.Module)
	e.cfg.Broadcaster.Broadcast(audit.Envelope{
		Type: audit.EventEscalation,
		Data: EscalationAlert{
			Module:   t.Module,
			Record:   t.Record,
			Message:  reason,
			Severity: "critical",
		},
		Timestamp: e.cfg.Now(),
	})
}

func (e *Engine) auditResult(ctx context.Context, module, handler string, res Result) {
	if err := e.cfg.Audit.RecordRemediation(ctx, audit.RemediationRecord{
		Module:                     module,
		Handler:                    handler,
		Action:                     res.Action,
		Message:                    res.Message,
		Duration:                   res.Duration,
		Success:                    res.Success,
		RequiresManualIntervention: res.RequiresManualIntervention,
		Timestamp:                  e.cfg.Now(),
	}); err != nil {
		e.cfg.Logger.Warn(ctx, "audit write failed",
			observe.Field{Key: "module", Value: module},
			observe.Field{Key: "handler", Value: handler},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}

func (e *Engine) broadcastOutcome(typ audit.EventType, module, handler string, res Result) {
	e.cfg.Broadcaster.Broadcast(audit.Envelope{
		Type: typ,
		Data: RemediationEvent{
			Module:  module,
			Handler: handler,
			Action:  res.Action,
			Message: res.Message,
		},
		Timestamp: e.cfg.Now(),
	})
}

// sweep is the periodic cleanup pass: prune resolved incidents past
// retention, trim the correlation buffer, and drop idle zero-attempt
// remediation states.
func (e *Engine) sweep() {
	e.correlator.Sweep()

	now := e.cfg.Now()
	e.mu.Lock()
	for name, st := range e.states {
		if st.locked || st.attempts != 0 {
			continue
		}
		idleSince := st.lastAttempt
		if idleSince.IsZero() {
			idleSince = st.createdAt
		}
		if now.Sub(idleSince) > e.cfg.StaleAfter {
			delete(e.states, name)
		}
	}
	e.mu.Unlock()
}

// nopController satisfies ModuleController when no health registry is
// wired, which only happens in isolated engine tests.
type nopController struct{}

func (nopController) Enable(string)         {}
func (nopController) Disable(string)        {}
func (nopController) ResetMetrics(string)   {}
func (nopController) IsHealthy(string) bool { return false }

var _ health.Listener = (*Engine)(nil)
