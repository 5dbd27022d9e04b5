package remediation

import (
	"context"
	"time"

	"github.com/jonwraymond/autoheal/health"
	"github.com/jonwraymond/autoheal/resilience"
)

// Built-in handler thresholds.
const (
	// gracefulDegradationThreshold is the consecutive-failure count at
	// which graceful degradation applies.
	gracefulDegradationThreshold = 5

	// circuitBreakerThreshold is the consecutive-failure count at which
	// the circuit-breaker handler applies.
	circuitBreakerThreshold = 10
)

// DefaultReenableDelay is how long the circuit-breaker handler keeps a
// module's checks disabled before the half-open re-enable.
const DefaultReenableDelay = 60 * time.Second

// ModuleController is the slice of the health registry the built-in
// handlers are allowed to drive. No handler mutates registry state except
// through it.
type ModuleController interface {
	Enable(name string)
	Disable(name string)
	ResetMetrics(name string)
	IsHealthy(name string) bool
}

// ServiceRestartHandler restarts a module through its registered restart
// callback. Applicable only to modules with a restarter; tried first.
type ServiceRestartHandler struct {
	restarters *RestarterRegistry
	timeout    time.Duration
}

// NewServiceRestartHandler creates the service-restart handler. A
// non-positive timeout defaults to 30 seconds.
func NewServiceRestartHandler(restarters *RestarterRegistry, timeout time.Duration) *ServiceRestartHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ServiceRestartHandler{restarters: restarters, timeout: timeout}
}

// Name returns "service-restart".
func (h *ServiceRestartHandler) Name() string { return "service-restart" }

// Priority returns 1.
func (h *ServiceRestartHandler) Priority() int { return 1 }

// CanHandle reports whether a restart callback is registered for the module.
func (h *ServiceRestartHandler) CanHandle(module string, _ health.Record) bool {
	_, ok := h.restarters.Get(module)
	return ok
}

// Execute invokes the restart callback, bounded by the handler timeout, and
// reports its boolean result.
func (h *ServiceRestartHandler) Execute(ctx context.Context, module string, _ health.Record) (Result, error) {
	fn, ok := h.restarters.Get(module)
	if !ok {
		return Result{Action: "service-restart", Message: "no restarter registered"}, nil
	}

	var restarted bool
	err := resilience.ExecuteWithTimeout(ctx, h.timeout, func(ctx context.Context) error {
		ok, err := fn(ctx)
		restarted = ok
		return err
	})
	if err != nil {
		return Result{
			Action:  "service-restart",
			Message: "restart failed: " + err.Error(),
		}, nil
	}

	msg := "service restarted"
	if !restarted {
		msg = "restart callback declined"
	}
	return Result{Success: restarted, Action: "service-restart", Message: msg}, nil
}

// MetricsResetHandler clears a mildly degraded module's health metrics,
// treating a short failure blip as noise.
type MetricsResetHandler struct {
	ctrl ModuleController
}

// NewMetricsResetHandler creates the metrics-reset handler.
func NewMetricsResetHandler(ctrl ModuleController) *MetricsResetHandler {
	return &MetricsResetHandler{ctrl: ctrl}
}

// Name returns "metrics-reset".
func (h *MetricsResetHandler) Name() string { return "metrics-reset" }

// Priority returns 2.
func (h *MetricsResetHandler) Priority() int { return 2 }

// CanHandle applies to degraded modules below the graceful-degradation
// threshold.
func (h *MetricsResetHandler) CanHandle(_ string, rec health.Record) bool {
	return rec.Status == health.StatusDegraded && rec.ConsecutiveFailures < gracefulDegradationThreshold
}

// Execute resets the module's health metrics.
func (h *MetricsResetHandler) Execute(_ context.Context, module string, _ health.Record) (Result, error) {
	h.ctrl.ResetMetrics(module)
	return Result{Success: true, Action: "metrics-reset", Message: "health metrics cleared"}, nil
}

// GracefulDegradationHandler acknowledges a persistently failing module and
// demands a human. It always "succeeds" but sets
// RequiresManualIntervention, which forces immediate escalation; because it
// sits at priority 3 it intercepts modules before the circuit-breaker
// handler at priority 4 ever sees them. That ordering is preserved from the
// original design on purpose.
type GracefulDegradationHandler struct{}

// NewGracefulDegradationHandler creates the graceful-degradation handler.
func NewGracefulDegradationHandler() *GracefulDegradationHandler {
	return &GracefulDegradationHandler{}
}

// Name returns "graceful-degradation".
func (h *GracefulDegradationHandler) Name() string { return "graceful-degradation" }

// Priority returns 3.
func (h *GracefulDegradationHandler) Priority() int { return 3 }

// CanHandle applies once the consecutive-failure streak reaches the
// graceful-degradation threshold.
func (h *GracefulDegradationHandler) CanHandle(_ string, rec health.Record) bool {
	return rec.ConsecutiveFailures >= gracefulDegradationThreshold
}

// Execute marks the module for manual intervention.
func (h *GracefulDegradationHandler) Execute(_ context.Context, module string, _ health.Record) (Result, error) {
	return Result{
		Success:                    true,
		Action:                     "graceful-degradation",
		Message:                    "module running degraded; manual intervention required",
		RequiresManualIntervention: true,
	}, nil
}

// CircuitBreakerHandler opens a circuit around a hard-failing module:
// checks are disabled immediately and automatically re-enabled (half-open)
// after the re-enable delay.
type CircuitBreakerHandler struct {
	ctrl  ModuleController
	delay time.Duration
}

// NewCircuitBreakerHandler creates the circuit-breaker handler. A
// non-positive delay defaults to DefaultReenableDelay.
func NewCircuitBreakerHandler(ctrl ModuleController, delay time.Duration) *CircuitBreakerHandler {
	if delay <= 0 {
		delay = DefaultReenableDelay
	}
	return &CircuitBreakerHandler{ctrl: ctrl, delay: delay}
}

// Name returns "circuit-breaker".
func (h *CircuitBreakerHandler) Name() string { return "circuit-breaker" }

// Priority returns 4.
func (h *CircuitBreakerHandler) Priority() int { return 4 }

// CanHandle applies to unhealthy modules at or past the circuit-breaker
// threshold.
func (h *CircuitBreakerHandler) CanHandle(_ string, rec health.Record) bool {
	return rec.Status == health.StatusUnhealthy && rec.ConsecutiveFailures >= circuitBreakerThreshold
}

// Execute disables the module's checks and schedules the half-open
// re-enable.
func (h *CircuitBreakerHandler) Execute(_ context.Context, module string, _ health.Record) (Result, error) {
	h.ctrl.Disable(module)
	time.AfterFunc(h.delay, func() {
		h.ctrl.Enable(module)
	})
	return Result{
		Success: true,
		Action:  "circuit-breaker",
		Message: "checks disabled; re-enable scheduled in " + h.delay.String(),
	}, nil
}

var (
	_ Handler = (*ServiceRestartHandler)(nil)
	_ Handler = (*MetricsResetHandler)(nil)
	_ Handler = (*GracefulDegradationHandler)(nil)
	_ Handler = (*CircuitBreakerHandler)(nil)
)
