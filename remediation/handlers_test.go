package remediation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/autoheal/health"
)

// fakeController records the registry operations handlers invoke.
type fakeController struct {
	mu       sync.Mutex
	enabled  []string
	disabled []string
	resets   []string
	healthy  map[string]bool
}

func newFakeController() *fakeController {
	return &fakeController{healthy: make(map[string]bool)}
}

func (c *fakeController) Enable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = append(c.enabled, name)
}

func (c *fakeController) Disable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = append(c.disabled, name)
}

func (c *fakeController) ResetMetrics(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets = append(c.resets, name)
}

func (c *fakeController) IsHealthy(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy[name]
}

func (c *fakeController) enabledCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enabled)
}

func record(status health.Status, cf int) health.Record {
	return health.Record{Name: "db", Status: status, ConsecutiveFailures: cf}
}

func TestServiceRestartHandler(t *testing.T) {
	restarters := NewRestarterRegistry()
	h := NewServiceRestartHandler(restarters, time.Second)

	if h.CanHandle("db", record(health.StatusUnhealthy, 3)) {
		t.Error("CanHandle = true without a registered restarter")
	}

	restarters.Register("db", func(ctx context.Context) (bool, error) {
		return true, nil
	})
	if !h.CanHandle("db", record(health.StatusUnhealthy, 3)) {
		t.Error("CanHandle = false with a registered restarter")
	}

	res, err := h.Execute(context.Background(), "db", record(health.StatusUnhealthy, 3))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Errorf("Success = false, want true: %s", res.Message)
	}
}

func TestServiceRestartHandler_CallbackDeclines(t *testing.T) {
	restarters := NewRestarterRegistry()
	restarters.Register("db", func(ctx context.Context) (bool, error) {
		return false, nil
	})
	h := NewServiceRestartHandler(restarters, time.Second)

	res, err := h.Execute(context.Background(), "db", record(health.StatusUnhealthy, 3))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Success {
		t.Error("Success = true for a declined restart")
	}
}

func TestServiceRestartHandler_CallbackError(t *testing.T) {
	restarters := NewRestarterRegistry()
	restarters.Register("db", func(ctx context.Context) (bool, error) {
		return false, errors.New("systemd unreachable")
	})
	h := NewServiceRestartHandler(restarters, time.Second)

	// A failing callback is a failed attempt, not a handler exception.
	res, err := h.Execute(context.Background(), "db", record(health.StatusUnhealthy, 3))
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if res.Success {
		t.Error("Success = true for an erroring restart")
	}
}

func TestServiceRestartHandler_Timeout(t *testing.T) {
	restarters := NewRestarterRegistry()
	restarters.Register("db", func(ctx context.Context) (bool, error) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(time.Second):
			return true, nil
		}
	})
	h := NewServiceRestartHandler(restarters, 20*time.Millisecond)

	res, err := h.Execute(context.Background(), "db", record(health.StatusUnhealthy, 3))
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if res.Success {
		t.Error("Success = true for a timed-out restart")
	}
}

func TestMetricsResetHandler(t *testing.T) {
	ctrl := newFakeController()
	h := NewMetricsResetHandler(ctrl)

	tests := []struct {
		rec  health.Record
		want bool
	}{
		{record(health.StatusDegraded, 1), true},
		{record(health.StatusDegraded, 4), true},
		{record(health.StatusDegraded, 5), false},
		{record(health.StatusUnhealthy, 3), false},
		{record(health.StatusHealthy, 0), false},
	}
	for _, tt := range tests {
		if got := h.CanHandle("db", tt.rec); got != tt.want {
			t.Errorf("CanHandle(%v, cf=%d) = %v, want %v", tt.rec.Status, tt.rec.ConsecutiveFailures, got, tt.want)
		}
	}

	res, err := h.Execute(context.Background(), "db", record(health.StatusDegraded, 2))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false")
	}
	if len(ctrl.resets) != 1 || ctrl.resets[0] != "db" {
		t.Errorf("resets = %v, want [db]", ctrl.resets)
	}
}

func TestGracefulDegradationHandler(t *testing.T) {
	h := NewGracefulDegradationHandler()

	if h.CanHandle("db", record(health.StatusDegraded, 4)) {
		t.Error("CanHandle = true below the failure threshold")
	}
	if !h.CanHandle("db", record(health.StatusUnhealthy, 5)) {
		t.Error("CanHandle = false at the failure threshold")
	}

	res, err := h.Execute(context.Background(), "db", record(health.StatusUnhealthy, 6))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if !res.RequiresManualIntervention {
		t.Error("RequiresManualIntervention = false, want true")
	}
}

// The graceful-degradation handler outranks the circuit breaker, so an
// unhealthy module at the circuit-breaker threshold still escalates through
// graceful degradation first.
func TestHandlerOrdering_GracefulDegradationShadowsCircuitBreaker(t *testing.T) {
	ctrl := newFakeController()
	gd := NewGracefulDegradationHandler()
	cb := NewCircuitBreakerHandler(ctrl, time.Minute)

	rec := record(health.StatusUnhealthy, 12)
	if !gd.CanHandle("db", rec) {
		t.Fatal("graceful degradation should apply")
	}
	if !cb.CanHandle("db", rec) {
		t.Fatal("circuit breaker should apply")
	}
	if gd.Priority() >= cb.Priority() {
		t.Errorf("priorities = %d, %d: graceful degradation must outrank the circuit breaker",
			gd.Priority(), cb.Priority())
	}
}

func TestCircuitBreakerHandler(t *testing.T) {
	ctrl := newFakeController()
	h := NewCircuitBreakerHandler(ctrl, 20*time.Millisecond)

	if h.CanHandle("db", record(health.StatusUnhealthy, 9)) {
		t.Error("CanHandle = true below the circuit-breaker threshold")
	}
	if !h.CanHandle("db", record(health.StatusUnhealthy, 10)) {
		t.Error("CanHandle = false at the circuit-breaker threshold")
	}
	if h.CanHandle("db", record(health.StatusDegraded, 10)) {
		t.Error("CanHandle = true for a degraded module")
	}

	res, err := h.Execute(context.Background(), "db", record(health.StatusUnhealthy, 10))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false")
	}
	if len(ctrl.disabled) != 1 || ctrl.disabled[0] != "db" {
		t.Errorf("disabled = %v, want [db]", ctrl.disabled)
	}

	// The half-open re-enable fires after the delay.
	deadline := time.After(2 * time.Second)
	for ctrl.enabledCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("module never re-enabled")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDefaultReenableDelay(t *testing.T) {
	// Operational runbooks assume the one-minute re-enable; keep it pinned.
	if DefaultReenableDelay != 60*time.Second {
		t.Errorf("DefaultReenableDelay = %v, want 60s", DefaultReenableDelay)
	}
}

func TestRestarterRegistry(t *testing.T) {
	r := NewRestarterRegistry()

	if _, ok := r.Get("db"); ok {
		t.Error("Get() = ok on empty registry")
	}

	r.Register("db", func(ctx context.Context) (bool, error) { return true, nil })
	r.Register("cache", func(ctx context.Context) (bool, error) { return true, nil })

	if _, ok := r.Get("db"); !ok {
		t.Error("Get(db) = !ok after Register")
	}
	if names := r.Names(); len(names) != 2 {
		t.Errorf("Names() = %v, want 2 entries", names)
	}
}

func TestModuleStateDoubleBackoff(t *testing.T) {
	st := &moduleState{backoff: 30 * time.Second}

	want := []time.Duration{
		time.Minute, 2 * time.Minute, 4 * time.Minute,
		5 * time.Minute, 5 * time.Minute,
	}
	for i, w := range want {
		st.doubleBackoff()
		if st.backoff != w {
			t.Errorf("doubling %d: backoff = %v, want %v", i+1, st.backoff, w)
		}
	}
}
