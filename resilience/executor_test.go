package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutor_EmptyRunsOpDirectly(t *testing.T) {
	e := NewExecutor()

	if err := e.Execute(context.Background(), okWrite); err != nil {
		t.Errorf("Execute error = %v, want nil", err)
	}
	if err := e.Execute(context.Background(), failingWrite); !errors.Is(err, errStoreDown) {
		t.Errorf("Execute error = %v, want %v", err, errStoreDown)
	}
}

func TestExecutor_GuardedSinkStack(t *testing.T) {
	// The audit guard's shape: breaker + retry + timeout around a store
	// write that recovers on its second attempt.
	e := NewExecutor(
		WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 10})),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
		WithTimeout(time.Second),
	)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errStoreDown
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute error = %v, want nil", err)
	}
	if calls != 2 {
		t.Errorf("store writes = %d, want 2", calls)
	}
}

func TestExecutor_RetriesCountOnceAgainstBreaker(t *testing.T) {
	// Retry sits inside the breaker, so one Execute with 3 attempts is a
	// single failure from the breaker's point of view.
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)

	_ = e.Execute(context.Background(), failingWrite)

	if m := cb.Metrics(); m.Failures != 1 {
		t.Errorf("breaker failures after one retried Execute = %d, want 1", m.Failures)
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("State() = %v, want %v", got, StateClosed)
	}
}

func TestExecutor_RateLimitShedsBeforeBreakerCounts(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 5})
	e := NewExecutor(
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})),
		WithCircuitBreaker(cb),
	)

	// First call consumes the only token and fails inside the breaker.
	_ = e.Execute(context.Background(), failingWrite)
	// Second call is shed by the limiter and must not reach the breaker.
	err := e.Execute(context.Background(), failingWrite)

	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute error = %v, want %v", err, ErrRateLimitExceeded)
	}
	if m := cb.Metrics(); m.Failures != 1 {
		t.Errorf("breaker failures = %d, want 1 (shed call not counted)", m.Failures)
	}
}

func TestExecutor_BulkheadRejectionSkipsOp(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	e := NewExecutor(WithBulkhead(b))

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire error = %v, want nil", err)
	}
	defer b.Release()

	called := false
	err := e.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("Execute error = %v, want %v", err, ErrBulkheadFull)
	}
	if called {
		t.Error("op ran despite full bulkhead")
	}
}

func TestExecutor_OpenBreakerShortCircuitsRetry(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)

	_ = e.Execute(context.Background(), failingWrite)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute error = %v, want %v", err, ErrCircuitOpen)
	}
	if calls != 0 {
		t.Errorf("op calls while open = %d, want 0", calls)
	}
}

func TestExecutor_TimeoutAppliesPerRetryAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		WithTimeout(20*time.Millisecond),
	)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		time.Sleep(time.Second)
		return nil
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute error = %v, want %v", err, ErrTimeout)
	}
	if calls != 2 {
		t.Errorf("attempts = %d, want 2 (timeout retried)", calls)
	}
}
