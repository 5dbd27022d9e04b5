package resilience

import (
	"context"
	"testing"
	"time"
)

func BenchmarkCircuitBreakerClosed(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, okWrite)
	}
}

func BenchmarkCircuitBreakerOpen(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	ctx := context.Background()
	_ = cb.Execute(ctx, failingWrite)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, okWrite)
	}
}

func BenchmarkBulkheadUncontended(b *testing.B) {
	bh := NewBulkhead(BulkheadConfig{MaxConcurrent: 64})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bh.Execute(ctx, okWrite)
	}
}

func BenchmarkRateLimiterAllow(b *testing.B) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1e9, Burst: 1 << 20})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rl.Allow()
	}
}

func BenchmarkGuardedWriteStack(b *testing.B) {
	e := NewExecutor(
		WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{})),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3})),
		WithTimeout(time.Second),
	)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Execute(ctx, okWrite)
	}
}
