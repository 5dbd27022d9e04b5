package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/autoheal/resilience"
)

// Guard audit-store writes the way the audit package does: shed writes on
// an open breaker, retry transient failures, bound each attempt.
func ExampleNewExecutor() {
	guard := resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures: 5,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
		})),
		resilience.WithTimeout(2*time.Second),
	)

	writes := 0
	err := guard.Execute(context.Background(), func(ctx context.Context) error {
		writes++
		if writes < 2 {
			return errors.New("store unavailable")
		}
		return nil
	})

	fmt.Println("err:", err)
	fmt.Println("writes:", writes)
	// Output:
	// err: <nil>
	// writes: 2
}

// Cap how many health probes run at once during a forced sweep.
func ExampleBulkhead() {
	probes := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 2})

	run := func(module string) {
		err := probes.Execute(context.Background(), func(ctx context.Context) error {
			fmt.Println("probing", module)
			return nil
		})
		if err != nil {
			fmt.Println(module, "shed:", err)
		}
	}

	run("db")
	run("cache")
	// Output:
	// probing db
	// probing cache
}

// Shed broadcast envelopes once the burst allowance is spent.
func ExampleRateLimiter() {
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:  1,
		Burst: 2,
	})

	for i := 0; i < 4; i++ {
		if limiter.Allow() {
			fmt.Println("envelope", i, "delivered")
		} else {
			fmt.Println("envelope", i, "dropped")
		}
	}
	// Output:
	// envelope 0 delivered
	// envelope 1 delivered
	// envelope 2 dropped
	// envelope 3 dropped
}
