// Package resilience provides the failure-handling patterns the reliability
// core is built on.
//
// # Patterns
//
//   - Circuit Breaker: stops invoking a failing collaborator after a
//     threshold, then allows a half-open probe after a cooldown. Used to
//     shed audit-store writes while the store is down.
//
//   - Retry: retries failed operations with configurable backoff strategies
//     (exponential, linear, constant).
//
//   - Rate Limiter: token-bucket limiting. Used to throttle broadcast
//     envelopes during failure storms.
//
//   - Bulkhead: caps concurrent operations. Used to bound how many health
//     checks run at once across modules.
//
//   - Timeout: bounds how long an operation may take. Note the channel-race
//     implementation abandons the operation at the deadline rather than
//     killing it; the operation's goroutine keeps running and its result is
//     discarded.
//
// # Composition
//
// Patterns compose through an Executor:
//
//	guard := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	err := guard.Execute(ctx, func(ctx context.Context) error {
//	    return sink.RecordCheck(ctx, rec)
//	})
package resilience
