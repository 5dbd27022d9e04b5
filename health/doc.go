// Package health implements the health-polling registry at the center of
// the reliability core.
//
// Each registered module gets its own record of live metrics and an
// independent recurring timer. On every tick the evaluator races the
// module's check function against a timeout, folds the outcome into the
// record, derives a status (healthy, degraded, or unhealthy), and emits a
// typed transition event when the status changes. Every evaluation is
// persisted through the audit boundary whether or not the status changed.
//
// # Registering a module
//
//	reg := health.NewRegistry(health.RegistryConfig{Logger: logger})
//	reg.Register("database", func(ctx context.Context) (health.CheckResult, error) {
//	    if err := db.PingContext(ctx); err != nil {
//	        return health.Fail("ping failed"), err
//	    }
//	    return health.Pass("ok"), nil
//	}, health.CheckOptions{
//	    Interval:         15 * time.Second,
//	    Timeout:          2 * time.Second,
//	    FailureThreshold: 3,
//	})
//
// # Status derivation
//
// A module is unhealthy once its consecutive-failure streak reaches the
// failure threshold, degraded for any shorter non-zero streak, and healthy
// otherwise. One success zeroes the streak and restores healthy.
//
// # Timeouts
//
// A check that exceeds its timeout is abandoned, not cancelled: the
// evaluator records a failure and moves on while the check's goroutine
// keeps running with its result discarded. Checks with side effects must
// guard against duplicated effects themselves.
//
// # Transition events
//
// Components react to status changes by registering a Listener. The
// remediation engine is the primary consumer; dashboards can subscribe the
// same way.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, reg) // /healthz, /readyz, /health
package health
