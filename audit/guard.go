package audit

import (
	"context"
	"time"

	"github.com/jonwraymond/autoheal/observe"
	"github.com/jonwraymond/autoheal/resilience"
)

// GuardedSinkConfig configures the protective wrapper around a Sink.
type GuardedSinkConfig struct {
	// Timeout is the per-write deadline.
	// Default: 2 seconds
	Timeout time.Duration

	// MaxFailures opens the circuit after this many consecutive write
	// failures, shedding writes until ResetTimeout elapses.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing the
	// sink again.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// RetryAttempts is the number of attempts per write (including the
	// first).
	// Default: 2
	RetryAttempts int

	// Logger receives dropped-write warnings. Nil means no logging.
	Logger observe.Logger
}

// GuardedSink wraps a Sink so that audit outages never propagate into the
// health or remediation flow. Writes are bounded by a timeout, retried
// once, and shed through a circuit breaker while the sink is down. Failed
// writes are logged and swallowed.
type GuardedSink struct {
	inner  Sink
	exec   *resilience.Executor
	logger observe.Logger
}

// NewGuardedSink creates a guarded wrapper around inner.
func NewGuardedSink(inner Sink, config ...GuardedSinkConfig) *GuardedSink {
	cfg := GuardedSinkConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.MaxFailures,
			ResetTimeout: cfg.ResetTimeout,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: 50 * time.Millisecond,
		})),
		resilience.WithTimeout(cfg.Timeout),
	)

	return &GuardedSink{inner: inner, exec: exec, logger: logger}
}

// RecordCheck writes the record, logging and swallowing any failure.
func (s *GuardedSink) RecordCheck(ctx context.Context, rec CheckRecord) error {
	err := s.exec.Execute(ctx, func(ctx context.Context) error {
		return s.inner.RecordCheck(ctx, rec)
	})
	if err != nil {
		s.logger.Warn(ctx, "audit check write dropped",
			observe.Field{Key: "module", Value: rec.Module},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	return nil
}

// RecordRemediation writes the record, logging and swallowing any failure.
func (s *GuardedSink) RecordRemediation(ctx context.Context, rec RemediationRecord) error {
	err := s.exec.Execute(ctx, func(ctx context.Context) error {
		return s.inner.RecordRemediation(ctx, rec)
	})
	if err != nil {
		s.logger.Warn(ctx, "audit remediation write dropped",
			observe.Field{Key: "module", Value: rec.Module},
			observe.Field{Key: "handler", Value: rec.Handler},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	return nil
}

var _ Sink = (*GuardedSink)(nil)
