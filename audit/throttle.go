package audit

import (
	"context"

	"github.com/jonwraymond/autoheal/observe"
	"github.com/jonwraymond/autoheal/resilience"
)

// ThrottledBroadcasterConfig configures the broadcast throttle.
type ThrottledBroadcasterConfig struct {
	// Rate is the number of envelopes allowed per second.
	// Default: 50
	Rate float64

	// Burst is the maximum burst size.
	// Default: 20
	Burst int

	// Logger receives dropped-envelope warnings. Nil means no logging.
	Logger observe.Logger
}

// ThrottledBroadcaster wraps a Broadcaster with a token-bucket rate limit.
// Envelopes over the limit are dropped, never queued; a failure storm must
// not amplify itself through the broadcast channel.
type ThrottledBroadcaster struct {
	inner   Broadcaster
	limiter *resilience.RateLimiter
	logger  observe.Logger
}

// NewThrottledBroadcaster creates a throttled wrapper around inner.
func NewThrottledBroadcaster(inner Broadcaster, config ...ThrottledBroadcasterConfig) *ThrottledBroadcaster {
	cfg := ThrottledBroadcasterConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	return &ThrottledBroadcaster{
		inner: inner,
		limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.Rate,
			Burst: cfg.Burst,
		}),
		logger: logger,
	}
}

// Broadcast forwards the envelope if the rate limit allows it.
func (b *ThrottledBroadcaster) Broadcast(env Envelope) {
	if !b.limiter.Allow() {
		b.logger.Debug(context.Background(), "broadcast envelope dropped by throttle",
			observe.Field{Key: "type", Value: string(env.Type)},
		)
		return
	}
	b.inner.Broadcast(env)
}

var _ Broadcaster = (*ThrottledBroadcaster)(nil)
