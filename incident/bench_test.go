package incident

import (
	"testing"
	"time"

	"github.com/jonwraymond/autoheal/health"
)

func BenchmarkCorrelatorObserve(b *testing.B) {
	c := NewCorrelator(CorrelatorConfig{Window: 60 * time.Second})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Observe("bench", health.StatusUnhealthy, time.Time{})
	}
}

func BenchmarkCorrelatorActive(b *testing.B) {
	clock := newFakeClock()
	c := NewCorrelator(CorrelatorConfig{Window: 60 * time.Second, Now: clock.Now})

	feed(c, clock, "a", 2)
	feed(c, clock, "b", 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Active()
	}
}
