package audit

import (
	"context"
	"sync"
	"time"
)

// MemorySinkConfig configures the in-memory audit sink.
type MemorySinkConfig struct {
	// MaxEntries bounds each record list; the oldest entries are evicted
	// once the bound is reached.
	// Default: 1000
	MaxEntries int

	// TTL is how long entries are retained. Zero means no expiry.
	TTL time.Duration

	// Now is an injectable clock for tests.
	// Default: time.Now
	Now func() time.Time
}

// MemorySink is a bounded in-memory Sink for tests and single-process
// deployments without an external audit store.
type MemorySink struct {
	config MemorySinkConfig

	mu           sync.RWMutex
	checks       []CheckRecord
	remediations []RemediationRecord
}

// NewMemorySink creates a new in-memory audit sink.
func NewMemorySink(config ...MemorySinkConfig) *MemorySink {
	cfg := MemorySinkConfig{MaxEntries: 1000, Now: time.Now}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.MaxEntries <= 0 {
			cfg.MaxEntries = 1000
		}
		if cfg.Now == nil {
			cfg.Now = time.Now
		}
	}

	return &MemorySink{config: cfg}
}

// RecordCheck appends an evaluation record.
func (s *MemorySink) RecordCheck(_ context.Context, rec CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checks = append(s.checks, rec)
	if len(s.checks) > s.config.MaxEntries {
		s.checks = s.checks[len(s.checks)-s.config.MaxEntries:]
	}
	return nil
}

// RecordRemediation appends a remediation outcome record.
func (s *MemorySink) RecordRemediation(_ context.Context, rec RemediationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remediations = append(s.remediations, rec)
	if len(s.remediations) > s.config.MaxEntries {
		s.remediations = s.remediations[len(s.remediations)-s.config.MaxEntries:]
	}
	return nil
}

// Checks returns the retained evaluation records, oldest first.
func (s *MemorySink) Checks() []CheckRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CheckRecord, 0, len(s.checks))
	cutoff := s.cutoff()
	for _, rec := range s.checks {
		if cutoff.IsZero() || rec.Timestamp.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// Remediations returns the retained remediation records, oldest first.
func (s *MemorySink) Remediations() []RemediationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RemediationRecord, 0, len(s.remediations))
	cutoff := s.cutoff()
	for _, rec := range s.remediations {
		if cutoff.IsZero() || rec.Timestamp.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

func (s *MemorySink) cutoff() time.Time {
	if s.config.TTL <= 0 {
		return time.Time{}
	}
	return s.config.Now().Add(-s.config.TTL)
}

// MemoryBroadcaster fans envelopes out to subscriber channels. Delivery is
// non-blocking; envelopes are dropped for subscribers whose buffers are full.
type MemoryBroadcaster struct {
	mu   sync.RWMutex
	subs []chan Envelope
}

// NewMemoryBroadcaster creates a new in-memory broadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{}
}

// Subscribe returns a buffered channel receiving future envelopes.
func (b *MemoryBroadcaster) Subscribe(buffer int) <-chan Envelope {
	if buffer <= 0 {
		buffer = 64
	}

	ch := make(chan Envelope, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Broadcast delivers the envelope to every subscriber that has room.
func (b *MemoryBroadcaster) Broadcast(env Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- env:
		default:
			// Subscriber buffer full; best-effort delivery drops it.
		}
	}
}
