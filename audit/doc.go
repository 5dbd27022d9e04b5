// Package audit is the boundary between the reliability core and its
// external collaborators: the append-only audit store and the best-effort
// broadcast channel.
//
// The core writes one CheckRecord per evaluation and one RemediationRecord
// per remediation outcome through a Sink, and publishes typed Envelopes
// (status snapshots, remediation outcomes, incidents, escalations) through
// a Broadcaster. Both boundaries are deliberately lossy in the failure
// direction: an unavailable audit store or a saturated broadcast channel
// must never stall health evaluation or remediation.
//
// # Guarding the audit store
//
// Wrap any real Sink with NewGuardedSink to bound write latency, retry
// transient failures, and shed writes through a circuit breaker while the
// store is down:
//
//	sink := audit.NewGuardedSink(dbSink, audit.GuardedSinkConfig{
//	    Timeout: 2 * time.Second,
//	    Logger:  logger,
//	})
//
// # Throttling the broadcast channel
//
// Wrap a Broadcaster with NewThrottledBroadcaster to cap the event rate
// during failure storms; excess envelopes are dropped, not queued.
//
// # In-memory implementations
//
// MemorySink and MemoryBroadcaster serve tests and single-process
// deployments with no external collaborators connected. NopSink and
// NopBroadcaster satisfy the interfaces when nothing is connected at all.
package audit
