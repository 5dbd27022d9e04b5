package audit

import (
	"context"
	"time"
)

// CheckRecord is the append-only audit entry written for every evaluation.
type CheckRecord struct {
	Module              string         `json:"module"`
	Status              string         `json:"status"`
	Latency             time.Duration  `json:"latency"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	Error               string         `json:"error,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	Timestamp           time.Time      `json:"timestamp"`
}

// RemediationRecord is the audit entry written for every remediation outcome.
type RemediationRecord struct {
	Module                     string        `json:"module"`
	Handler                    string        `json:"handler"`
	Action                     string        `json:"action"`
	Message                    string        `json:"message,omitempty"`
	Duration                   time.Duration `json:"duration"`
	Success                    bool          `json:"success"`
	RequiresManualIntervention bool          `json:"requires_manual_intervention,omitempty"`
	Timestamp                  time.Time     `json:"timestamp"`
}

// Sink is the append-only boundary to the external audit store.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: methods should honor cancellation/deadlines.
//   - Errors: callers log and swallow write errors; a failing sink must
//     never block or fail the health or remediation flow. Wrap slow or
//     flaky sinks with NewGuardedSink.
type Sink interface {
	RecordCheck(ctx context.Context, rec CheckRecord) error
	RecordRemediation(ctx context.Context, rec RemediationRecord) error
}

// EventType identifies the payload carried by a broadcast envelope.
type EventType string

const (
	EventHealthStatus       EventType = "health.status"
	EventRemediationSuccess EventType = "remediation.success"
	EventRemediationFailure EventType = "remediation.failure"
	EventRecovery           EventType = "remediation.recovery"
	EventIncidentDetected   EventType = "incident.detected"
	EventIncidentResolved   EventType = "incident.resolved"
	EventEscalation         EventType = "escalation"
)

// Envelope is the typed wrapper for broadcast events.
type Envelope struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster is the best-effort fan-out boundary to external observers.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: delivery is fire-and-forget; implementations must not block
//     the caller and must not panic. Absence of a connected observer is
//     not an error.
type Broadcaster interface {
	Broadcast(env Envelope)
}

// NopSink discards all records. Used when no audit store is connected.
type NopSink struct{}

// RecordCheck discards the record.
func (NopSink) RecordCheck(context.Context, CheckRecord) error { return nil }

// RecordRemediation discards the record.
func (NopSink) RecordRemediation(context.Context, RemediationRecord) error { return nil }

// NopBroadcaster discards all envelopes.
type NopBroadcaster struct{}

// Broadcast discards the envelope.
func (NopBroadcaster) Broadcast(Envelope) {}
