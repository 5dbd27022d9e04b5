package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records the reliability core's own operational telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one health evaluation with its outcome.
	RecordCheck(ctx context.Context, module, status string, duration time.Duration, failed bool)

	// RecordRemediation records one remediation handler outcome.
	RecordRemediation(ctx context.Context, module, handler string, duration time.Duration, success bool)

	// RecordEscalation records one escalation event.
	RecordEscalation(ctx context.Context, module string)

	// RecordIncident records an incident being opened or resolved.
	RecordIncident(ctx context.Context, severity string, resolved bool)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter             metric.Meter
	checkTotal        metric.Int64Counter
	checkFailures     metric.Int64Counter
	checkDuration     metric.Float64Histogram
	remediationTotal  metric.Int64Counter
	escalationTotal   metric.Int64Counter
	incidentOpened    metric.Int64Counter
	incidentResolved  metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	checkTotal, err := meter.Int64Counter(
		"health.check.total",
		metric.WithDescription("Total number of health evaluations"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	checkFailures, err := meter.Int64Counter(
		"health.check.failures",
		metric.WithDescription("Total number of failed health evaluations"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	checkDuration, err := meter.Float64Histogram(
		"health.check.duration_ms",
		metric.WithDescription("Health evaluation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	remediationTotal, err := meter.Int64Counter(
		"remediation.attempts",
		metric.WithDescription("Total number of remediation handler executions"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	escalationTotal, err := meter.Int64Counter(
		"remediation.escalations",
		metric.WithDescription("Total number of escalations to manual intervention"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	incidentOpened, err := meter.Int64Counter(
		"incident.opened",
		metric.WithDescription("Total number of correlated incidents opened"),
		metric.WithUnit("{incident}"),
	)
	if err != nil {
		return nil, err
	}

	incidentResolved, err := meter.Int64Counter(
		"incident.resolved",
		metric.WithDescription("Total number of correlated incidents resolved"),
		metric.WithUnit("{incident}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:            meter,
		checkTotal:       checkTotal,
		checkFailures:    checkFailures,
		checkDuration:    checkDuration,
		remediationTotal: remediationTotal,
		escalationTotal:  escalationTotal,
		incidentOpened:   incidentOpened,
		incidentResolved: incidentResolved,
	}, nil
}

// RecordCheck records metrics for one health evaluation.
func (m *metricsImpl) RecordCheck(ctx context.Context, module, status string, duration time.Duration, failed bool) {
	opt := metric.WithAttributes(
		attribute.String("module", module),
		attribute.String("status", status),
	)

	m.checkTotal.Add(ctx, 1, opt)
	if failed {
		m.checkFailures.Add(ctx, 1, opt)
	}
	m.checkDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordRemediation records metrics for one remediation handler execution.
func (m *metricsImpl) RecordRemediation(ctx context.Context, module, handler string, duration time.Duration, success bool) {
	m.remediationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("module", module),
		attribute.String("handler", handler),
		attribute.Bool("success", success),
	))
}

// RecordEscalation records one escalation.
func (m *metricsImpl) RecordEscalation(ctx context.Context, module string) {
	m.escalationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("module", module),
	))
}

// RecordIncident records an incident lifecycle event.
func (m *metricsImpl) RecordIncident(ctx context.Context, severity string, resolved bool) {
	opt := metric.WithAttributes(attribute.String("severity", severity))
	if resolved {
		m.incidentResolved.Add(ctx, 1, opt)
	} else {
		m.incidentOpened.Add(ctx, 1, opt)
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordCheck(context.Context, string, string, time.Duration, bool)       {}
func (noopMetrics) RecordRemediation(context.Context, string, string, time.Duration, bool) {}
func (noopMetrics) RecordEscalation(context.Context, string)                               {}
func (noopMetrics) RecordIncident(context.Context, string, bool)                           {}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics {
	return noopMetrics{}
}

var _ Metrics = (*metricsImpl)(nil)
