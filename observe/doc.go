// Package observe provides the reliability core's own telemetry: structured
// JSON logging, OpenTelemetry metrics and tracing, and exporter wiring.
//
// An Observer bundles a tracer, a meter and a logger behind one lifecycle:
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "autoheal",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//
// Metrics covers the core's operational counters (evaluations, remediation
// attempts, escalations, incidents); Tracer spans individual evaluations and
// handler executions. Both have no-op implementations so components never
// need nil checks.
package observe
