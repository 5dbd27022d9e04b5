// Package remediation drives automated repair of unhealthy modules.
//
// The Engine subscribes to health transition events and, for each degrade,
// walks a priority-ordered chain of handlers: service restart, metrics
// reset, graceful degradation, circuit breaker. Per-module state enforces
// single-flight attempts, doubling backoff capped at five minutes, and an
// attempt budget; exhausting the budget, or a handler demanding manual
// intervention, escalates to the configured broadcaster and audit sink.
//
// Every degrade also feeds the incident correlator, so correlation keeps
// working even when remediation itself is disabled.
//
// Basic usage:
//
//	engine := remediation.NewEngine(remediation.Config{
//		Controller:  ctrl,
//		AutoRestart: true,
//	})
//	engine.InstallDefaultHandlers()
//	engine.RegisterRestarter("ingest", restartIngest)
//	reg.AddListener(engine)
//	engine.Start()
//	defer engine.Stop()
//
// Custom handlers implement the Handler interface and slot into the chain
// by priority.
package remediation
