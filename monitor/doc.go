// Package monitor assembles the autonomic reliability subsystem: a health
// registry, a remediation engine with its incident correlator, and an
// optional authenticated HTTP status surface, behind one Start/Stop
// lifecycle.
//
// Basic usage:
//
//	m := monitor.New(monitor.Config{
//		Logger: logger,
//		Audit:  sink,
//	})
//	m.Register("ingest", checkIngest, health.CheckOptions{
//		Interval:         10 * time.Second,
//		FailureThreshold: 3,
//	})
//	m.RegisterRestarter("ingest", restartIngest)
//	m.Start()
//	defer m.Stop()
//
//	http.ListenAndServe(":8080", m.Handler())
package monitor
