package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/autoheal/audit"
	"github.com/jonwraymond/autoheal/health"
	"github.com/jonwraymond/autoheal/incident"
	"github.com/jonwraymond/autoheal/observe"
	"github.com/jonwraymond/autoheal/remediation"
)

// Config configures the monitor. Telemetry and audit sinks set here
// propagate to the health registry and remediation engine unless those
// nested configs set their own.
type Config struct {
	// Health configures the embedded health registry.
	Health health.RegistryConfig

	// Remediation configures the embedded remediation engine. Its
	// Controller is always the embedded registry.
	Remediation remediation.Config

	// Logger, Metrics and Tracer are the shared telemetry sinks.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer

	// Audit is the shared append-only audit sink.
	// Default: audit.NopSink
	Audit audit.Sink

	// Broadcaster is the shared best-effort event fan-out.
	// Default: audit.NopBroadcaster
	Broadcaster audit.Broadcaster

	// Now is an injectable clock for tests.
	// Default: time.Now
	Now func() time.Time
}

// ConfigView is the remediation-policy slice of the status snapshot: the
// knobs an operator needs to interpret what the engine is doing, without
// the wired-in sinks and callbacks.
type ConfigView struct {
	RemediationDisabled bool          `json:"remediation_disabled"`
	MaxAttempts         int           `json:"max_attempts"`
	Cooldown            time.Duration `json:"cooldown"`
	AutoRestart         bool          `json:"auto_restart"`
	RestartTimeout      time.Duration `json:"restart_timeout"`
	CorrelationWindow   time.Duration `json:"correlation_window"`
}

// Status is a point-in-time snapshot of the whole subsystem.
type Status struct {
	Running          bool                     `json:"running"`
	Config           ConfigView               `json:"config"`
	Overall          health.OverallHealth     `json:"overall"`
	Modules          map[string]health.Record `json:"modules"`
	ActiveIncidents  []incident.Incident      `json:"active_incidents"`
	RemediationStats []remediation.Stats      `json:"remediation_stats"`
	Handlers         []string                 `json:"handlers"`
	Restarters       []string                 `json:"restarters"`
}

// Monitor is the composition root: a health registry wired to a
// remediation engine and incident correlator behind one lifecycle.
type Monitor struct {
	cfg      Config
	registry *health.Registry
	engine   *remediation.Engine

	mu      sync.Mutex
	running bool
}

// New assembles a monitor. The remediation engine's controller is the
// embedded registry, its default handler set is installed, and it is
// subscribed to the registry's transition events. Call Start to begin
// remediation.
func New(config ...Config) *Monitor {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NopTracer()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NopSink{}
	}
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = audit.NopBroadcaster{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	hc := cfg.Health
	if hc.Logger == nil {
		hc.Logger = cfg.Logger
	}
	if hc.Metrics == nil {
		hc.Metrics = cfg.Metrics
	}
	if hc.Tracer == nil {
		hc.Tracer = cfg.Tracer
	}
	if hc.Audit == nil {
		hc.Audit = cfg.Audit
	}
	if hc.Now == nil {
		hc.Now = cfg.Now
	}
	registry := health.NewRegistry(hc)

	rc := cfg.Remediation
	rc.Controller = registry
	if rc.Logger == nil {
		rc.Logger = cfg.Logger
	}
	if rc.Metrics == nil {
		rc.Metrics = cfg.Metrics
	}
	if rc.Tracer == nil {
		rc.Tracer = cfg.Tracer
	}
	if rc.Audit == nil {
		rc.Audit = cfg.Audit
	}
	if rc.Broadcaster == nil {
		rc.Broadcaster = cfg.Broadcaster
	}
	if rc.Now == nil {
		rc.Now = cfg.Now
	}
	engine := remediation.NewEngine(rc)
	engine.InstallDefaultHandlers()
	registry.AddListener(engine)

	return &Monitor{cfg: cfg, registry: registry, engine: engine}
}

// Registry returns the embedded health registry.
func (m *Monitor) Registry() *health.Registry { return m.registry }

// Engine returns the embedded remediation engine.
func (m *Monitor) Engine() *remediation.Engine { return m.engine }

// Register adds a module health check to the registry.
func (m *Monitor) Register(name string, check health.CheckFunc, opts health.CheckOptions) {
	m.registry.Register(name, check, opts)
}

// RegisterRestarter installs a restart callback for a module.
func (m *Monitor) RegisterRestarter(module string, fn remediation.RestartFunc) {
	m.engine.RegisterRestarter(module, fn)
}

// RegisterHandler adds a custom remediation handler to the chain.
func (m *Monitor) RegisterHandler(h remediation.Handler) {
	m.engine.RegisterHandler(h)
}

// Start begins remediation. Health checks already run from registration;
// Start only governs whether transitions are acted on. Idempotent.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.engine.Start()
}

// Stop stops remediation and all health check scheduling. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.registry.Stop()
	m.engine.Stop()
}

// Running reports whether the monitor is started.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// CheckAllNow forces an immediate evaluation of every enabled module.
func (m *Monitor) CheckAllNow(ctx context.Context) {
	m.registry.CheckAllNow(ctx)
}

// Status returns a snapshot of the whole subsystem.
func (m *Monitor) Status() Status {
	ec := m.engine.Config()
	return Status{
		Running: m.Running(),
		Config: ConfigView{
			RemediationDisabled: ec.Disabled,
			MaxAttempts:         ec.MaxAttempts,
			Cooldown:            ec.Cooldown,
			AutoRestart:         ec.AutoRestart,
			RestartTimeout:      ec.RestartTimeout,
			CorrelationWindow:   ec.CorrelationWindow,
		},
		Overall:          m.registry.Overall(),
		Modules:          m.registry.All(),
		ActiveIncidents:  m.engine.Correlator().Active(),
		RemediationStats: m.engine.Stats(),
		Handlers:         m.engine.Handlers(),
		Restarters:       m.engine.Restarters(),
	}
}
