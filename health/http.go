package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the monitoring process is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes based on the
// registry's current status counts. It reports the polled state; it does
// not force evaluations.
func ReadinessHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overall := reg.Overall()

		w.Header().Set("Content-Type", "text/plain")

		switch {
		case overall.Unhealthy > 0:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNHEALTHY"))
		case overall.Degraded > 0:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		}
	}
}

// HealthResponse is the JSON response for the detailed health endpoint.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Modules   map[string]ModuleResponse `json:"modules,omitempty"`
}

// ModuleResponse is the JSON view of one module's record.
type ModuleResponse struct {
	Status               string         `json:"status"`
	ConsecutiveFailures  int            `json:"consecutive_failures"`
	ConsecutiveSuccesses int            `json:"consecutive_successes"`
	TotalChecks          int            `json:"total_checks"`
	SuccessfulChecks     int            `json:"successful_checks"`
	FailedChecks         int            `json:"failed_checks"`
	AverageLatency       string         `json:"average_latency"`
	LastCheckTime        string         `json:"last_check_time,omitempty"`
	LastHealthyTime      string         `json:"last_healthy_time,omitempty"`
	LastError            string         `json:"last_error,omitempty"`
	Enabled              bool           `json:"enabled"`
	Metadata             map[string]any `json:"metadata,omitempty"`
}

func moduleResponse(rec Record) ModuleResponse {
	resp := ModuleResponse{
		Status:               rec.Status.String(),
		ConsecutiveFailures:  rec.ConsecutiveFailures,
		ConsecutiveSuccesses: rec.ConsecutiveSuccesses,
		TotalChecks:          rec.TotalChecks,
		SuccessfulChecks:     rec.SuccessfulChecks,
		FailedChecks:         rec.FailedChecks,
		AverageLatency:       rec.AverageLatency.String(),
		LastError:            rec.LastError,
		Enabled:              rec.Enabled,
		Metadata:             rec.Metadata,
	}
	if !rec.LastCheckTime.IsZero() {
		resp.LastCheckTime = rec.LastCheckTime.UTC().Format(time.RFC3339)
	}
	if !rec.LastHealthyTime.IsZero() {
		resp.LastHealthyTime = rec.LastHealthyTime.UTC().Format(time.RFC3339)
	}
	return resp
}

// DetailedHandler returns an HTTP handler exposing every module's record.
func DetailedHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := reg.All()
		overall := reg.Overall()

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Modules:   make(map[string]ModuleResponse, len(records)),
		}
		switch {
		case overall.Unhealthy > 0:
			response.Status = StatusUnhealthy.String()
		case overall.Degraded > 0:
			response.Status = StatusDegraded.String()
		default:
			response.Status = StatusHealthy.String()
		}

		for name, rec := range records {
			response.Modules[name] = moduleResponse(rec)
		}

		w.Header().Set("Content-Type", "application/json")
		if overall.Unhealthy > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// ModuleHandler returns an HTTP handler for a single module's record.
func ModuleHandler(reg *Registry, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := reg.Get(name)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if rec.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(moduleResponse(rec))
	}
}

// RegisterHandlers registers the standard health endpoints on the given mux.
func RegisterHandlers(mux *http.ServeMux, reg *Registry) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(reg))
	mux.HandleFunc("/health", DetailedHandler(reg))
}
