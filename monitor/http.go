package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/jonwraymond/autoheal/auth"
	"github.com/jonwraymond/autoheal/health"
)

// StatusHandler serves the full subsystem snapshot as JSON.
func (m *Monitor) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.Status()); err != nil {
			http.Error(w, "encoding error", http.StatusInternalServerError)
		}
	})
}

// Handler returns the monitor's HTTP surface: the registry's health
// endpoints plus /status. When validators are supplied the whole surface
// requires a valid credential.
func (m *Monitor) Handler(validators ...auth.Validator) http.Handler {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, m.registry)
	mux.Handle("/status", m.StatusHandler())

	if len(validators) == 0 {
		return mux
	}
	return auth.Middleware(mux, validators...)
}
