package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLivenessHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	LivenessHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "OK" {
		t.Errorf("body = %q, want %q", w.Body.String(), "OK")
	}
}

func TestReadinessHandler(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	r.Register("good", passCheck, testOpts())
	r.Register("bad", failCheck, testOpts())
	ctx := context.Background()

	r.CheckNow(ctx, "good")
	w := httptest.NewRecorder()
	ReadinessHandler(r)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("all-healthy response = %d %q, want 200 OK", w.Code, w.Body.String())
	}

	r.CheckNow(ctx, "bad")
	w = httptest.NewRecorder()
	ReadinessHandler(r)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "DEGRADED" {
		t.Errorf("degraded response = %d %q, want 200 DEGRADED", w.Code, w.Body.String())
	}

	r.CheckNow(ctx, "bad")
	r.CheckNow(ctx, "bad")
	w = httptest.NewRecorder()
	ReadinessHandler(r)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable || w.Body.String() != "UNHEALTHY" {
		t.Errorf("unhealthy response = %d %q, want 503 UNHEALTHY", w.Code, w.Body.String())
	}
}

func TestDetailedHandler(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	r.Register("db", failCheck, testOpts())
	r.CheckNow(context.Background(), "db")

	w := httptest.NewRecorder()
	DetailedHandler(r)(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (degraded is still serving)", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want %q", resp.Status, "degraded")
	}
	mod, ok := resp.Modules["db"]
	if !ok {
		t.Fatal("module db missing from response")
	}
	if mod.ConsecutiveFailures != 1 || mod.LastError != "backend down" {
		t.Errorf("module view = %+v, want 1 failure with message", mod)
	}
}

func TestModuleHandler(t *testing.T) {
	r := NewRegistry()
	defer r.Stop()

	r.Register("db", passCheck, testOpts())
	r.CheckNow(context.Background(), "db")

	w := httptest.NewRecorder()
	ModuleHandler(r, "db")(w, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	ModuleHandler(r, "ghost")(w, httptest.NewRequest(http.MethodGet, "/health/ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown module status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
