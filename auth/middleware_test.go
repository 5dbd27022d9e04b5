package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Error("no principal on request context")
			http.Error(w, "no principal", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(p.Name))
	})
}

func TestMiddleware_APIKeyHeader(t *testing.T) {
	keys := NewAPIKeyValidator()
	keys.Add("s3cr3t", APIKeyInfo{Principal: "ops"})
	handler := Middleware(protectedEcho(t), keys)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-API-Key", "s3cr3t")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "ops" {
		t.Errorf("body = %q, want principal name", w.Body.String())
	}
}

func TestMiddleware_BearerHeader(t *testing.T) {
	keys := NewAPIKeyValidator()
	keys.Add("s3cr3t", APIKeyInfo{Principal: "ops"})
	handler := Middleware(protectedEcho(t), keys)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer s3cr3t")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMiddleware_RejectsMissingAndInvalid(t *testing.T) {
	keys := NewAPIKeyValidator()
	keys.Add("s3cr3t", APIKeyInfo{Principal: "ops"})
	handler := Middleware(http.NotFoundHandler(), keys)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no credential status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("WWW-Authenticate header missing")
	}

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad credential status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestMiddleware_TriesValidatorsInOrder(t *testing.T) {
	first := NewAPIKeyValidator() // knows nothing
	second := NewAPIKeyValidator()
	second.Add("s3cr3t", APIKeyInfo{Principal: "fallback"})
	handler := Middleware(protectedEcho(t), first, second)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-API-Key", "s3cr3t")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "fallback" {
		t.Errorf("body = %q, want %q", w.Body.String(), "fallback")
	}
}
