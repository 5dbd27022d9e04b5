package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAPIKeyValidator(t *testing.T) {
	v := NewAPIKeyValidator()
	v.Add("s3cr3t", APIKeyInfo{Principal: "ops-dashboard", Roles: []string{"reader"}})

	p, err := v.Validate(context.Background(), "s3cr3t")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if p.Name != "ops-dashboard" {
		t.Errorf("Name = %q, want %q", p.Name, "ops-dashboard")
	}
	if p.Method != MethodAPIKey {
		t.Errorf("Method = %q, want %q", p.Method, MethodAPIKey)
	}
	if len(p.Roles) != 1 || p.Roles[0] != "reader" {
		t.Errorf("Roles = %v, want [reader]", p.Roles)
	}
}

func TestAPIKeyValidator_Rejections(t *testing.T) {
	v := NewAPIKeyValidator()
	v.Add("s3cr3t", APIKeyInfo{Principal: "ops"})

	if _, err := v.Validate(context.Background(), ""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("empty key error = %v, want ErrMissingCredentials", err)
	}
	if _, err := v.Validate(context.Background(), "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong key error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAPIKeyValidator_Expiry(t *testing.T) {
	v := NewAPIKeyValidator()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return base }
	v.Add("s3cr3t", APIKeyInfo{Principal: "ops", ExpiresAt: base.Add(time.Hour)})

	if _, err := v.Validate(context.Background(), "s3cr3t"); err != nil {
		t.Errorf("Validate() before expiry error = %v", err)
	}

	v.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := v.Validate(context.Background(), "s3cr3t"); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() past expiry error = %v, want ErrTokenExpired", err)
	}
}

func TestAPIKeyValidator_Remove(t *testing.T) {
	v := NewAPIKeyValidator()
	v.Add("s3cr3t", APIKeyInfo{Principal: "ops"})
	v.Remove(HashAPIKey("s3cr3t"))

	if _, err := v.Validate(context.Background(), "s3cr3t"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Validate() after Remove error = %v, want ErrInvalidCredentials", err)
	}
}

func TestHashAPIKey(t *testing.T) {
	a, b := HashAPIKey("alpha"), HashAPIKey("alpha")
	if a != b {
		t.Error("hash is not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if a == HashAPIKey("beta") {
		t.Error("distinct keys collide")
	}
}

func TestPrincipalContext(t *testing.T) {
	p := &Principal{Name: "ops", Method: MethodAPIKey}
	ctx := ContextWithPrincipal(context.Background(), p)

	got, ok := PrincipalFromContext(ctx)
	if !ok || got.Name != "ops" {
		t.Errorf("PrincipalFromContext() = %v, %v; want ops principal", got, ok)
	}

	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Error("PrincipalFromContext() = ok on empty context")
	}
}
