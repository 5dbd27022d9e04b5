package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// APIKeyInfo describes one registered API key.
type APIKeyInfo struct {
	// KeyHash is the SHA-256 hex digest of the key.
	KeyHash string

	// Principal is the identity associated with this key.
	Principal string

	// Roles are the roles granted to this key.
	Roles []string

	// ExpiresAt is when this key expires (zero = never).
	ExpiresAt time.Time
}

// APIKeyValidator resolves presented API keys against a registered set.
// Keys are stored hashed; lookups hash the presented key first so plain
// key material never sits in memory longer than the request.
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[string]APIKeyInfo // keyed by hash

	// now is an injectable clock for tests.
	now func() time.Time
}

// NewAPIKeyValidator creates an empty API key validator.
func NewAPIKeyValidator() *APIKeyValidator {
	return &APIKeyValidator{
		keys: make(map[string]APIKeyInfo),
		now:  time.Now,
	}
}

// Name returns "api_key".
func (v *APIKeyValidator) Name() string { return "api_key" }

// Add registers a key. The plain key is hashed before storage.
func (v *APIKeyValidator) Add(key string, info APIKeyInfo) {
	info.KeyHash = HashAPIKey(key)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[info.KeyHash] = info
}

// Remove forgets a key by its hash.
func (v *APIKeyValidator) Remove(keyHash string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, keyHash)
}

// Validate resolves the presented key to its principal.
func (v *APIKeyValidator) Validate(_ context.Context, credential string) (*Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrMissingCredentials
	}

	hash := HashAPIKey(credential)

	v.mu.RLock()
	info, ok := v.keys[hash]
	v.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !info.ExpiresAt.IsZero() && v.now().After(info.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return &Principal{
		Name:   info.Principal,
		Roles:  info.Roles,
		Method: MethodAPIKey,
	}, nil
}

// HashAPIKey hashes an API key with SHA-256 for storage.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

var _ Validator = (*APIKeyValidator)(nil)
