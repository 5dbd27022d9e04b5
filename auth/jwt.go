package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT validator.
type JWTConfig struct {
	// Issuer is the expected token issuer (iss claim). Empty skips the
	// check.
	Issuer string

	// Audience is the expected token audience (aud claim). Empty skips
	// the check.
	Audience string

	// RolesClaim is the claim containing the caller's roles.
	// Default: "roles"
	RolesClaim string
}

// KeyProvider retrieves signing keys for JWT validation.
type KeyProvider interface {
	// GetKey returns the key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a single static signing key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	return p.key, nil
}

// JWTValidator validates bearer tokens against a signing key.
type JWTValidator struct {
	config      JWTConfig
	keyProvider KeyProvider
}

// NewJWTValidator creates a JWT validator.
func NewJWTValidator(config JWTConfig, keyProvider KeyProvider) *JWTValidator {
	if config.RolesClaim == "" {
		config.RolesClaim = "roles"
	}
	return &JWTValidator{config: config, keyProvider: keyProvider}
}

// Name returns "jwt".
func (v *JWTValidator) Name() string { return "jwt" }

// Validate parses and verifies the token and maps its claims to a
// principal.
func (v *JWTValidator) Validate(ctx context.Context, credential string) (*Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrMissingCredentials
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.Parse(credential, func(token *jwt.Token) (any, error) {
		kid := ""
		if kidVal, ok := token.Header["kid"].(string); ok {
			kid = kidVal
		}
		return v.keyProvider.GetKey(ctx, kid)
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrInvalidCredentials
		}
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	p := &Principal{Method: MethodJWT}
	if sub, ok := claims["sub"].(string); ok {
		p.Name = sub
	}
	if roles, ok := claims[v.config.RolesClaim].([]any); ok {
		p.Roles = make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				p.Roles = append(p.Roles, s)
			}
		}
	}
	return p, nil
}

var _ Validator = (*JWTValidator)(nil)
var _ KeyProvider = (*StaticKeyProvider)(nil)
