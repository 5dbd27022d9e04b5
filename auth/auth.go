package auth

import "context"

// Method identifies how a principal was authenticated.
type Method string

const (
	MethodAPIKey Method = "api_key"
	MethodJWT    Method = "jwt"
)

// Principal is the authenticated caller of a protected endpoint.
type Principal struct {
	// Name is the caller identity (API key owner or JWT subject).
	Name string

	// Roles are the roles granted to the caller.
	Roles []string

	// Method is how the principal authenticated.
	Method Method
}

// Validator checks a presented credential and resolves it to a principal.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: a rejected credential returns one of the package sentinel
//     errors (ErrMissingCredentials, ErrInvalidCredentials,
//     ErrTokenExpired, ErrTokenMalformed); anything else is an internal
//     validator failure.
type Validator interface {
	// Name identifies the validator ("api_key", "jwt").
	Name() string

	// Validate checks the credential and returns the principal it
	// represents.
	Validate(ctx context.Context, credential string) (*Principal, error)
}

type contextKey struct{}

// ContextWithPrincipal returns a context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext retrieves the principal set by the middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok
}
