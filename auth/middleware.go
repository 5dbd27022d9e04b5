package auth

import (
	"net/http"
	"strings"
)

const (
	headerAuthorization = "Authorization"
	headerAPIKey        = "X-API-Key"
	bearerPrefix        = "Bearer "
)

// Middleware protects an HTTP handler with one or more validators. The
// credential is taken from the Authorization header (Bearer token) or the
// X-API-Key header; each validator is tried in order and the first success
// wins. Requests without a valid credential get 401.
//
// The authenticated principal is placed on the request context and can be
// retrieved with PrincipalFromContext.
func Middleware(next http.Handler, validators ...Validator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := extractCredential(r)
		if credential == "" {
			unauthorized(w)
			return
		}

		for _, v := range validators {
			p, err := v.Validate(r.Context(), credential)
			if err != nil {
				continue
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
			return
		}
		unauthorized(w)
	})
}

func extractCredential(r *http.Request) string {
	if header := r.Header.Get(headerAuthorization); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return strings.TrimSpace(r.Header.Get(headerAPIKey))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="autoheal"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
