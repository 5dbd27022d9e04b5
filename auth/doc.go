// Package auth protects the HTTP status surface with token credentials.
//
// Two validators are provided: APIKeyValidator resolves SHA-256 hashed
// static keys, and JWTValidator verifies signed bearer tokens with
// optional issuer and audience checks. Middleware wires one or more
// validators in front of a handler and rejects unauthenticated requests
// with 401.
//
// Basic usage:
//
//	keys := auth.NewAPIKeyValidator()
//	keys.Add("s3cr3t", auth.APIKeyInfo{Principal: "ops-dashboard"})
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, reg)
//	handler := auth.Middleware(mux, keys)
package auth
