package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/docvault/docvault/pkg/contextkeys"
	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/rbac"
)

// KeyVerifier resolves a presented API token to a caller identity.
// *rbac.Store satisfies it.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, token string) (*rbac.Identity, error)
}

// AuthMiddleware authenticates requests. API clients present a docvault
// API key as a bearer token; requests arriving from the identity-service
// gateway carry pre-verified X-User-ID / X-Super-Admin headers instead.
type AuthMiddleware struct {
	verifier KeyVerifier
	// trustHeaders accepts gateway identity headers. Enable only when the
	// service is not directly reachable from outside the gateway.
	trustHeaders bool
}

// NewAuthMiddleware creates an authentication middleware
func NewAuthMiddleware(verifier KeyVerifier, trustHeaders bool) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, trustHeaders: trustHeaders}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.resolve(w, r)
		if !ok {
			return
		}
		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) resolve(w http.ResponseWriter, r *http.Request) (*rbac.Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return nil, false
		}

		identity, err := m.verifier.VerifyKey(r.Context(), parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired API key")
			return nil, false
		}
		return identity, true
	}

	if m.trustHeaders {
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			return &rbac.Identity{
				UserID:     userID,
				SuperAdmin: r.Header.Get("X-Super-Admin") == "true",
			}, true
		}
	}

	httputil.WriteUnauthorized(w, "missing authorization header")
	return nil, false
}

// GetIdentity extracts the authenticated identity from the request context,
// nil if the request did not pass through AuthMiddleware
func GetIdentity(ctx context.Context) *rbac.Identity {
	identity, ok := ctx.Value(contextkeys.IdentityKey).(*rbac.Identity)
	if !ok {
		return nil
	}
	return identity
}
