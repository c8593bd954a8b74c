package middleware

import (
	"context"
	"net/http"

	"github.com/docvault/docvault/pkg/contextkeys"
	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/rbac"
)

// AccountResolver checks that an account exists. *rbac.Store satisfies it.
type AccountResolver interface {
	GetAccount(ctx context.Context, accountID string) (*rbac.Account, error)
}

// AccountMiddleware resolves the tenant for a request from the
// X-Account-ID header and pins API-key identities to their own account.
// Must run after AuthMiddleware.
type AccountMiddleware struct {
	resolver AccountResolver
}

// NewAccountMiddleware creates an account-scoping middleware
func NewAccountMiddleware(resolver AccountResolver) *AccountMiddleware {
	return &AccountMiddleware{resolver: resolver}
}

// Handler wraps an HTTP handler with account resolution
func (m *AccountMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := r.Header.Get("X-Account-ID")
		if accountID == "" {
			httputil.WriteBadRequest(w, "X-Account-ID header is required")
			return
		}

		// An API key may only act within the account that issued it.
		if identity := GetIdentity(r.Context()); identity != nil {
			if identity.AccountID != nil && *identity.AccountID != accountID {
				httputil.WriteForbidden(w, "API key is not valid for this account")
				return
			}
		}

		if _, err := m.resolver.GetAccount(r.Context(), accountID); err != nil {
			httputil.WriteError(w, err)
			return
		}

		ctx := contextkeys.WithAccount(r.Context(), accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAccountID extracts the resolved account id from the request context
func GetAccountID(ctx context.Context) string {
	return contextkeys.GetAccount(ctx)
}
