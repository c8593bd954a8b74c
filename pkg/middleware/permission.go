package middleware

import (
	"context"
	"net/http"

	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/observability"
	"github.com/docvault/docvault/pkg/rbac"
)

// PermissionChecker decides whether an identity may act on a module
// within an account. *rbac.Checker satisfies it.
type PermissionChecker interface {
	CanPerform(ctx context.Context, id rbac.Identity, accountID, moduleKey string, action rbac.Action) (bool, error)
}

// PermissionMiddleware enforces module-level permissions. Must run after
// AuthMiddleware and AccountMiddleware. Resolution errors deny the
// request; the check fails closed.
type PermissionMiddleware struct {
	checker PermissionChecker
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewPermissionMiddleware creates a permission-enforcement middleware
func NewPermissionMiddleware(checker PermissionChecker, logger *observability.Logger, metrics *observability.Metrics) *PermissionMiddleware {
	return &PermissionMiddleware{checker: checker, logger: logger, metrics: metrics}
}

// Require returns middleware enforcing action on moduleKey
func (m *PermissionMiddleware) Require(moduleKey string, action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}
			accountID := GetAccountID(r.Context())
			if accountID == "" {
				httputil.WriteBadRequest(w, "X-Account-ID header is required")
				return
			}

			allowed, err := m.checker.CanPerform(r.Context(), *identity, accountID, moduleKey, action)
			if err != nil {
				m.logger.WithError(err).WithFields(map[string]interface{}{
					"user_id":    identity.UserID,
					"account_id": accountID,
					"module":     moduleKey,
					"action":     string(action),
				}).Error("permission check failed")
				m.observe(moduleKey, string(action), "error")
				httputil.WriteForbidden(w, "permission denied")
				return
			}
			if !allowed {
				m.observe(moduleKey, string(action), "denied")
				httputil.WriteForbidden(w, "permission denied")
				return
			}

			m.observe(moduleKey, string(action), "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func (m *PermissionMiddleware) observe(module, action, outcome string) {
	if m.metrics == nil {
		return
	}
	m.metrics.PermissionChecksTotal.WithLabelValues(module, action, outcome).Inc()
}
