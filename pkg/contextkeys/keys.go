// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *rbac.Identity for the authenticated caller
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: permission middleware, all protected endpoints
	IdentityKey Key = "identity"

	// AccountKey contains the account ID string from the X-Account-ID header
	// Set by: middleware.AccountMiddleware (pkg/middleware/account.go)
	// Required by: all account-scoped endpoints
	AccountKey Key = "account_id"

	// RequestIDKey contains request ID string (UUID)
	// Set by: HTTP middleware
	// Used by: Logger, tracing
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger with request-scoped fields
	LoggerKey Key = "logger"
)

// WithIdentity adds the caller identity to the context
func WithIdentity(ctx context.Context, identity interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// WithAccount adds the account ID to the context
func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, AccountKey, accountID)
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetAccount retrieves the account ID from context, empty if unset
func GetAccount(ctx context.Context) string {
	if accountID, ok := ctx.Value(AccountKey).(string); ok {
		return accountID
	}
	return ""
}

// GetRequestID retrieves the request ID from context, empty if unset
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
