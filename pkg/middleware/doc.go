// Package middleware provides HTTP middleware for authentication, account
// resolution, permission enforcement, and rate limiting.
//
// # Overview
//
// Request processing runs in a fixed order: authenticate the caller, resolve
// the tenant account, then enforce module permissions. Rate limiting can sit
// in front of all three.
//
// # Middleware Components
//
// AuthMiddleware: API-key authentication
//
//	auth := middleware.NewAuthMiddleware(rbacStore, false)
//	router.Use(auth.Handler)
//	// Verifies the Bearer API key and adds rbac.Identity to the context.
//	// With trustHeaders enabled, X-User-ID / X-Super-Admin from a trusted
//	// gateway are accepted instead.
//
// AccountMiddleware: tenant resolution from X-Account-ID
//
//	account := middleware.NewAccountMiddleware(rbacStore)
//	router.Use(account.Handler)
//	// Rejects API keys pinned to a different account.
//
// PermissionMiddleware: per-route module permission checks
//
//	perms := middleware.NewPermissionMiddleware(checker, logger, metrics)
//	router.Handle("/files", perms.Require("files", rbac.ActionRead)(handler))
//	// Fails closed: checker errors deny the request.
//
// RateLimitMiddleware: in-memory token-bucket rate limiting, keyed by
// authenticated user ID or client IP.
//
//	rl := middleware.NewRateLimitMiddleware()
//	router.Use(rl.Handler)
//
// DistributedRateLimitMiddleware: Redis-backed fixed-window rate limiting
// for multi-instance deployments. Fails open on Redis errors by default.
//
//	drl := middleware.NewDistributedRateLimitMiddleware(redisClient)
//	router.Use(drl.Handler)
//
// # Rate Limiting Defaults
//
// Anonymous: 100 req/min, 10 burst
// Authenticated: 1000 req/min, 50 burst
//
// # Related Packages
//
//   - pkg/rbac: identity verification and permission checking
//   - pkg/contextkeys: request-scoped identity and account values
//   - pkg/httputil: error responses written by these middlewares
package middleware
