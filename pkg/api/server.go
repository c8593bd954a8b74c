package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/observability"
	"github.com/docvault/docvault/pkg/rbac"
	"github.com/docvault/docvault/pkg/transfer"
)

// Server wires the REST surface over the RBAC store, the document store,
// and the transfer orchestrator.
type Server struct {
	rbac     *rbac.Store
	dms      *dms.Store
	transfer *transfer.Service
	checker  middleware.PermissionChecker
	logger   *observability.Logger
	metrics  *observability.Metrics
	router   *mux.Router

	presignTTL  time.Duration
	trustProxy  bool
	maxBodySize int64
}

// Options tunes the server beyond its required dependencies.
type Options struct {
	Metrics *observability.Metrics
	// TrustProxyHeaders accepts X-User-ID / X-Super-Admin from an
	// authenticating gateway in place of an API key.
	TrustProxyHeaders bool
	// MaxUploadBytes caps request bodies; zero means no explicit cap.
	MaxUploadBytes int64
	// PresignTTL is how long presigned download URLs remain valid.
	PresignTTL time.Duration
	// AllowedOrigins configures CORS; empty disables the CORS layer.
	AllowedOrigins []string
	// RedisRateLimiter, when set, replaces the in-memory limiter.
	RedisRateLimiter *middleware.DistributedRateLimitMiddleware
}

// NewServer builds the router with the full middleware pipeline:
// request ID, logging, recovery, rate limiting, then authentication and
// account resolution on tenant routes, with per-route permission checks.
func NewServer(rbacStore *rbac.Store, dmsStore *dms.Store, transferSvc *transfer.Service, checker middleware.PermissionChecker, logger *observability.Logger, opts Options) *Server {
	s := &Server{
		rbac:        rbacStore,
		dms:         dmsStore,
		transfer:    transferSvc,
		checker:     checker,
		logger:      logger,
		metrics:     opts.Metrics,
		router:      mux.NewRouter(),
		presignTTL:  opts.PresignTTL,
		trustProxy:  opts.TrustProxyHeaders,
		maxBodySize: opts.MaxUploadBytes,
	}
	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	base := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
	}
	if len(opts.AllowedOrigins) > 0 {
		base = append(base, httputil.CORSMiddleware(opts.AllowedOrigins))
	}
	if opts.RedisRateLimiter != nil {
		base = append(base, opts.RedisRateLimiter.Handler)
	} else {
		base = append(base, middleware.NewRateLimitMiddleware().Handler)
	}
	if s.maxBodySize > 0 {
		base = append(base, httputil.MaxBytesMiddleware(s.maxBodySize))
	}
	for _, mw := range base {
		s.router.Use(mw)
	}

	s.router.HandleFunc("/healthz", s.healthz).Methods("GET")

	auth := middleware.NewAuthMiddleware(s.rbac, s.trustProxy)
	account := middleware.NewAccountMiddleware(s.rbac)
	perms := middleware.NewPermissionMiddleware(s.checker, s.logger, s.metrics)

	// Account administration operates above any single tenant, so it runs
	// without the X-Account-ID layer. Handlers enforce super-admin.
	admin := s.router.PathPrefix("/api/v1/accounts").Subrouter()
	admin.Use(auth.Handler)
	s.registerAccountRoutes(admin)

	// Everything else is tenant-scoped.
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Handler, account.Handler)
	s.registerRBACRoutes(api, perms)
	s.registerDMSRoutes(api, perms)
	s.registerTransferRoutes(api, perms)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying mux for additional registrations.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.rbac.DB().PingContext(r.Context()); err != nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// handle registers a permission-guarded route.
func handle(r *mux.Router, perms *middleware.PermissionMiddleware, method, path, moduleKey string, action rbac.Action, h http.HandlerFunc) {
	r.Handle(path, perms.Require(moduleKey, action)(h)).Methods(method)
}
