package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/docvault/docvault/pkg/api"
	"github.com/docvault/docvault/pkg/config"
	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/observability"
	"github.com/docvault/docvault/pkg/rbac"
	"github.com/docvault/docvault/pkg/storage"
	"github.com/docvault/docvault/pkg/storage/postgres"
	"github.com/docvault/docvault/pkg/transfer"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}
	if providers != nil {
		defer func() {
			if err := observability.ShutdownOTel(context.Background(), providers, logger); err != nil {
				logger.WithError(err).Warn("otel shutdown failed")
			}
		}()
	}

	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	conn, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		URL:         cfg.Storage.PostgresURL,
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
		MaxLifetime: cfg.Storage.PostgresMaxLifetime,
		MaxIdleTime: cfg.Storage.PostgresMaxIdleTime,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn.DB(), rbac.Migrations(), dms.Migrations()).Run(ctx); err != nil {
		return err
	}

	rbacStore := rbac.NewStore(conn.DB())
	if err := rbacStore.SeedModules(ctx); err != nil {
		return err
	}
	dmsStore := dms.NewStore(conn.DB())

	objects, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if err := objects.HealthCheck(ctx); err != nil {
		return err
	}
	logger.WithField("bucket", cfg.Storage.S3Bucket).Info("object storage ready")

	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:       cfg.Storage.RedisURL,
			Password:   cfg.Storage.RedisPassword,
			DB:         cfg.Storage.RedisDB,
			MaxRetries: cfg.Storage.RedisMaxRetries,
			PoolSize:   cfg.Storage.RedisPoolSize,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	checkerCfg := rbac.CheckerConfig{
		CacheSize: cfg.Auth.CacheSize,
		CacheTTL:  cfg.Auth.CacheTTL,
	}
	if cfg.Auth.UseRedisCache {
		checkerCfg.Redis = redisClient
	}
	checker := rbac.NewChecker(rbacStore, checkerCfg)

	transferSvc := transfer.NewService(dmsStore, objects, logger,
		transfer.WithMetrics(metrics),
		transfer.WithParallelism(cfg.Transfer.BulkParallelism),
	)

	reconciler := transfer.NewReconciler(dmsStore, objects, logger, nil)
	if err := reconciler.Start(cfg.Transfer.ReminderSchedule, cfg.Transfer.OrphanSweepSchedule); err != nil {
		return err
	}
	defer reconciler.Stop()

	opts := api.Options{
		Metrics:        metrics,
		MaxUploadBytes: cfg.Transfer.MaxUploadBytes,
		PresignTTL:     cfg.Transfer.PresignTTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if redisClient != nil {
		opts.RedisRateLimiter = middleware.NewDistributedRateLimitMiddleware(redisClient)
	}
	server := api.NewServer(rbacStore, dmsStore, transferSvc, checker, logger, opts)

	healthSrv := newHealthServer(cfg, conn, objects, redisClient, registry)
	go func() {
		logger.WithField("port", cfg.Server.HealthPort).Info("health server listening")
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	httpSrv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpSrv.Addr).Info("server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("health server shutdown failed")
	}
	return httpSrv.Shutdown(shutdownCtx)
}

// newHealthServer serves liveness, readiness, and metrics on a dedicated
// port so probes bypass the API middleware pipeline.
func newHealthServer(cfg *config.Config, conn *postgres.ConnectionManager, objects *storage.S3Store, redisClient *redis.Client, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.HealthCheck(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := objects.HealthCheck(r.Context()); err != nil {
			http.Error(w, "object storage unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	if cfg.Observability.MetricsEnabled {
		mux.Handle("/metrics", observability.Handler(registry))
	}
	return &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: mux,
	}
}
