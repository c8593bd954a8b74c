package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Object storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Upload pipeline metrics
	UploadsTotal       *prometheus.CounterVec
	UploadBytesTotal   prometheus.Counter
	DedupHitsTotal     prometheus.Counter
	DownloadsTotal     *prometheus.CounterVec
	ZipEntriesTotal    *prometheus.CounterVec

	// RBAC metrics
	PermissionChecksTotal *prometheus.CounterVec
	PermissionCacheHits   *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docvault_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_storage_operations_total",
				Help: "Total number of object store operations",
			},
			[]string{"operation", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docvault_storage_operation_duration_seconds",
				Help:    "Object store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_uploads_total",
				Help: "Total number of file uploads",
			},
			[]string{"kind", "status"},
		),
		UploadBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docvault_upload_bytes_total",
				Help: "Total bytes accepted through uploads",
			},
		),
		DedupHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docvault_dedup_hits_total",
				Help: "Uploads answered with an existing file by content hash",
			},
		),
		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_downloads_total",
				Help: "Total number of downloads",
			},
			[]string{"kind", "status"},
		),
		ZipEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_zip_entries_total",
				Help: "Zip archive entries processed during zip upload",
			},
			[]string{"status"},
		),
		PermissionChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_permission_checks_total",
				Help: "Total number of RBAC permission checks",
			},
			[]string{"module", "action", "result"},
		),
		PermissionCacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_permission_cache_hits_total",
				Help: "Permission check cache hits by layer",
			},
			[]string{"layer"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docvault_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docvault_db_connections_idle",
				Help: "Idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.UploadsTotal,
		m.UploadBytesTotal,
		m.DedupHitsTotal,
		m.DownloadsTotal,
		m.ZipEntriesTotal,
		m.PermissionChecksTotal,
		m.PermissionCacheHits,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler for the given registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveStorageOp records one object store operation
func (m *Metrics) ObserveStorageOp(operation string, err error, start time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// HTTPMiddleware instruments a handler with request count and duration
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
