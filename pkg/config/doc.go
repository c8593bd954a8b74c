// Package config loads and validates application configuration from
// environment variables, with sensible defaults for everything but the
// connection endpoints.
//
// # Server settings
//
//	DOCVAULT_HOST="0.0.0.0"
//	DOCVAULT_PORT="8080"
//	DOCVAULT_HEALTH_PORT="9090"
//	DOCVAULT_READ_TIMEOUT="30s"
//	DOCVAULT_WRITE_TIMEOUT="60s"
//	DOCVAULT_ALLOWED_ORIGINS="https://app.example.com"
//
// # Storage settings
//
//	DOCVAULT_POSTGRES_URL="postgres://localhost/docvault"
//	DOCVAULT_POSTGRES_MAX_CONNS="20"
//	DOCVAULT_S3_ENDPOINT="http://minio:9000"
//	DOCVAULT_S3_BUCKET="docvault"
//	DOCVAULT_S3_REGION="us-east-1"
//	DOCVAULT_REDIS_URL="redis://localhost:6379"
//
// # Auth and transfer settings
//
//	DOCVAULT_PERMISSION_CACHE_SIZE="4096"
//	DOCVAULT_PERMISSION_CACHE_TTL="30s"
//	DOCVAULT_PERMISSION_CACHE_REDIS="false"
//	DOCVAULT_MAX_UPLOAD_BYTES="104857600"
//	DOCVAULT_BULK_PARALLELISM="4"
//	DOCVAULT_PRESIGN_TTL="15m"
//	DOCVAULT_REMINDER_SCHEDULE="*/5 * * * *"
//	DOCVAULT_ORPHAN_SWEEP_SCHEDULE="30 2 * * *"
//
// # Observability settings
//
//	DOCVAULT_LOG_LEVEL="info"  # debug, info, warn, error
//	DOCVAULT_METRICS_ENABLED="true"
//	DOCVAULT_OTEL_ENABLED="false"
//	DOCVAULT_OTEL_ENDPOINT="otel-collector:4317"
//
// Load with:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
