package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docvault/docvault/pkg/observability"
	"github.com/docvault/docvault/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       storage.Config
	Auth          AuthConfig
	Transfer      TransferConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	AllowedOrigins []string
}

// AuthConfig holds permission-check cache settings
type AuthConfig struct {
	// Permission decision cache
	CacheSize int
	CacheTTL  time.Duration
	// UseRedisCache shares decisions across replicas through Redis
	UseRedisCache bool
}

// TransferConfig holds upload/download settings
type TransferConfig struct {
	// MaxUploadBytes bounds a single request body
	MaxUploadBytes int64
	// BulkParallelism bounds concurrent items inside one bulk upload
	BulkParallelism int
	// PresignTTL is the lifetime of presigned download URLs
	PresignTTL time.Duration
	// ReminderSchedule and OrphanSweepSchedule are cron expressions
	ReminderSchedule    string
	OrphanSweepSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel

	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Transfer:      loadTransferConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("DOCVAULT_HOST", "0.0.0.0"),
		Port:            getEnv("DOCVAULT_PORT", "8080"),
		ReadTimeout:     getEnvDuration("DOCVAULT_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvDuration("DOCVAULT_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvDuration("DOCVAULT_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("DOCVAULT_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("DOCVAULT_HEALTH_PORT", "9090"),
		AllowedOrigins:  splitList(getEnv("DOCVAULT_ALLOWED_ORIGINS", "")),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	// PostgreSQL config
	if pgURL := getEnv("DOCVAULT_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("DOCVAULT_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("DOCVAULT_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("DOCVAULT_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	// S3 config
	if s3Endpoint := getEnv("DOCVAULT_S3_ENDPOINT", ""); s3Endpoint != "" {
		cfg.S3Endpoint = s3Endpoint
	}
	if s3Region := getEnv("DOCVAULT_S3_REGION", ""); s3Region != "" {
		cfg.S3Region = s3Region
	}
	if s3Bucket := getEnv("DOCVAULT_S3_BUCKET", ""); s3Bucket != "" {
		cfg.S3Bucket = s3Bucket
	}
	if s3AccessKey := getEnv("DOCVAULT_S3_ACCESS_KEY", ""); s3AccessKey != "" {
		cfg.S3AccessKey = s3AccessKey
	}
	if s3SecretKey := getEnv("DOCVAULT_S3_SECRET_KEY", ""); s3SecretKey != "" {
		cfg.S3SecretKey = s3SecretKey
	}
	if s3UsePathStyle := getEnv("DOCVAULT_S3_USE_PATH_STYLE", ""); s3UsePathStyle != "" {
		cfg.S3UsePathStyle = strings.EqualFold(s3UsePathStyle, "true")
	}

	// Redis config
	if redisURL := getEnv("DOCVAULT_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("DOCVAULT_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("DOCVAULT_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("DOCVAULT_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("DOCVAULT_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	return cfg
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		CacheSize:     getEnvInt("DOCVAULT_PERMISSION_CACHE_SIZE", 4096),
		CacheTTL:      getEnvDuration("DOCVAULT_PERMISSION_CACHE_TTL", 30*time.Second),
		UseRedisCache: getEnvBool("DOCVAULT_PERMISSION_CACHE_REDIS", false),
	}
}

func loadTransferConfig() TransferConfig {
	return TransferConfig{
		MaxUploadBytes:      getEnvInt64("DOCVAULT_MAX_UPLOAD_BYTES", 100*1024*1024),
		BulkParallelism:     getEnvInt("DOCVAULT_BULK_PARALLELISM", 4),
		PresignTTL:          getEnvDuration("DOCVAULT_PRESIGN_TTL", 15*time.Minute),
		ReminderSchedule:    getEnv("DOCVAULT_REMINDER_SCHEDULE", "*/5 * * * *"),
		OrphanSweepSchedule: getEnv("DOCVAULT_ORPHAN_SWEEP_SCHEDULE", "30 2 * * *"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("DOCVAULT_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("DOCVAULT_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("DOCVAULT_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("DOCVAULT_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("DOCVAULT_OTEL_SERVICE_NAME", "docvault"),
		OTelServiceVersion: getEnv("DOCVAULT_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("DOCVAULT_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Storage.S3Bucket == "" {
		return fmt.Errorf("S3 bucket is required")
	}

	if c.Auth.UseRedisCache && c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required when the redis permission cache is enabled")
	}

	if c.Transfer.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Transfer.BulkParallelism <= 0 {
		return fmt.Errorf("bulk parallelism must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true") || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
