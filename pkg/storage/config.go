// Package storage defines the object store abstraction used by the upload
// pipeline, plus the S3 and in-memory implementations and zip helpers.
package storage

import "time"

// Config for storage backends
type Config struct {
	// PostgreSQL config
	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration
	PostgresMaxLifetime time.Duration
	PostgresMaxIdleTime time.Duration

	// S3 config
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// Redis config (permission-check cache)
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns:    20,
		PostgresMinConns:    2,
		PostgresTimeout:     10 * time.Second,
		PostgresMaxLifetime: time.Hour,
		PostgresMaxIdleTime: 10 * time.Minute,
		S3Region:            "us-east-1",
		S3Bucket:            "docvault",
		RedisDB:             0,
		RedisMaxRetries:     3,
		RedisPoolSize:       10,
	}
}
