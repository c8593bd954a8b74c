package config

import (
	"os"
	"testing"
	"time"

	"github.com/docvault/docvault/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "custom")
	defer os.Unsetenv("TEST_VAR")

	if got := getEnv("TEST_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %v, want custom", got)
	}
	if got := getEnv("TEST_VAR_NOT_SET", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want default", got)
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true string", "true", false, true},
		{"TRUE string", "TRUE", false, true},
		{"one", "1", false, true},
		{"false string", "false", true, false},
		{"garbage", "maybe", true, false},
		{"unset uses default", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			}
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "45s")
	defer os.Unsetenv("TEST_DURATION")

	if got := getEnvDuration("TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Errorf("getEnvDuration() = %v, want 45s", got)
	}

	os.Setenv("TEST_DURATION", "not-a-duration")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration() invalid value = %v, want default 1m", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList("https://a.example.com, https://b.example.com ,")
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("splitList() = %v", got)
	}
	if splitList("") != nil {
		t.Error("splitList(\"\") should be nil")
	}
}

// TestLoadConfig tests loading a full configuration from the environment
func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"DOCVAULT_POSTGRES_URL":         "postgres://localhost/docvault_test",
		"DOCVAULT_S3_BUCKET":            "test-bucket",
		"DOCVAULT_PORT":                 "8088",
		"DOCVAULT_LOG_LEVEL":            "debug",
		"DOCVAULT_BULK_PARALLELISM":     "8",
		"DOCVAULT_PERMISSION_CACHE_TTL": "1m",
	}
	for k, v := range env {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range env {
			os.Unsetenv(k)
		}
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.Port != "8088" {
		t.Errorf("Port = %s, want 8088", cfg.Server.Port)
	}
	if cfg.Storage.PostgresURL != "postgres://localhost/docvault_test" {
		t.Errorf("PostgresURL = %s", cfg.Storage.PostgresURL)
	}
	if cfg.Storage.S3Bucket != "test-bucket" {
		t.Errorf("S3Bucket = %s", cfg.Storage.S3Bucket)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.Observability.LogLevel)
	}
	if cfg.Transfer.BulkParallelism != 8 {
		t.Errorf("BulkParallelism = %d, want 8", cfg.Transfer.BulkParallelism)
	}
	if cfg.Auth.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v, want 1m", cfg.Auth.CacheTTL)
	}
}

// TestValidate tests configuration validation rules
func TestValidate(t *testing.T) {
	base := Config{
		Server: ServerConfig{Port: "8080", HealthPort: "9090"},
		Transfer: TransferConfig{
			MaxUploadBytes:  1024,
			BulkParallelism: 2,
		},
	}
	base.Storage.PostgresURL = "postgres://localhost/docvault"
	base.Storage.S3Bucket = "docvault"

	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"same ports", func(c *Config) { c.Server.HealthPort = c.Server.Port }},
		{"missing postgres url", func(c *Config) { c.Storage.PostgresURL = "" }},
		{"missing bucket", func(c *Config) { c.Storage.S3Bucket = "" }},
		{"redis cache without redis", func(c *Config) { c.Auth.UseRedisCache = true }},
		{"zero upload limit", func(c *Config) { c.Transfer.MaxUploadBytes = 0 }},
		{"zero parallelism", func(c *Config) { c.Transfer.BulkParallelism = 0 }},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
