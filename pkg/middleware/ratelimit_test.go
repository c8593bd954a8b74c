package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/docvault/docvault/pkg/contextkeys"
	"github.com/docvault/docvault/pkg/rbac"
)

func withTestIdentity(r *http.Request, userID string) *http.Request {
	ctx := contextkeys.WithIdentity(r.Context(), &rbac.Identity{UserID: userID})
	return r.WithContext(ctx)
}

func TestRateLimiter_Allow(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Second,
		BurstSize:         2,
	}
	limiter := NewRateLimiter(config)

	key := "test-user"

	allowedCount := 0
	for i := 0; i < config.RequestsPerWindow+config.BurstSize+5; i++ {
		if limiter.Allow(key) {
			allowedCount++
		}
	}

	expected := config.RequestsPerWindow + config.BurstSize
	if allowedCount != expected {
		t.Errorf("Allowed %d requests, want %d", allowedCount, expected)
	}

	// After waiting, tokens should refill
	time.Sleep(time.Second)
	if !limiter.Allow(key) {
		t.Error("Should allow request after refill")
	}
}

func TestRateLimiter_Remaining(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Second,
		BurstSize:         2,
	}
	limiter := NewRateLimiter(config)

	key := "test-user"

	initial := limiter.Remaining(key)
	expected := config.RequestsPerWindow + config.BurstSize
	if initial != expected {
		t.Errorf("Initial remaining = %d, want %d", initial, expected)
	}

	limiter.Allow(key)
	remaining := limiter.Remaining(key)
	if remaining != initial-1 {
		t.Errorf("After using 1 token, remaining = %d, want %d", remaining, initial-1)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    100 * time.Millisecond,
		BurstSize:         2,
	}
	limiter := NewRateLimiter(config)

	keys := []string{"user1", "user2", "user3"}
	for _, key := range keys {
		limiter.Allow(key)
	}

	if len(limiter.buckets) != len(keys) {
		t.Errorf("Expected %d buckets, got %d", len(keys), len(limiter.buckets))
	}

	time.Sleep(300 * time.Millisecond)
	limiter.Cleanup()

	if len(limiter.buckets) != 0 {
		t.Errorf("Expected 0 buckets after cleanup, got %d", len(limiter.buckets))
	}
}

func TestRateLimitMiddleware_KeysByIdentity(t *testing.T) {
	m := NewRateLimitMiddleware()
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Authenticated request uses the user limiter key.
	w := httptest.NewRecorder()
	req := withTestIdentity(httptest.NewRequest("GET", "/files", nil), "user-1")
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("expected rate limit headers")
	}
	if m.userLimiter.Remaining("user:user-1") >= AuthenticatedRateLimitConfig().RequestsPerWindow+AuthenticatedRateLimitConfig().BurstSize {
		t.Error("user bucket untouched")
	}

	// Anonymous request draws from the IP bucket.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/files", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	handler.ServeHTTP(w, req)
	if m.anonymousLimiter.Remaining("ip:203.0.113.9") >= DefaultRateLimitConfig().RequestsPerWindow+DefaultRateLimitConfig().BurstSize {
		t.Error("anonymous bucket untouched")
	}
}

func TestRateLimitMiddleware_Exceeded(t *testing.T) {
	m := &RateLimitMiddleware{
		userLimiter:      NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute, BurstSize: 0}),
		anonymousLimiter: NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute, BurstSize: 0}),
	}
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := withTestIdentity(httptest.NewRequest("GET", "/files", nil), "user-1")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestDistributedRateLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	limiter := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 3,
		WindowDuration:    time.Minute,
	}, "test")

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user:u1")
		if err != nil {
			t.Fatalf("allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "user:u1")
	if err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	if allowed {
		t.Fatal("fourth request should be limited")
	}

	// Another key has its own window.
	allowed, err = limiter.Allow(ctx, "user:u2")
	if err != nil || !allowed {
		t.Fatalf("other key should be allowed (allowed=%v, err=%v)", allowed, err)
	}

	remaining, err := limiter.Remaining(ctx, "user:u2")
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("remaining = %d, want 2", remaining)
	}

	if err := limiter.Reset(ctx, "user:u1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	allowed, err = limiter.Allow(ctx, "user:u1")
	if err != nil || !allowed {
		t.Fatalf("request after reset should be allowed (allowed=%v, err=%v)", allowed, err)
	}
}

func TestDistributedRateLimitMiddleware_FailOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	m := NewDistributedRateLimitMiddleware(client)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Redis down + fail open: requests pass.
	mr.Close()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withTestIdentity(httptest.NewRequest("GET", "/files", nil), "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("fail-open status = %d, want 200", w.Code)
	}

	// Fail closed: 503.
	m.SetFailOpen(false)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, withTestIdentity(httptest.NewRequest("GET", "/files", nil), "user-1"))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("fail-closed status = %d, want 503", w.Code)
	}
}
