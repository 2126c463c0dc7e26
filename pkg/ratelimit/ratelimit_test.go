package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/aidosk/tutorgate/pkg/config"
)

func newTestLimiter(t *testing.T, limit int64, window string) *Limiter {
	t.Helper()

	cfg := &config.RateLimitConfig{Limit: limit, Window: window}
	cfg.SetDefaults()

	limiter, err := NewLimiter(cfg, NewMemoryStore())
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}
	return limiter
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := newTestLimiter(t, 3, "minute")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if !d.Allowed {
			t.Errorf("request %d: expected allowed", i)
		}
		if want := int64(3 - i); d.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i, d.Remaining, want)
		}
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Error("request over limit should be denied")
	}
	if d.RetryAfter <= 0 {
		t.Error("expected retry_after to be set on denial")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 1, "minute")
	ctx := context.Background()

	if d, _ := limiter.Allow(ctx, "10.0.0.1"); !d.Allowed {
		t.Fatal("first request for key A should pass")
	}
	if d, _ := limiter.Allow(ctx, "10.0.0.2"); !d.Allowed {
		t.Error("first request for key B should pass regardless of key A")
	}
	if d, _ := limiter.Allow(ctx, "10.0.0.1"); d.Allowed {
		t.Error("second request for key A should be denied")
	}
}

func TestLimiter_EmptyKey(t *testing.T) {
	limiter := newTestLimiter(t, 1, "minute")

	if _, err := limiter.Allow(context.Background(), ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestMemoryStore_WindowReset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	count, _, err := store.Increment(ctx, "k", 30*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	count, _, _ = store.Increment(ctx, "k", 30*time.Millisecond)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	time.Sleep(40 * time.Millisecond)

	count, ttl, _ := store.Increment(ctx, "k", 30*time.Millisecond)
	if count != 1 {
		t.Errorf("count after window expiry = %d, want 1", count)
	}
	if ttl <= 0 {
		t.Errorf("expected fresh window ttl, got %v", ttl)
	}
}

func TestNewLimiter_Validation(t *testing.T) {
	cfg := &config.RateLimitConfig{Limit: 10, Window: "hour"}
	cfg.SetDefaults()

	if _, err := NewLimiter(cfg, nil); err == nil {
		t.Error("expected error for nil store")
	}

	bad := &config.RateLimitConfig{Limit: 10, Window: "fortnight"}
	bad.Enabled = config.BoolPtr(true)
	bad.Backend = "memory"
	if _, err := NewLimiter(bad, NewMemoryStore()); err == nil {
		t.Error("expected error for invalid window")
	}
}
