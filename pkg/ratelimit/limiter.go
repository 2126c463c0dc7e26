package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/aidosk/tutorgate/pkg/config"
)

// Window is a rate limiting time window.
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
)

// Duration returns the duration for the window.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowMinute:
		return time.Minute
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Store counts requests per key within a window. Increment records one
// request and returns the count for the current window and the time left
// until the window resets.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a fixed-window request limiter over a Store.
type Limiter struct {
	limit  int64
	window time.Duration
	store  Store
}

// NewLimiter creates a limiter from config.
func NewLimiter(cfg *config.RateLimitConfig, store Store) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}

	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	return &Limiter{
		limit:  cfg.Limit,
		window: Window(cfg.Window).Duration(),
		store:  store,
	}, nil
}

// Allow records one request for key and decides whether it is admitted.
func (l *Limiter) Allow(ctx context.Context, key string) (*Decision, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	count, ttl, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return nil, fmt.Errorf("failed to count request for %s: %w", key, err)
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	d := &Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
	}
	if !d.Allowed && ttl > 0 {
		d.RetryAfter = ttl
	}

	return d, nil
}
