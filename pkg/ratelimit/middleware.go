package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// KeyFunc extracts the rate limit key from an HTTP request.
type KeyFunc func(r *http.Request) string

// ClientIP resolves the client address: the first X-Forwarded-For entry if
// present, otherwise the host part of RemoteAddr. The value is whatever the
// transport layer provides; it is spoofable and not authenticated.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// MiddlewareConfig configures the rate limiting middleware.
type MiddlewareConfig struct {
	// Limiter is the limiter to enforce. Nil disables the middleware.
	Limiter *Limiter

	// KeyFn extracts the key from requests. Defaults to ClientIP.
	KeyFn KeyFunc

	// ExcludedPaths bypass rate limiting entirely.
	ExcludedPaths []string

	// OnLimited is called when a request is rejected. If nil, a default
	// JSON error response is sent.
	OnLimited func(w http.ResponseWriter, r *http.Request, d *Decision)
}

// Middleware creates an HTTP middleware that enforces the limiter. Store
// errors fail open: the request proceeds and the error is logged.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	if cfg.KeyFn == nil {
		cfg.KeyFn = ClientIP
	}

	if cfg.OnLimited == nil {
		cfg.OnLimited = defaultOnLimited
	}

	excluded := make(map[string]bool, len(cfg.ExcludedPaths))
	for _, path := range cfg.ExcludedPaths {
		excluded[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excluded[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.KeyFn(r)

			d, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				slog.Error("Rate limit check failed", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}

			if !d.Allowed {
				cfg.OnLimited(w, r, d)
				return
			}

			addRateLimitHeaders(w, d)
			next.ServeHTTP(w, r)
		})
	}
}

// defaultOnLimited sends the standard 429 response.
func defaultOnLimited(w http.ResponseWriter, r *http.Request, d *Decision) {
	addRateLimitHeaders(w, d)
	if d.RetryAfter > 0 {
		secs := int64(d.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Too many requests, try later.",
	})
}

func addRateLimitHeaders(w http.ResponseWriter, d *Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
}
