package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aidosk/tutorgate/pkg/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"remote addr with port", "203.0.113.7:51234", "", "203.0.113.7"},
		{"forwarded for", "10.0.0.1:80", "198.51.100.9", "198.51.100.9"},
		{"forwarded for chain", "10.0.0.1:80", "198.51.100.9, 10.0.0.2", "198.51.100.9"},
		{"bare remote addr", "203.0.113.7", "", "203.0.113.7"},
		{"nothing", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	cfg := &config.RateLimitConfig{Limit: 2, Window: "minute"}
	cfg.SetDefaults()
	limiter, err := NewLimiter(cfg, NewMemoryStore())
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}

	handler := Middleware(MiddlewareConfig{Limiter: limiter})(okHandler())

	for i := 1; i <= 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "203.0.113.7:1000"
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("request %d: missing X-RateLimit-Limit header", i)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = "203.0.113.7:1000"
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "Too many requests, try later." {
		t.Errorf("error = %q", body["error"])
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
}

func TestMiddleware_ExcludedPaths(t *testing.T) {
	cfg := &config.RateLimitConfig{Limit: 1, Window: "minute"}
	cfg.SetDefaults()
	limiter, err := NewLimiter(cfg, NewMemoryStore())
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}

	handler := Middleware(MiddlewareConfig{
		Limiter:       limiter,
		ExcludedPaths: []string{"/api/health"},
	})(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "203.0.113.7:1000"
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("health request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

func TestMiddleware_NilLimiterPassesThrough(t *testing.T) {
	handler := Middleware(MiddlewareConfig{})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_DistinctClients(t *testing.T) {
	cfg := &config.RateLimitConfig{Limit: 1, Window: "minute"}
	cfg.SetDefaults()
	limiter, err := NewLimiter(cfg, NewMemoryStore())
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}

	handler := Middleware(MiddlewareConfig{Limiter: limiter})(okHandler())

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	reqA.RemoteAddr = "203.0.113.7:1000"
	handler.ServeHTTP(first, reqA)

	second := httptest.NewRecorder()
	reqB := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	reqB.RemoteAddr = "198.51.100.9:1000"
	handler.ServeHTTP(second, reqB)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Errorf("distinct clients should not share a window: %d, %d", first.Code, second.Code)
	}
}
