// Package server assembles the HTTP surface of the relay: the chat and
// health endpoints, the middleware chain and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aidosk/tutorgate/pkg/config"
	"github.com/aidosk/tutorgate/pkg/ratelimit"
)

// HTTPServer is the tutorgate HTTP server.
type HTTPServer struct {
	cfg     *config.Config
	chat    *ChatHandler
	limiter *ratelimit.Limiter
	server  *http.Server
}

// HTTPServerOption configures the HTTP server.
type HTTPServerOption func(*HTTPServer)

// WithLimiter sets the per-IP window limiter applied ahead of the chat
// handler. If not set, requests are not throttled.
func WithLimiter(limiter *ratelimit.Limiter) HTTPServerOption {
	return func(s *HTTPServer) {
		s.limiter = limiter
	}
}

// NewHTTPServer creates an HTTP server from config.
func NewHTTPServer(cfg *config.Config, chat *ChatHandler, opts ...HTTPServerOption) *HTTPServer {
	s := &HTTPServer{
		cfg:  cfg,
		chat: chat,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler builds the router with the full middleware chain.
// Order: request id -> logging -> metrics -> recover -> cors -> rate limit.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	if s.cfg.Metrics.IsEnabled() {
		r.Use(metricsMiddleware)
	}
	r.Use(recoverMiddleware)
	r.Use(corsMiddleware(s.cfg.Server.CORS))

	if s.limiter != nil && s.cfg.RateLimit.IsEnabled() {
		excluded := []string{"/api/health"}
		if s.cfg.Metrics.IsEnabled() {
			excluded = append(excluded, s.cfg.Metrics.Path)
		}
		r.Use(ratelimit.Middleware(ratelimit.MiddlewareConfig{
			Limiter:       s.limiter,
			ExcludedPaths: excluded,
		}))
	}

	r.Post("/api/chat", s.chat.HandleChat)
	r.Get("/api/health", HandleHealth)

	if s.cfg.Metrics.IsEnabled() {
		r.Get(s.cfg.Metrics.Path, MetricsHandler().ServeHTTP)
	}

	return r
}

// Address returns the listen address.
func (s *HTTPServer) Address() string {
	return s.cfg.Server.Address()
}

// Start runs the server until ctx is cancelled or the listener fails.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("HTTP server starting", "address", s.Address())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("HTTP server shutting down")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}

	return nil
}
