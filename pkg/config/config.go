package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
)

// Config is the root configuration for the tutorgate server.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	LLM       LLMConfig       `yaml:"llm,omitempty"`
	Quota     QuotaConfig     `yaml:"quota,omitempty"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
	Guard     GuardConfig     `yaml:"guard,omitempty"`
	Redis     RedisConfig     `yaml:"redis,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Logger    LoggerConfig    `yaml:"logger,omitempty"`
}

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.LLM.SetDefaults()
	c.Quota.SetDefaults()
	c.RateLimit.SetDefaults()
	c.Guard.SetDefaults()
	c.Redis.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate validates all sections.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Quota.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if err := c.Guard.Validate(); err != nil {
		return err
	}
	return nil
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host to bind to.
	Host string `yaml:"host,omitempty"`

	// Port to listen on. Overridable via the PORT environment variable.
	Port int `yaml:"port,omitempty"`

	// CORS configuration.
	CORS *CORSConfig `yaml:"cors,omitempty"`
}

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// Address returns the listen address as host:port.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SetDefaults sets default values for ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
			c.Port = p
		} else {
			c.Port = 3000
		}
	}
}

// Validate validates the ServerConfig.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server.port %d, must be between 1 and 65535", c.Port)
	}
	return nil
}

// LLMConfig configures the upstream chat-completion provider.
type LLMConfig struct {
	// Host is the provider base URL.
	Host string `yaml:"host,omitempty"`

	// Model is the model identifier sent with every request.
	Model string `yaml:"model,omitempty"`

	// APIKey is the bearer credential. Defaults to the OPENAI_API_KEY
	// environment variable. Absence is reported per request, not here.
	APIKey string `yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature.
	Temperature *float64 `yaml:"temperature,omitempty"`

	// MaxTokens caps the completion size.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Timeout is the HTTP timeout in seconds for the upstream call.
	Timeout int `yaml:"timeout,omitempty"`

	// Subject is the single topic the tutor answers about.
	Subject string `yaml:"subject,omitempty"`

	// Instruction overrides the built-in system instruction when set.
	Instruction string `yaml:"instruction,omitempty"`
}

// SetDefaults sets default values for LLMConfig.
func (c *LLMConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Temperature == nil {
		t := 0.2
		c.Temperature = &t
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 160
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if c.Subject == "" {
		c.Subject = "social studies"
	}
}

// Validate validates the LLMConfig.
func (c *LLMConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("llm.host is required")
	}
	if c.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Temperature == nil {
		return fmt.Errorf("llm.temperature is required")
	}
	if *c.Temperature < 0 || *c.Temperature > 2 {
		return fmt.Errorf("invalid llm.temperature %v, must be between 0 and 2", *c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	return nil
}

// QuotaConfig configures the per-client lifetime attempt cap.
type QuotaConfig struct {
	// MaxAttempts is the number of answered questions allowed per client.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// Backend is the counter backend ("memory" or "redis").
	Backend string `yaml:"backend,omitempty"`
}

// SetDefaults sets default values for QuotaConfig.
func (c *QuotaConfig) SetDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 30
	}
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

// Validate validates the QuotaConfig.
func (c *QuotaConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("quota.max_attempts must be positive")
	}
	if c.Backend != "memory" && c.Backend != "redis" {
		return fmt.Errorf("invalid quota.backend '%s', must be 'memory' or 'redis'", c.Backend)
	}
	return nil
}

// RateLimitConfig configures the per-IP window limiter applied ahead of the
// chat handler.
type RateLimitConfig struct {
	// Enabled controls whether the limiter is active.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Limit is the maximum number of requests per window.
	Limit int64 `yaml:"limit,omitempty"`

	// Window is the window size ("minute", "hour" or "day").
	Window string `yaml:"window,omitempty"`

	// Backend is the counter backend ("memory" or "redis").
	Backend string `yaml:"backend,omitempty"`
}

// IsEnabled returns true if rate limiting is enabled.
func (c *RateLimitConfig) IsEnabled() bool {
	return c != nil && BoolValue(c.Enabled, true)
}

// SetDefaults sets default values for RateLimitConfig.
func (c *RateLimitConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = BoolPtr(true)
	}
	if c.Limit == 0 {
		c.Limit = 60
	}
	if c.Window == "" {
		c.Window = "hour"
	}
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

// Validate validates the RateLimitConfig.
func (c *RateLimitConfig) Validate() error {
	if !c.IsEnabled() {
		return nil
	}
	if c.Limit < 1 {
		return fmt.Errorf("rate_limit.limit must be positive")
	}
	switch c.Window {
	case "minute", "hour", "day":
	default:
		return fmt.Errorf("invalid rate_limit.window '%s', must be 'minute', 'hour' or 'day'", c.Window)
	}
	if c.Backend != "memory" && c.Backend != "redis" {
		return fmt.Errorf("invalid rate_limit.backend '%s', must be 'memory' or 'redis'", c.Backend)
	}
	return nil
}

// GuardConfig configures question validation.
type GuardConfig struct {
	// MaxWords is the maximum whitespace-delimited token count.
	MaxWords int `yaml:"max_words,omitempty"`

	// Patterns are additional forbidden patterns (case-insensitive regex)
	// appended to the built-in list.
	Patterns []string `yaml:"patterns,omitempty"`
}

// SetDefaults sets default values for GuardConfig.
func (c *GuardConfig) SetDefaults() {
	if c.MaxWords == 0 {
		c.MaxWords = 120
	}
}

// Validate validates the GuardConfig.
func (c *GuardConfig) Validate() error {
	if c.MaxWords < 1 {
		return fmt.Errorf("guard.max_words must be positive")
	}
	for i, p := range c.Patterns {
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			return fmt.Errorf("invalid guard.patterns[%d] '%s': %w", i, p, err)
		}
	}
	return nil
}

// RedisConfig configures the optional Redis backend shared by the quota
// ledger and the rate limiter.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// SetDefaults sets default values for RedisConfig.
func (c *RedisConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = os.Getenv("REDIS_ADDR")
	}
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// IsEnabled returns true if the metrics endpoint is enabled.
func (c *MetricsConfig) IsEnabled() bool {
	return c != nil && BoolValue(c.Enabled, true)
}

// SetDefaults sets default values for MetricsConfig.
func (c *MetricsConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = BoolPtr(true)
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

// LoggerConfig configures logging output.
type LoggerConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// Format is the log format (simple, verbose).
	Format string `yaml:"format,omitempty"`

	// File is the log file path (empty = stderr).
	File string `yaml:"file,omitempty"`
}

// SetDefaults sets default values for LoggerConfig.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// BoolPtr returns a pointer to the given bool.
func BoolPtr(b bool) *bool {
	return &b
}

// BoolValue dereferences a bool pointer with a fallback default.
func BoolValue(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
