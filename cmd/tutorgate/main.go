// Command tutorgate runs the school tutor relay.
//
// Usage:
//
//	tutorgate serve
//	tutorgate serve --config config.yaml --port 3000
//	tutorgate validate --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/redis/go-redis/v9"

	"github.com/aidosk/tutorgate/pkg/config"
	"github.com/aidosk/tutorgate/pkg/guard"
	"github.com/aidosk/tutorgate/pkg/ledger"
	"github.com/aidosk/tutorgate/pkg/llms"
	"github.com/aidosk/tutorgate/pkg/ratelimit"
	"github.com/aidosk/tutorgate/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" default:"1" help:"Start the relay server."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`

	// Log settings left empty fall back to LOG_LEVEL / LOG_FILE /
	// LOG_FORMAT, then the config file's logger section.
	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("tutorgate version %s\n", version)
	return nil
}

// ServeCmd starts the relay server.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config and PORT)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	// Apply the config file's logger section now that it is known.
	cleanup, err := initLoggerFromConfig(cli.LogLevel, cli.LogFile, cli.LogFormat, &cfg.Logger)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	if cfg.LLM.APIKey == "" {
		// Startup proceeds; the chat handler reports the missing key per
		// request so the health endpoint stays available.
		slog.Warn("OPENAI_API_KEY is not set; chat requests will fail")
	}

	g, err := guard.New(&cfg.Guard)
	if err != nil {
		return fmt.Errorf("failed to build question guard: %w", err)
	}

	provider, err := llms.NewOpenAIProviderFromConfig(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create completion provider: %w", err)
	}

	// One connection serves both redis-backed counters.
	var redisClient *redis.Client
	if cfg.Quota.Backend == "redis" || cfg.RateLimit.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}

	attempts := newAttemptStore(cfg, redisClient)

	chat := server.NewChatHandler(g, attempts, provider, cfg.Quota.MaxAttempts)

	var serverOpts []server.HTTPServerOption
	if cfg.RateLimit.IsEnabled() {
		limiter, err := newLimiter(cfg, redisClient)
		if err != nil {
			return fmt.Errorf("failed to create rate limiter: %w", err)
		}
		serverOpts = append(serverOpts, server.WithLimiter(limiter))
	}

	srv := server.NewHTTPServer(cfg, chat, serverOpts...)

	fmt.Printf("\ntutorgate ready\n")
	fmt.Printf("   Chat:    http://%s/api/chat\n", srv.Address())
	fmt.Printf("   Health:  http://%s/api/health\n", srv.Address())
	if cfg.Metrics.IsEnabled() {
		fmt.Printf("   Metrics: http://%s%s\n", srv.Address(), cfg.Metrics.Path)
	}
	fmt.Printf("   Model:   %s (%s)\n", provider.GetModelName(), cfg.LLM.Subject)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

// ValidateCmd validates a configuration file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for validate command")
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	if _, err := guard.New(&cfg.Guard); err != nil {
		return err
	}

	fmt.Printf("Configuration is valid: %s\n", cli.Config)
	fmt.Printf("   Server:     %s\n", cfg.Server.Address())
	fmt.Printf("   Model:      %s\n", cfg.LLM.Model)
	fmt.Printf("   Attempts:   %d (%s)\n", cfg.Quota.MaxAttempts, cfg.Quota.Backend)
	if cfg.RateLimit.IsEnabled() {
		fmt.Printf("   Rate limit: %d per %s (%s)\n", cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.Backend)
	} else {
		fmt.Printf("   Rate limit: disabled\n")
	}
	return nil
}

// loadConfig loads the config file if given, defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		slog.Info("Loaded configuration", "path", path)
		return cfg, nil
	}
	return config.Default()
}

// newAttemptStore picks the lifetime attempt counter backend.
func newAttemptStore(cfg *config.Config, redisClient *redis.Client) ledger.Store {
	if cfg.Quota.Backend == "redis" {
		slog.Info("Attempt ledger backed by redis", "addr", cfg.Redis.Addr)
		return ledger.NewRedisStore(redisClient)
	}
	return ledger.NewMemoryStore()
}

// newLimiter picks the rate limit window store backend.
func newLimiter(cfg *config.Config, redisClient *redis.Client) (*ratelimit.Limiter, error) {
	var store ratelimit.Store
	if cfg.RateLimit.Backend == "redis" {
		store = ratelimit.NewRedisStore(redisClient)
		slog.Info("Rate limiter backed by redis", "addr", cfg.Redis.Addr)
	} else {
		store = ratelimit.NewMemoryStore()
	}
	return ratelimit.NewLimiter(&cfg.RateLimit, store)
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("tutorgate"),
		kong.Description("tutorgate - rate limited tutor relay for school questions"),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
