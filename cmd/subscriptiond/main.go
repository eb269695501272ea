// subscriptiond serves the photo-diary subscription core over HTTP: plan
// catalog, purchase and restore flows, usage quota, entitlement checks, a
// Server-Sent-Events stream, and the Paddle webhook endpoint.
package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrymomot/snapdiary/internal/api"
	"github.com/dmitrymomot/snapdiary/pkg/config"
	"github.com/dmitrymomot/snapdiary/pkg/httpserver"
	"github.com/dmitrymomot/snapdiary/pkg/logger"
	"github.com/dmitrymomot/snapdiary/pkg/pg"
	"github.com/dmitrymomot/snapdiary/pkg/plan"
	"github.com/dmitrymomot/snapdiary/pkg/redis"
	"github.com/dmitrymomot/snapdiary/pkg/subscription"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type appConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"subscriptiond"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Storage selects the status backend: memory, redis, or postgres.
	Storage string `env:"SUBSCRIPTION_STORAGE" envDefault:"memory"`
	// Owner keys the status record for server-side multi-account storage.
	Owner string `env:"SUBSCRIPTION_OWNER"`

	// PlansFile optionally overrides the built-in plan catalog with YAML.
	PlansFile string `env:"PLANS_FILE"`

	// Storefront selects the billing gateway: paddle, or none for a
	// deployment that only reconciles webhooks received elsewhere.
	Storefront string `env:"STOREFRONT" envDefault:"paddle"`

	EventBuffer int `env:"EVENT_BUFFER" envDefault:"16"`

	HTTP httpserver.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithLevel(parseLogLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithService(cfg.ServiceName),
	)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load plan catalog: %w", err)
	}

	storage, healthchecks, cleanup, err := buildStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer cleanup()

	events := subscription.NewEvents(cfg.EventBuffer)
	defer events.Close()

	store := subscription.NewStore(storage, events, subscription.WithStoreLogger(log))
	tracker := subscription.NewUsageTracker(store, registry)
	gate := subscription.NewEntitlements(store, tracker, registry)

	front, handlerOpts, err := buildStorefront(cfg, registry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storefront: %w", err)
	}

	svc := subscription.NewService(registry, store, front, events, subscription.WithLogger(log))

	handler := api.NewHandler(registry, svc, store, tracker, gate, events, handlerOpts...)
	router := handler.Router()
	router.Get("/health", httpserver.HealthCheckHandler(log))
	router.Get("/ready", httpserver.HealthCheckHandler(log, healthchecks...))

	srv := httpserver.NewFromConfig(cfg.HTTP, log)
	return srv.Run(ctx, router)
}

// buildRegistry loads the plan catalog from the optional YAML file, falling
// back to the built-in defaults.
func buildRegistry(ctx context.Context, cfg appConfig) (*plan.Registry, error) {
	if cfg.PlansFile == "" {
		return plan.NewRegistry(ctx, plan.NewMemorySource(plan.Defaults()...))
	}
	return plan.NewRegistry(ctx, plan.NewFileSource(cfg.PlansFile))
}

// buildStorage wires the selected status backend and its readiness checks.
func buildStorage(ctx context.Context, cfg appConfig, log *slog.Logger) (subscription.Storage, []func(context.Context) error, func(), error) {
	noop := func() {}

	switch strings.ToLower(cfg.Storage) {
	case "memory", "":
		return subscription.NewMemoryStorage(), nil, noop, nil

	case "redis":
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, nil, noop, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", "error", err)
			}
		}
		checks := []func(context.Context) error{redis.Healthcheck(client)}
		return subscription.NewRedisStorage(client, ""), checks, cleanup, nil

	case "postgres":
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, noop, err
		}

		migrations, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			pool.Close()
			return nil, nil, noop, err
		}
		if err := pg.Migrate(ctx, pool, migrations, ".", log); err != nil {
			pool.Close()
			return nil, nil, noop, err
		}

		checks := []func(context.Context) error{pg.Healthcheck(pool)}
		return subscription.NewPGStorage(pool, cfg.Owner), checks, pool.Close, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown storage backend: %s", cfg.Storage)
	}
}

// buildStorefront wires the billing gateway. With STOREFRONT=none the engine
// still reconciles events applied through other channels, but purchase calls
// report the storefront as unavailable.
func buildStorefront(cfg appConfig, registry *plan.Registry, log *slog.Logger) (subscription.Storefront, []api.HandlerOption, error) {
	opts := []api.HandlerOption{api.WithHandlerLogger(log)}

	switch strings.ToLower(cfg.Storefront) {
	case "paddle":
		var paddleCfg subscription.PaddleConfig
		config.MustLoad(&paddleCfg)
		front, err := subscription.NewPaddleStorefront(paddleCfg, registry)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, api.WithWebhookParser(front))
		return front, opts, nil

	case "none":
		return subscription.NewUnavailableStorefront(), opts, nil

	default:
		return nil, nil, fmt.Errorf("unknown storefront: %s", cfg.Storefront)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
