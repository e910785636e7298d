package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/instance"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisClient = client
	}

	var dbClient *db.Client
	if cfg.Storage.NormalizedDriver() == config.StorageDriverSQL {
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return err
		}
		dbClient = client
	}

	st, err := openStorage(cfg, redisClient, dbClient)
	if err != nil {
		return err
	}
	st = storage.WithMetrics(st, cfg.Storage.NormalizedDriver(), metrics.NewStorageMetrics(registry))

	lookup, err := discountLookup(cfg, logg)
	if err != nil {
		return err
	}
	validator, err := discounts.NewValidator(discounts.ValidatorParams{
		Lookup:  lookup,
		Metrics: metrics.NewDiscountMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	manager, err := storefront.NewManager(storefront.ManagerParams{
		Storage:    st,
		Validator:  validator,
		Calculator: pricing.FromConfig(cfg.Pricing),
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	var (
		idempotencyStore redis.IdempotencyStore
		limiter          redis.RateLimiter
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		limiter = redisClient
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, manager, manager, validator, idempotencyStore, limiter, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"instance":        instance.GetID(),
		"storage_driver":  cfg.Storage.NormalizedDriver(),
		"discounts_demo":  cfg.Discounts.DemoMode,
		"redis_available": redisClient != nil,
	})
	logg.Info(logCtx, "starting storefront api")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down storefront api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStorage(cfg *config.Config, redisClient *redis.Client, dbClient *db.Client) (storage.Storage, error) {
	switch cfg.Storage.NormalizedDriver() {
	case config.StorageDriverFile:
		return storage.NewFile(cfg.Storage.FilePath)
	case config.StorageDriverRedis:
		return storage.NewRedis(redisClient, cfg.Storage.SessionTTL), nil
	case config.StorageDriverSQL:
		return storage.NewSQL(dbClient.DB()), nil
	default:
		return storage.NewMemory(), nil
	}
}

// discountLookup talks to the discount backend. In demo mode the built-in codes
// answer whenever the backend is missing or unreachable.
func discountLookup(cfg *config.Config, logg *logger.Logger) (discounts.Lookup, error) {
	var primary discounts.Lookup
	if cfg.Discounts.BaseURL != "" {
		remote, err := discounts.NewRemoteClient(
			cfg.Discounts.BaseURL,
			discounts.WithTimeout(cfg.Discounts.Timeout),
			discounts.WithRetries(cfg.Discounts.MaxRetries, cfg.Discounts.RetryBase),
		)
		if err != nil {
			return nil, err
		}
		primary = remote
	}
	if cfg.Discounts.DemoMode {
		return discounts.WithDemoFallback(primary, logg), nil
	}
	return primary, nil
}
