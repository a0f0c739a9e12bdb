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

	"github.com/angelmondragon/seedling-limiter/api/routes"
	"github.com/angelmondragon/seedling-limiter/internal/cart"
	"github.com/angelmondragon/seedling-limiter/internal/catalog"
	"github.com/angelmondragon/seedling-limiter/internal/cron"
	"github.com/angelmondragon/seedling-limiter/internal/enforcement"
	"github.com/angelmondragon/seedling-limiter/internal/rules"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/db"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/instance"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
	"github.com/angelmondragon/seedling-limiter/pkg/metrics"
	"github.com/angelmondragon/seedling-limiter/pkg/migrate"
	"github.com/angelmondragon/seedling-limiter/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	limiterMetrics := metrics.NewLimiterMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	rulesVersions, err := rules.NewRedisVersion(redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create rules version store", err)
		os.Exit(1)
	}

	rulesService, err := rules.NewService(rules.ServiceParams{
		Repo:     rules.NewRepository(dbClient.DB()),
		Defaults: cfg.Limiter,
		Logger:   logg,
		Metrics:  limiterMetrics,
		Versions: rulesVersions,
	})
	if err != nil {
		logg.Error(ctx, "failed to create rules service", err)
		os.Exit(1)
	}

	if cfg.Limiter.SeedDefaults {
		seeded, err := rulesService.EnsureDefaults(ctx)
		if err != nil {
			logg.Error(ctx, "failed to seed default limiter rules", err)
			os.Exit(1)
		}
		if seeded {
			logg.Info(ctx, "seeded default limiter rules")
		}
	}

	if _, err := rulesService.Load(ctx); err != nil {
		msg := "failed to load limiter rules"
		if pkgerrors.IsCode(err, pkgerrors.CodeConfiguration) {
			msg = "stored limiter rules are invalid"
		}
		logg.Error(logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), msg, err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}

	limiterService, err := enforcement.NewService(enforcement.ServiceParams{
		Rules:   rulesService,
		Catalog: catalog.NewRepository(dbClient.DB()),
		Cart:    cartStore,
		Logger:  logg,
		Metrics: limiterMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create enforcement service", err)
		os.Exit(1)
	}

	if cfg.Limiter.RefreshInterval > 0 {
		refreshJob, err := cron.NewRulesRefreshJob(cron.RulesRefreshParams{
			Rules:    rulesService,
			Versions: rulesVersions,
			MaxStale: cfg.Limiter.MaxStale,
		})
		if err != nil {
			logg.Error(ctx, "failed to create rules refresh job", err)
			os.Exit(1)
		}
		scheduler, err := cron.NewService(cron.ServiceParams{
			Logger:   logg,
			Registry: cron.NewRegistry(refreshJob),
			Metrics:  metrics.NewJobMetrics(registry),
			Interval: cfg.Limiter.RefreshInterval,
		})
		if err != nil {
			logg.Error(ctx, "failed to create scheduler", err)
			os.Exit(1)
		}
		go func() {
			_ = scheduler.Run(ctx)
		}()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, httpMetrics, rulesService, limiterService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}
