package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups"
	"followup_backend/internal/followups/cache"
	apphttp "followup_backend/internal/http"
	"followup_backend/internal/http/router"
	"followup_backend/internal/scheduler"
	"followup_backend/migrations"
	"followup_backend/platform/config"
	"followup_backend/platform/db"
	"followup_backend/platform/logger"
	"followup_backend/platform/metrics"
	"followup_backend/platform/startup"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if cfg.MigrationsEnabled {
		if err := startup.Retry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, migrations.FS)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	var pool *pgxpool.Pool
	if err := startup.Retry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	followUpMetrics := metrics.NewFollowUpMetrics(registry)

	eventBus := events.NewInMemoryBus(log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	followUpsModule := followups.NewModule(pool, eventBus, cfg, log)
	followUpsModule.UseMetrics(followUpMetrics)

	closeCache := initStatsCache(ctx, cfg, followUpsModule, log)
	defer closeCache()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         db.NewPoolAdapter(pool),
		EventBus:       eventBus,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Modules: []apphttp.Module{
			followUpsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStatsCache enables the Redis stats cache and the warm job client when
// Redis is configured. The returned func releases both.
func initStatsCache(ctx context.Context, cfg *config.Config, module *followups.Module, log *logger.Logger) func() {
	if !cfg.IsStatsCacheEnabled() {
		log.Warn("REDIS_URL or STATS_CACHE_TTL not configured; stats cache disabled")
		return func() {}
	}

	client, err := db.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		return func() {}
	}
	if err := startup.Retry(ctx, log, "redis connection", 3, time.Second, func() error {
		return client.Ping(ctx).Err()
	}); err != nil {
		log.Error("redis unavailable; stats cache disabled", "error", err)
		_ = client.Close()
		return func() {}
	}

	warmClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize stats warm client", "error", err)
		warmClient = nil
	}

	module.UseStatsCache(cache.New(client, cfg.GetStatsCacheTTL()), warmEnqueuer(warmClient))
	log.Info("stats cache enabled", "ttl", cfg.GetStatsCacheTTL())

	return func() {
		_ = warmClient.Close()
		_ = client.Close()
	}
}

// warmEnqueuer keeps a nil *scheduler.Client from becoming a non-nil interface.
func warmEnqueuer(c *scheduler.Client) cache.WarmEnqueuer {
	if c == nil {
		return nil
	}
	return c
}
