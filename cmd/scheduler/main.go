package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/cache"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/service"
	"followup_backend/internal/scheduler"
	"followup_backend/platform/config"
	"followup_backend/platform/db"
	"followup_backend/platform/logger"
	"followup_backend/platform/startup"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if !cfg.IsStatsCacheEnabled() {
		log.Error("scheduler requires REDIS_URL and a positive STATS_CACHE_TTL")
		panic("stats cache not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	redisClient, err := db.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	// The worker publishes nothing, but the service needs a bus.
	eventBus := events.NewInMemoryBus(log)

	dates := domain.NewDateNormalizer(cfg.GetReportLocation(), nil)
	svc := service.New(repository.New(pool), dates, eventBus, log)
	svc.SetStatsCache(cache.New(redisClient, cfg.GetStatsCacheTTL()))

	cron, err := scheduler.NewCronScheduler(cfg, cfg.GetReportLocation(), log)
	if err != nil {
		log.Error("failed to initialize cron scheduler", "error", err)
		panic("failed to initialize cron scheduler: " + err.Error())
	}
	go func() {
		if err := cron.Run(ctx); err != nil {
			log.Error("cron scheduler stopped", "error", err)
		}
	}()

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
