package scheduler

import (
	"context"
	"time"

	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// CronScheduler enqueues the periodic stats warm. Reports are keyed by day,
// so the run just after midnight fills the new day's entries.
type CronScheduler struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewCronScheduler registers the daily warm, evaluated in loc.
func NewCronScheduler(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*CronScheduler, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: loc})

	task, err := NewStatsWarmTask(StatsWarmPayload{Reason: WarmReasonDaily})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(cfg.GetStatsWarmCron(), task, asynq.Queue(queueName(cfg)))
	if err != nil {
		return nil, err
	}
	log.Info("stats warm scheduled", "cron", cfg.GetStatsWarmCron(), "entry", entryID)

	return &CronScheduler{scheduler: scheduler, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *CronScheduler) Run(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.scheduler.Shutdown()
	return nil
}
