package scheduler

import (
	"context"
	"time"

	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// StatsWarmer recomputes every cached statistics report.
type StatsWarmer interface {
	WarmStats(ctx context.Context) (int, error)
}

// Worker processes stats warm tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	warmer StatsWarmer
	log    *logger.Logger
}

// NewWorker creates a worker consuming the configured queue.
func NewWorker(cfg config.SchedulerConfig, warmer StatsWarmer, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		warmer: warmer,
		log:    log,
	}

	mux.HandleFunc(TaskStatsWarm, w.handleStatsWarm)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleStatsWarm(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseStatsWarmPayload(task)
	if err != nil {
		return err
	}

	start := time.Now()
	written, err := w.warmer.WarmStats(ctx)
	if err != nil {
		w.log.Error("stats warm failed", "reason", payload.Reason, "error", err)
		return err
	}

	w.log.Info("stats warm finished",
		"reason", payload.Reason,
		"reports", written,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
