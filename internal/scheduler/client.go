package scheduler

import (
	"context"
	"errors"
	"time"

	"followup_backend/platform/config"
	"followup_backend/platform/db"

	"github.com/hibiken/asynq"
)

const (
	// warmDelay lets a burst of writes settle into a single warm run.
	warmDelay      = 5 * time.Second
	warmUniqueness = time.Minute
)

// Client enqueues background tasks. A nil *Client enqueues nothing.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates an asynq client for the configured Redis and queue.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueStatsWarm schedules a refill of the stats cache. Requests arriving
// while one is already pending are folded into it.
func (c *Client) EnqueueStatsWarm(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewStatsWarmTask(StatsWarmPayload{Reason: WarmReasonInvalidated})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.ProcessIn(warmDelay),
		asynq.Unique(warmUniqueness),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := db.RedisOptions(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
