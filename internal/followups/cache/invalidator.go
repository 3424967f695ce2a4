package cache

import (
	"context"

	"followup_backend/internal/events"
	"followup_backend/platform/logger"
)

// WarmEnqueuer schedules a background refill of the stats cache.
type WarmEnqueuer interface {
	EnqueueStatsWarm(ctx context.Context) error
}

// Invalidator drops cached reports whenever follow-ups change and, when a
// warmer is configured, asks for the cache to be refilled.
type Invalidator struct {
	cache  *StatsCache
	warmer WarmEnqueuer
	log    *logger.Logger
}

// NewInvalidator creates an Invalidator. warmer may be nil.
func NewInvalidator(cache *StatsCache, warmer WarmEnqueuer, log *logger.Logger) *Invalidator {
	return &Invalidator{cache: cache, warmer: warmer, log: log}
}

// Register subscribes to every event that changes a report.
func (i *Invalidator) Register(bus events.Bus) {
	bus.Subscribe(events.FollowUpCreated{}.EventName(), i)
	bus.Subscribe(events.FollowUpDeleted{}.EventName(), i)
	bus.Subscribe(events.FollowUpsPurged{}.EventName(), i)
}

func (i *Invalidator) Handle(ctx context.Context, event events.Event) error {
	if err := i.cache.Invalidate(ctx); err != nil {
		return err
	}
	i.log.Debug("stats cache invalidated", "event", event.EventName())

	if i.warmer == nil {
		return nil
	}
	if err := i.warmer.EnqueueStatsWarm(ctx); err != nil {
		i.log.Warn("failed to enqueue stats warm", "error", err)
	}
	return nil
}
