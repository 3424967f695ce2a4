// Package cache keeps computed follow-up statistics in Redis.
//
// Keys embed a generation counter. Invalidation bumps the counter so every
// earlier entry becomes unreachable at once and expires through its TTL.
// Callers read the generation before loading the data a report is built
// from and write the report under that generation, so a report computed
// from a snapshot older than the last invalidation is never served.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"followup_backend/internal/followups/transport"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "followups:stats"
	generationKey = keyPrefix + ":gen"
)

// StatsCache stores stats reports per generation, day and scope.
type StatsCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a StatsCache whose entries expire after ttl.
func New(client *redis.Client, ttl time.Duration) *StatsCache {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	return &StatsCache{redis: client, ttl: ttl}
}

// Get returns the report stored for day and scope under gen.
func (c *StatsCache) Get(ctx context.Context, gen int64, day, scope string) ([]transport.StatsBucketResponse, bool, error) {
	data, err := c.redis.Get(ctx, entryKey(gen, day, scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: failed to load stats: %w", err)
	}

	var buckets []transport.StatsBucketResponse
	if err := json.Unmarshal(data, &buckets); err != nil {
		return nil, false, fmt.Errorf("cache: failed to decode stats: %w", err)
	}
	return buckets, true, nil
}

// Set stores buckets for day and scope under gen. Writes made with a
// generation that has since been bumped land on keys no reader asks for.
func (c *StatsCache) Set(ctx context.Context, gen int64, day, scope string, buckets []transport.StatsBucketResponse) error {
	if buckets == nil {
		buckets = []transport.StatsBucketResponse{}
	}
	data, err := json.Marshal(buckets)
	if err != nil {
		return fmt.Errorf("cache: failed to marshal stats: %w", err)
	}
	if err := c.redis.Set(ctx, entryKey(gen, day, scope), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to persist stats: %w", err)
	}
	return nil
}

// Invalidate makes every stored report unreachable.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("cache: failed to bump generation: %w", err)
	}
	return nil
}

// Generation returns the current generation. A missing counter is generation 0.
func (c *StatsCache) Generation(ctx context.Context) (int64, error) {
	value, err := c.redis.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: failed to read generation: %w", err)
	}
	gen, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache: corrupt generation %q: %w", value, err)
	}
	return gen, nil
}

func entryKey(gen int64, day, scope string) string {
	return fmt.Sprintf("%s:%d:%s:%s", keyPrefix, gen, day, scope)
}
