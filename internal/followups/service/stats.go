package service

import (
	"context"

	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/stats"
	"followup_backend/internal/followups/transport"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	scopeGlobal = "global"
	scopeUser   = "user"
)

var statsJoin = repository.JoinOptions{ExcludeArchivedLeads: true, WithAllocations: true}

// UserScope is the cache scope of one employee's report.
func UserScope(userID uuid.UUID) string {
	return scopeUser + ":" + userID.String()
}

// GlobalScope is the cache scope of the report across all leads.
func GlobalScope() string {
	return scopeGlobal
}

// StatsForUser reports, per day, the latest follow-up of each active lead
// allocated to userID.
func (s *Service) StatsForUser(ctx context.Context, userID uuid.UUID) ([]transport.StatsBucketResponse, error) {
	return s.cachedStats(ctx, scopeUser, UserScope(userID), func(items []repository.FollowUp) stats.Result {
		return s.pipeline.ForUser(items, userID)
	})
}

// StatsGlobal reports, per day, the most recently created follow-up of each active lead.
func (s *Service) StatsGlobal(ctx context.Context) ([]transport.StatsBucketResponse, error) {
	return s.cachedStats(ctx, scopeGlobal, GlobalScope(), s.pipeline.Global)
}

func (s *Service) cachedStats(ctx context.Context, metricScope, cacheScope string, run func([]repository.FollowUp) stats.Result) ([]transport.StatsBucketResponse, error) {
	log := s.log.WithContext(ctx)
	day := s.dates.Today()

	// The generation is pinned before the snapshot is read. An invalidation
	// racing this call moves readers to a newer generation than the one the
	// report is stored under.
	var (
		gen      int64
		useCache bool
	)
	if s.cache != nil {
		var err error
		gen, err = s.cache.Generation(ctx)
		if err != nil {
			log.Warn("stats cache generation read failed", "scope", cacheScope, "error", err)
		} else {
			useCache = true
		}
	}

	if useCache {
		buckets, ok, err := s.cache.Get(ctx, gen, day, cacheScope)
		if err != nil {
			log.Warn("stats cache read failed", "scope", cacheScope, "error", err)
		}
		if ok {
			s.metrics.StatsServed(metricScope, true)
			log.StatsComputed(cacheScope, len(buckets), true)
			return buckets, nil
		}
	}

	items, err := s.repo.ListAll(ctx, statsJoin)
	if err != nil {
		return nil, err
	}

	buckets := s.report(run(items))
	s.metrics.StatsServed(metricScope, false)
	log.StatsComputed(cacheScope, len(buckets), false)

	if useCache {
		if err := s.cache.Set(ctx, gen, day, cacheScope, buckets); err != nil {
			log.Warn("stats cache write failed", "scope", cacheScope, "error", err)
		}
	}
	return buckets, nil
}

// WarmStats computes the global report and the report of every allocated
// employee from a single snapshot and stores them in the cache.
// It returns the number of reports written.
func (s *Service) WarmStats(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		return 0, err
	}

	var (
		items   []repository.FollowUp
		userIDs []uuid.UUID
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListAll(gctx, statsJoin)
		return err
	})
	g.Go(func() error {
		var err error
		userIDs, err = s.repo.ListAllocatedUserIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	day := s.dates.Today()
	if err := s.cache.Set(ctx, gen, day, GlobalScope(), s.report(s.pipeline.Global(items))); err != nil {
		return 0, err
	}
	written := 1
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		buckets := s.report(s.pipeline.ForUser(items, userID))
		if err := s.cache.Set(ctx, gen, day, UserScope(userID), buckets); err != nil {
			return written, err
		}
		written++
	}

	s.log.WithContext(ctx).Info("stats cache warmed", "day", day, "generation", gen, "reports", written)
	return written, nil
}

func (s *Service) report(res stats.Result) []transport.StatsBucketResponse {
	s.metrics.StatsDropped("unparsable", res.Dropped.Unparsable)
	s.metrics.StatsDropped("future", res.Dropped.Future)
	s.metrics.StatsDropped("hidden", res.Dropped.Hidden)

	out := make([]transport.StatsBucketResponse, len(res.Buckets))
	for i, bucket := range res.Buckets {
		out[i] = transport.StatsBucketResponse{
			Date:      bucket.Date,
			FollowUps: s.toFollowUpResponses(bucket.FollowUps),
		}
	}
	return out
}
