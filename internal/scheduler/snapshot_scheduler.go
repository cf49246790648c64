package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/feed"
	"github.com/pulsefeed/pulse/internal/models"
)

// SnapshotScheduler periodically writes trending baselines: the current
// view counter of every feed item, per window. SnapshotIfAbsent keeps
// the first value of each window, so repeated runs inside one window
// are no-ops and the baseline only moves when the old one expires.
type SnapshotScheduler struct {
	store    cache.Store
	holder   *feed.Holder
	logger   *slog.Logger
	stopChan chan struct{}
	interval time.Duration
}

// NewSnapshotScheduler creates a new snapshot scheduler
func NewSnapshotScheduler(store cache.Store, holder *feed.Holder, interval time.Duration, logger *slog.Logger) *SnapshotScheduler {
	return &SnapshotScheduler{
		store:    store,
		holder:   holder,
		logger:   logger,
		stopChan: make(chan struct{}),
		interval: interval,
	}
}

// Start begins the scheduler loop
func (s *SnapshotScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting trending snapshot scheduler", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately so fresh deployments get baselines before
	// the first tick.
	s.snapshot(ctx)

	for {
		select {
		case <-ticker.C:
			s.snapshot(ctx)
		case <-s.stopChan:
			s.logger.Info("Trending snapshot scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Trending snapshot scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler
func (s *SnapshotScheduler) Stop() {
	close(s.stopChan)
}

func (s *SnapshotScheduler) snapshot(ctx context.Context) {
	result := s.holder.Current()
	if result == nil {
		s.logger.Debug("No feed built yet, skipping baseline snapshot")
		return
	}

	written := 0
	for _, item := range result.Items {
		live, ok := s.store.Count(ctx, item.Key(), cache.MetricViews)
		if !ok {
			continue
		}
		for _, window := range []models.TrendingWindow{models.TrendingWeekly, models.TrendingMonthly} {
			if err := s.store.SnapshotIfAbsent(ctx, window, item.Key(), cache.MetricViews, live); err != nil {
				s.logger.Warn("Failed to write trending baseline",
					"key", item.Key(),
					"window", window,
					"error", err,
				)
				continue
			}
			written++
		}
	}

	s.logger.Debug("Trending baselines refreshed", "attempted", written)
}
