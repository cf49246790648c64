package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsefeed/pulse/internal/feed"
)

// RefreshScheduler rebuilds the feed on a fixed interval and publishes
// each result to the holder. Readers keep the previous feed until a
// build succeeds.
type RefreshScheduler struct {
	pipeline *feed.Pipeline
	holder   *feed.Holder
	logger   *slog.Logger
	stopChan chan struct{}
	interval time.Duration
}

// NewRefreshScheduler creates a new refresh scheduler
func NewRefreshScheduler(pipeline *feed.Pipeline, holder *feed.Holder, interval time.Duration, logger *slog.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		pipeline: pipeline,
		holder:   holder,
		logger:   logger,
		stopChan: make(chan struct{}),
		interval: interval,
	}
}

// Start begins the scheduler loop
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting feed refresh scheduler", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh(ctx)
		case <-s.stopChan:
			s.logger.Info("Feed refresh scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Feed refresh scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler
func (s *RefreshScheduler) Stop() {
	close(s.stopChan)
}

func (s *RefreshScheduler) refresh(ctx context.Context) {
	result, err := s.pipeline.Build(ctx)
	if err != nil {
		s.logger.Error("Failed to rebuild feed, keeping previous result", "error", err)
		return
	}
	s.holder.Publish(result)
}
