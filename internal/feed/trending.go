package feed

import (
	"context"
	"log/slog"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/models"
)

// TrendingDetector flags items whose view counters grew past a window
// threshold since the snapshot baseline was taken. The scheduler owns
// writing baselines; the detector only reads them.
type TrendingDetector struct {
	store  cache.Store
	cfg    config.RankingConfig
	logger *slog.Logger
}

// NewTrendingDetector creates a detector over the given counter store.
func NewTrendingDetector(store cache.Store, cfg config.RankingConfig, logger *slog.Logger) *TrendingDetector {
	return &TrendingDetector{store: store, cfg: cfg, logger: logger}
}

// Detect returns the trending window for the item, or empty when the
// item is not trending. Weekly is checked first so an item qualifying
// for both windows reports the rarer one. An item with no baseline
// snapshot is never trending; growth cannot be measured against nothing.
func (d *TrendingDetector) Detect(ctx context.Context, item models.ActivityItem) models.TrendingWindow {
	if d.store == nil {
		return ""
	}

	live, ok := d.store.Count(ctx, item.Key(), cache.MetricViews)
	if !ok {
		return ""
	}

	if d.growth(ctx, models.TrendingWeekly, item.Key(), live) >= d.cfg.WeeklyThreshold {
		return models.TrendingWeekly
	}
	if d.growth(ctx, models.TrendingMonthly, item.Key(), live) >= d.cfg.MonthlyThreshold {
		return models.TrendingMonthly
	}
	return ""
}

// growth returns live minus the window baseline, or -1 when no
// baseline exists so no threshold can match.
func (d *TrendingDetector) growth(ctx context.Context, window models.TrendingWindow, key string, live int64) int64 {
	baseline, ok := d.store.Snapshot(ctx, window, key, cache.MetricViews)
	if !ok {
		return -1
	}
	delta := live - baseline
	if delta < 0 {
		// A reset counter reads below its baseline; treat as no growth.
		return 0
	}
	return delta
}
