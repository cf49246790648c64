package feed

import (
	"context"
	"testing"
	"time"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/models"
)

func trendingFixture(t *testing.T) (*TrendingDetector, *cache.MemoryStore, models.ActivityItem) {
	t.Helper()
	store := cache.NewMemoryStore(time.Hour)
	cfg := testRankingConfig()
	cfg.WeeklyThreshold = 25
	cfg.MonthlyThreshold = 100
	detector := NewTrendingDetector(store, cfg, testLogger())
	item := blogItem("p1", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	return detector, store, item
}

func setCounter(t *testing.T, store *cache.MemoryStore, key string, value int64) {
	t.Helper()
	if _, err := store.Increment(context.Background(), key, cache.MetricViews, value); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
}

func setBaseline(t *testing.T, store *cache.MemoryStore, window models.TrendingWindow, key string, value int64) {
	t.Helper()
	if err := store.SnapshotIfAbsent(context.Background(), window, key, cache.MetricViews, value); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
}

func TestDetectWithoutBaseline(t *testing.T) {
	detector, store, item := trendingFixture(t)
	setCounter(t, store, item.Key(), 10_000)

	if got := detector.Detect(context.Background(), item); got != "" {
		t.Errorf("no baseline means no trending, got %q", got)
	}
}

func TestDetectWithoutCounter(t *testing.T) {
	detector, store, item := trendingFixture(t)
	setBaseline(t, store, models.TrendingWeekly, item.Key(), 0)

	if got := detector.Detect(context.Background(), item); got != "" {
		t.Errorf("no live counter means no trending, got %q", got)
	}
}

func TestDetectWeekly(t *testing.T) {
	detector, store, item := trendingFixture(t)
	setBaseline(t, store, models.TrendingWeekly, item.Key(), 100)
	setCounter(t, store, item.Key(), 130)

	if got := detector.Detect(context.Background(), item); got != models.TrendingWeekly {
		t.Errorf("30 views over a 25 threshold should trend weekly, got %q", got)
	}
}

func TestDetectBelowThreshold(t *testing.T) {
	detector, store, item := trendingFixture(t)
	setBaseline(t, store, models.TrendingWeekly, item.Key(), 100)
	setBaseline(t, store, models.TrendingMonthly, item.Key(), 100)
	setCounter(t, store, item.Key(), 110)

	if got := detector.Detect(context.Background(), item); got != "" {
		t.Errorf("growth of 10 is under both thresholds, got %q", got)
	}
}

func TestDetectWeeklyWinsOverMonthly(t *testing.T) {
	detector, store, item := trendingFixture(t)
	setBaseline(t, store, models.TrendingWeekly, item.Key(), 0)
	setBaseline(t, store, models.TrendingMonthly, item.Key(), 0)
	setCounter(t, store, item.Key(), 500)

	if got := detector.Detect(context.Background(), item); got != models.TrendingWeekly {
		t.Errorf("an item over both thresholds reports weekly, got %q", got)
	}
}

func TestDetectMonthlyOnly(t *testing.T) {
	detector, store, item := trendingFixture(t)
	// Weekly baseline is recent so weekly growth is small; monthly
	// baseline is far behind.
	setBaseline(t, store, models.TrendingWeekly, item.Key(), 490)
	setBaseline(t, store, models.TrendingMonthly, item.Key(), 0)
	setCounter(t, store, item.Key(), 500)

	if got := detector.Detect(context.Background(), item); got != models.TrendingMonthly {
		t.Errorf("expected monthly window, got %q", got)
	}
}

func TestDetectCounterReset(t *testing.T) {
	detector, store, item := trendingFixture(t)
	setBaseline(t, store, models.TrendingWeekly, item.Key(), 1_000)
	setCounter(t, store, item.Key(), 50)

	if got := detector.Detect(context.Background(), item); got != "" {
		t.Errorf("counter below baseline must not trend, got %q", got)
	}
}
