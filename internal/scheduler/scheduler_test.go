package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/feed"
	"github.com/pulsefeed/pulse/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rankedResult(ids ...string) *feed.Result {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	items := make([]feed.RankedItem, len(ids))
	for i, id := range ids {
		items[i] = feed.RankedItem{
			ActivityItem: models.ActivityItem{ID: id, Source: models.SourceBlog, Timestamp: ts},
		}
	}
	return &feed.Result{Items: items, BuiltAt: ts}
}

func TestSnapshotWritesBaselines(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(time.Hour)
	holder := feed.NewHolder()
	holder.Publish(rankedResult("p1", "p2"))

	if _, err := store.Increment(ctx, "blog:p1", cache.MetricViews, 40); err != nil {
		t.Fatal(err)
	}

	s := NewSnapshotScheduler(store, holder, time.Hour, testLogger())
	s.snapshot(ctx)

	weekly, ok := store.Snapshot(ctx, models.TrendingWeekly, "blog:p1", cache.MetricViews)
	if !ok || weekly != 40 {
		t.Errorf("weekly baseline = %d (ok=%v), want 40", weekly, ok)
	}
	monthly, ok := store.Snapshot(ctx, models.TrendingMonthly, "blog:p1", cache.MetricViews)
	if !ok || monthly != 40 {
		t.Errorf("monthly baseline = %d (ok=%v), want 40", monthly, ok)
	}

	// p2 has no counter, so no baseline is invented for it.
	if _, ok := store.Snapshot(ctx, models.TrendingWeekly, "blog:p2", cache.MetricViews); ok {
		t.Error("baseline written for a key with no counter")
	}
}

func TestSnapshotDoesNotAdvanceBaseline(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(time.Hour)
	holder := feed.NewHolder()
	holder.Publish(rankedResult("p1"))

	if _, err := store.Increment(ctx, "blog:p1", cache.MetricViews, 40); err != nil {
		t.Fatal(err)
	}

	s := NewSnapshotScheduler(store, holder, time.Hour, testLogger())
	s.snapshot(ctx)

	if _, err := store.Increment(ctx, "blog:p1", cache.MetricViews, 100); err != nil {
		t.Fatal(err)
	}
	s.snapshot(ctx)

	baseline, ok := store.Snapshot(ctx, models.TrendingWeekly, "blog:p1", cache.MetricViews)
	if !ok || baseline != 40 {
		t.Errorf("baseline moved inside its window: %d", baseline)
	}
}

func TestSnapshotSkipsWithoutFeed(t *testing.T) {
	store := cache.NewMemoryStore(time.Hour)
	s := NewSnapshotScheduler(store, feed.NewHolder(), time.Hour, testLogger())

	// Must not panic with no published result.
	s.snapshot(context.Background())
}

func TestRefreshSchedulerStops(t *testing.T) {
	s := &RefreshScheduler{
		logger:   testLogger(),
		stopChan: make(chan struct{}),
		interval: time.Hour,
	}

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	s.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRefreshSchedulerHonorsContext(t *testing.T) {
	s := &RefreshScheduler{
		logger:   testLogger(),
		stopChan: make(chan struct{}),
		interval: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not honor context cancellation")
	}
}
