package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pulsefeed/pulse/internal/models"
)

// Metric names a live engagement counter stored per content key.
type Metric string

const (
	MetricViews     Metric = "views"
	MetricLikes     Metric = "likes"
	MetricStars     Metric = "stars"
	MetricComments  Metric = "comments"
	MetricBookmarks Metric = "bookmarks"
)

// KnownMetrics lists every counter the cache layer tracks.
var KnownMetrics = []Metric{MetricViews, MetricLikes, MetricStars, MetricComments, MetricBookmarks}

// Valid reports whether the metric is a known counter name.
func (m Metric) Valid() bool {
	for _, known := range KnownMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// Event list names used by the write path and the engagement/milestone
// adapters.
const (
	ListEngagement = "engagement"
	ListMilestones = "milestones"
)

// Event is an engagement reaction or milestone occurrence recorded by
// the tracking write path and read back by the source adapters.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	ContentKey string    `json:"content_key"`
	Threshold  int64     `json:"threshold,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store holds the ephemeral counters, milestone flags, trending
// baselines and recent-event lists the pipeline reads. Lookups report
// absence, never failure: an unreachable backend degrades to "no data"
// so the feed keeps serving. Only writes surface errors.
type Store interface {
	// Count returns a single live counter. ok is false when the value
	// is absent or the backend is unreachable.
	Count(ctx context.Context, key string, metric Metric) (int64, bool)

	// Counts returns every known counter for a key. ok is false when
	// no counter exists for the key.
	Counts(ctx context.Context, key string) (*models.Stats, bool)

	// Increment adds delta to a counter and returns the new value.
	Increment(ctx context.Context, key string, metric Metric, delta int64) (int64, error)

	// MilestoneFlags returns the thresholds already crossed for a key,
	// ascending.
	MilestoneFlags(ctx context.Context, key string) ([]int64, bool)

	// SetMilestoneFlag records a crossed threshold for a key.
	SetMilestoneFlag(ctx context.Context, key string, threshold int64) error

	// Snapshot returns the rolling baseline for a counter within a
	// trending window.
	Snapshot(ctx context.Context, window models.TrendingWindow, key string, metric Metric) (int64, bool)

	// SnapshotIfAbsent writes a baseline only when none exists for the
	// current window, so the baseline stays fixed until it expires.
	SnapshotIfAbsent(ctx context.Context, window models.TrendingWindow, key string, metric Metric, value int64) error

	// AppendEvent prepends an event to a bounded recent-events list.
	AppendEvent(ctx context.Context, list string, event Event) error

	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, list string, limit int) ([]Event, bool)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// counterKey builds the storage key for a live counter:
// counter:<source>:<id>:<metric>.
func counterKey(key string, metric Metric) string {
	return fmt.Sprintf("counter:%s:%s", key, metric)
}

// milestoneKey builds the storage key for a content key's crossed
// thresholds.
func milestoneKey(key string) string {
	return fmt.Sprintf("milestones:%s", key)
}

// snapshotKey builds the storage key for a trending baseline.
func snapshotKey(window models.TrendingWindow, key string, metric Metric) string {
	return fmt.Sprintf("snapshot:%s:%s:%s", window, key, metric)
}

// eventListKey builds the storage key for a recent-events list.
func eventListKey(list string) string {
	return fmt.Sprintf("events:%s", list)
}

// windowTTL maps a trending window to the lifetime of its baseline.
func windowTTL(window models.TrendingWindow) time.Duration {
	if window == models.TrendingMonthly {
		return 30 * 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}
