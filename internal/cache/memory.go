package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pulsefeed/pulse/internal/models"
)

// MemoryStore is an in-process Store used in tests and as the fallback
// when Redis is unavailable at startup. Counter entries honor the same
// TTL semantics as the Redis backend.
type MemoryStore struct {
	mu         sync.RWMutex
	counters   map[string]memoryEntry
	milestones map[string]map[int64]bool
	snapshots  map[string]memoryEntry
	events     map[string][]Event
	ttl        time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an empty in-memory store. A ttl of zero
// disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		counters:   make(map[string]memoryEntry),
		milestones: make(map[string]map[int64]bool),
		snapshots:  make(map[string]memoryEntry),
		events:     make(map[string][]Event),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Count returns a single live counter.
func (s *MemoryStore) Count(_ context.Context, key string, metric Metric) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.counters[counterKey(key, metric)]
	if !ok || entry.expired(s.now()) {
		return 0, false
	}
	return entry.value, true
}

// Counts returns every known counter for a key.
func (s *MemoryStore) Counts(ctx context.Context, key string) (*models.Stats, bool) {
	stats := &models.Stats{}
	found := false

	for _, metric := range KnownMetrics {
		value, ok := s.Count(ctx, key, metric)
		if !ok {
			continue
		}
		found = true
		switch metric {
		case MetricViews:
			stats.Views = value
		case MetricLikes:
			stats.Likes = value
		case MetricStars:
			stats.Stars = value
		case MetricComments:
			stats.Comments = value
		case MetricBookmarks:
			stats.Bookmarks = value
		}
	}

	if !found {
		return nil, false
	}
	return stats, true
}

// Increment adds delta to a counter and refreshes its TTL.
func (s *MemoryStore) Increment(_ context.Context, key string, metric Metric, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	storageKey := counterKey(key, metric)
	now := s.now()

	entry := s.counters[storageKey]
	if entry.expired(now) {
		entry = memoryEntry{}
	}
	entry.value += delta
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}
	s.counters[storageKey] = entry

	return entry.value, nil
}

// MilestoneFlags returns the thresholds already crossed for a key.
func (s *MemoryStore) MilestoneFlags(_ context.Context, key string) ([]int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	crossed, ok := s.milestones[milestoneKey(key)]
	if !ok || len(crossed) == 0 {
		return nil, false
	}

	flags := make([]int64, 0, len(crossed))
	for threshold := range crossed {
		flags = append(flags, threshold)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags, true
}

// SetMilestoneFlag records a crossed threshold for a key.
func (s *MemoryStore) SetMilestoneFlag(_ context.Context, key string, threshold int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storageKey := milestoneKey(key)
	if s.milestones[storageKey] == nil {
		s.milestones[storageKey] = make(map[int64]bool)
	}
	s.milestones[storageKey][threshold] = true
	return nil
}

// Snapshot returns the rolling baseline for a counter within a window.
func (s *MemoryStore) Snapshot(_ context.Context, window models.TrendingWindow, key string, metric Metric) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.snapshots[snapshotKey(window, key, metric)]
	if !ok || entry.expired(s.now()) {
		return 0, false
	}
	return entry.value, true
}

// SnapshotIfAbsent writes a baseline only when none exists.
func (s *MemoryStore) SnapshotIfAbsent(_ context.Context, window models.TrendingWindow, key string, metric Metric, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storageKey := snapshotKey(window, key, metric)
	now := s.now()

	if existing, ok := s.snapshots[storageKey]; ok && !existing.expired(now) {
		return nil
	}

	s.snapshots[storageKey] = memoryEntry{
		value:     value,
		expiresAt: now.Add(windowTTL(window)),
	}
	return nil
}

// AppendEvent prepends an event to a bounded list.
func (s *MemoryStore) AppendEvent(_ context.Context, list string, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storageKey := eventListKey(list)
	events := append([]Event{event}, s.events[storageKey]...)
	if len(events) > maxEventListLength {
		events = events[:maxEventListLength]
	}
	s.events[storageKey] = events
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *MemoryStore) RecentEvents(_ context.Context, list string, limit int) ([]Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[eventListKey(list)]
	if len(events) == 0 {
		return nil, false
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	out := make([]Event, len(events))
	copy(out, events)
	return out, true
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// SetClock overrides the store's time source for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

var _ Store = (*MemoryStore)(nil)
