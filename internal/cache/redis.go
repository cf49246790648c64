package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/models"

	"log/slog"
)

const maxEventListLength = 200

// RedisStore implements Store on top of a Redis backend. Counters and
// milestone flags carry the configured TTL; trending baselines live for
// the length of their window.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.CacheConfig, logger *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.CounterTTL,
		logger: logger,
	}, nil
}

// Count returns a single live counter, or absent on miss or backend error.
func (s *RedisStore) Count(ctx context.Context, key string, metric Metric) (int64, bool) {
	val, err := s.client.Get(ctx, counterKey(key, metric)).Int64()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		s.logger.Debug("counter lookup failed", "key", key, "metric", metric, "error", err)
		return 0, false
	}
	return val, true
}

// Counts returns all known counters for a key via a single MGET.
func (s *RedisStore) Counts(ctx context.Context, key string) (*models.Stats, bool) {
	keys := make([]string, len(KnownMetrics))
	for i, metric := range KnownMetrics {
		keys[i] = counterKey(key, metric)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		s.logger.Debug("counters lookup failed", "key", key, "error", err)
		return nil, false
	}

	stats := &models.Stats{}
	found := false
	for i, raw := range values {
		if raw == nil {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var n int64
		if _, err := fmt.Sscanf(str, "%d", &n); err != nil {
			continue
		}
		found = true
		switch KnownMetrics[i] {
		case MetricViews:
			stats.Views = n
		case MetricLikes:
			stats.Likes = n
		case MetricStars:
			stats.Stars = n
		case MetricComments:
			stats.Comments = n
		case MetricBookmarks:
			stats.Bookmarks = n
		}
	}

	if !found {
		return nil, false
	}
	return stats, true
}

// Increment adds delta to a counter and refreshes its TTL.
func (s *RedisStore) Increment(ctx context.Context, key string, metric Metric, delta int64) (int64, error) {
	storageKey := counterKey(key, metric)

	val, err := s.client.IncrBy(ctx, storageKey, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", storageKey, err)
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, storageKey, s.ttl).Err(); err != nil {
			s.logger.Debug("failed to refresh counter TTL", "key", storageKey, "error", err)
		}
	}

	return val, nil
}

// MilestoneFlags returns the thresholds already crossed for a key.
func (s *RedisStore) MilestoneFlags(ctx context.Context, key string) ([]int64, bool) {
	members, err := s.client.SMembers(ctx, milestoneKey(key)).Result()
	if err != nil || len(members) == 0 {
		return nil, false
	}

	flags := make([]int64, 0, len(members))
	for _, member := range members {
		var n int64
		if _, err := fmt.Sscanf(member, "%d", &n); err == nil {
			flags = append(flags, n)
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags, len(flags) > 0
}

// SetMilestoneFlag records a crossed threshold for a key.
func (s *RedisStore) SetMilestoneFlag(ctx context.Context, key string, threshold int64) error {
	storageKey := milestoneKey(key)
	if err := s.client.SAdd(ctx, storageKey, threshold).Err(); err != nil {
		return fmt.Errorf("failed to set milestone flag %s: %w", storageKey, err)
	}
	return nil
}

// Snapshot returns the rolling baseline for a counter within a window.
func (s *RedisStore) Snapshot(ctx context.Context, window models.TrendingWindow, key string, metric Metric) (int64, bool) {
	val, err := s.client.Get(ctx, snapshotKey(window, key, metric)).Int64()
	if err != nil {
		return 0, false
	}
	return val, true
}

// SnapshotIfAbsent writes a baseline with the window's TTL only when
// none exists yet.
func (s *RedisStore) SnapshotIfAbsent(ctx context.Context, window models.TrendingWindow, key string, metric Metric, value int64) error {
	storageKey := snapshotKey(window, key, metric)
	if err := s.client.SetNX(ctx, storageKey, value, windowTTL(window)).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", storageKey, err)
	}
	return nil
}

// AppendEvent prepends an event to a bounded list.
func (s *RedisStore) AppendEvent(ctx context.Context, list string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	storageKey := eventListKey(list)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, storageKey, data)
	pipe.LTrim(ctx, storageKey, 0, maxEventListLength-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event to %s: %w", storageKey, err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first. Entries that
// fail to decode are skipped.
func (s *RedisStore) RecentEvents(ctx context.Context, list string, limit int) ([]Event, bool) {
	if limit <= 0 {
		limit = maxEventListLength
	}

	entries, err := s.client.LRange(ctx, eventListKey(list), 0, int64(limit-1)).Result()
	if err != nil || len(entries) == 0 {
		return nil, false
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		var event Event
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			s.logger.Debug("skipping malformed event entry", "list", list, "error", err)
			continue
		}
		events = append(events, event)
	}
	return events, len(events) > 0
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
