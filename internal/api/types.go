package api

import (
	"time"

	"github.com/pulsefeed/pulse/internal/feed"
	"github.com/pulsefeed/pulse/internal/models"
)

// FeedResponse is the payload for GET /api/feed.
type FeedResponse struct {
	Items      []feed.RankedItem `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
	HasMore    bool              `json:"hasMore"`
	Total      int               `json:"total"`
	BuiltAt    time.Time         `json:"builtAt"`
}

// SourcesResponse is the payload for GET /api/feed/sources.
type SourcesResponse struct {
	Sources map[models.Source]int `json:"sources"`
	Total   int                   `json:"total"`
}

// SearchResponse is the payload for GET /api/search.
type SearchResponse struct {
	Query string            `json:"query"`
	Items []feed.RankedItem `json:"items"`
	Count int               `json:"count"`
}

// TrackRequest is the body of POST /api/track.
type TrackRequest struct {
	ContentKey string `json:"contentKey"`
	Metric     string `json:"metric"`
}

// TrackResponse reports the counter value after a tracked interaction.
type TrackResponse struct {
	ContentKey string `json:"contentKey"`
	Metric     string `json:"metric"`
	Count      int64  `json:"count"`
	Milestone  int64  `json:"milestone,omitempty"`
}

// StatsResponse is the payload for GET /api/stats.
type StatsResponse struct {
	TotalItems      int                   `json:"total_items"`
	SourceCounts    map[models.Source]int `json:"source_counts"`
	FailedAdapters  []string              `json:"failed_adapters,omitempty"`
	BuiltAt         time.Time             `json:"built_at"`
	BuildDuration   string                `json:"build_duration"`
	UptimeSeconds   int64                 `json:"uptime_seconds"`
	UptimeFormatted string                `json:"uptime_formatted"`
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	FeedReady bool   `json:"feed_ready"`
	CacheUp   bool   `json:"cache_up"`
	Uptime    string `json:"uptime"`
}
