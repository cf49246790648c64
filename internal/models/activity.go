package models

import (
	"fmt"
	"time"
)

// Source identifies the system an activity item originated from.
type Source string

const (
	SourceBlog          Source = "blog"
	SourceProject       Source = "project"
	SourceGitHub        Source = "github"
	SourceChangelog     Source = "changelog"
	SourceMilestone     Source = "milestone"
	SourceTrending      Source = "trending"
	SourceEngagement    Source = "engagement"
	SourceCertification Source = "certification"
	SourceAnalytics     Source = "analytics"
	SourceGitHubTraffic Source = "github-traffic"
	SourceSEO           Source = "seo"
)

// KnownSources lists every source an adapter can emit.
var KnownSources = []Source{
	SourceBlog,
	SourceProject,
	SourceGitHub,
	SourceChangelog,
	SourceMilestone,
	SourceTrending,
	SourceEngagement,
	SourceCertification,
	SourceAnalytics,
	SourceGitHubTraffic,
	SourceSEO,
}

// Valid reports whether the source is a known variant.
func (s Source) Valid() bool {
	for _, known := range KnownSources {
		if s == known {
			return true
		}
	}
	return false
}

// TrendingWindow is the rolling window over which an item's engagement
// velocity crossed the trending threshold.
type TrendingWindow string

const (
	TrendingWeekly  TrendingWindow = "weekly"
	TrendingMonthly TrendingWindow = "monthly"
)

// Stats holds engagement counters for an item. A nil *Stats on an
// ActivityItem means the counts are unknown, not zero.
type Stats struct {
	Views     int64 `json:"views"`
	Likes     int64 `json:"likes"`
	Stars     int64 `json:"stars"`
	Comments  int64 `json:"comments"`
	Bookmarks int64 `json:"bookmarks"`
}

// Total returns the sum of all counters.
func (s Stats) Total() int64 {
	return s.Views + s.Likes + s.Stars + s.Comments + s.Bookmarks
}

// Add accumulates another set of counters into s.
func (s *Stats) Add(other Stats) {
	s.Views += other.Views
	s.Likes += other.Likes
	s.Stars += other.Stars
	s.Comments += other.Comments
	s.Bookmarks += other.Bookmarks
}

// ActivityItem is the canonical normalized record flowing through the
// aggregation pipeline. Adapters construct items at fetch time; the
// aggregator and ranker transform them in memory only.
type ActivityItem struct {
	ID             string         `json:"id"`
	Source         Source         `json:"source"`
	Timestamp      time.Time      `json:"timestamp"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Stats          *Stats         `json:"stats,omitempty"`
	RepositoryKey  string         `json:"repository_key,omitempty"`
	TrendingWindow TrendingWindow `json:"trending_window,omitempty"`

	// Thread holds child items when this item is a synthetic thread
	// parent produced by the aggregator, oldest first.
	Thread   []ActivityItem `json:"thread,omitempty"`
	IsThread bool           `json:"is_thread,omitempty"`
}

// Key returns the (source, id) pair that uniquely identifies an item.
// It doubles as the stable content key engagement counters are stored
// under in the cache layer.
func (a ActivityItem) Key() string {
	return fmt.Sprintf("%s:%s", a.Source, a.ID)
}

// Validate checks that the fields every downstream stage depends on
// are present. Items failing validation are dropped by the pipeline.
func (a ActivityItem) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("missing id")
	}
	if !a.Source.Valid() {
		return fmt.Errorf("unknown source %q", a.Source)
	}
	if a.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	return nil
}
