package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/models"
)

// EngagementAdapter surfaces recent visitor reactions (likes,
// bookmarks) recorded by the tracking write path. An empty or
// unreachable cache yields an empty result, never an error: reaction
// items are decoration, not feed substance.
type EngagementAdapter struct {
	store cache.Store
	limit int
}

// NewEngagementAdapter creates an engagement adapter over the cache store.
func NewEngagementAdapter(store cache.Store, limit int) *EngagementAdapter {
	if limit <= 0 {
		limit = 25
	}
	return &EngagementAdapter{store: store, limit: limit}
}

// Name returns the adapter identifier.
func (a *EngagementAdapter) Name() string { return "engagement" }

// Source returns the source variant this adapter emits.
func (a *EngagementAdapter) Source() models.Source { return models.SourceEngagement }

// Fetch returns recent engagement events as activity items.
func (a *EngagementAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	events, ok := a.store.RecentEvents(ctx, cache.ListEngagement, a.limit)
	if !ok {
		return nil, nil
	}

	items := make([]models.ActivityItem, 0, len(events))
	for _, event := range events {
		if event.ID == "" || event.OccurredAt.IsZero() {
			continue
		}
		items = append(items, models.ActivityItem{
			ID:        event.ID,
			Source:    models.SourceEngagement,
			Timestamp: event.OccurredAt,
			Title:     fmt.Sprintf("Someone %s %s", pastTense(event.Kind), contentLabel(event.ContentKey)),
			Tags:      []string{"engagement", event.Kind},
		})
	}
	return items, nil
}

func pastTense(kind string) string {
	switch kind {
	case "like":
		return "liked"
	case "bookmark":
		return "bookmarked"
	case "view":
		return "viewed"
	default:
		return kind
	}
}

// contentLabel strips the source prefix from a content key for display.
func contentLabel(key string) string {
	if _, id, found := strings.Cut(key, ":"); found {
		return id
	}
	return key
}
