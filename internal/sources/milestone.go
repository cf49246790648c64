package sources

import (
	"context"
	"fmt"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/models"
)

// MilestoneAdapter surfaces engagement milestones (a post crossing 100
// views, and so on). The tracking write path records a milestone event
// the moment a counter crosses a configured threshold; this adapter
// reads those events back.
type MilestoneAdapter struct {
	store cache.Store
	limit int
}

// NewMilestoneAdapter creates a milestone adapter over the cache store.
func NewMilestoneAdapter(store cache.Store, limit int) *MilestoneAdapter {
	if limit <= 0 {
		limit = 25
	}
	return &MilestoneAdapter{store: store, limit: limit}
}

// Name returns the adapter identifier.
func (a *MilestoneAdapter) Name() string { return "milestones" }

// Source returns the source variant this adapter emits.
func (a *MilestoneAdapter) Source() models.Source { return models.SourceMilestone }

// Fetch returns recently crossed milestones as activity items.
func (a *MilestoneAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	events, ok := a.store.RecentEvents(ctx, cache.ListMilestones, a.limit)
	if !ok {
		return nil, nil
	}

	items := make([]models.ActivityItem, 0, len(events))
	for _, event := range events {
		if event.ID == "" || event.OccurredAt.IsZero() || event.Threshold <= 0 {
			continue
		}
		items = append(items, models.ActivityItem{
			ID:        event.ID,
			Source:    models.SourceMilestone,
			Timestamp: event.OccurredAt,
			Title:     fmt.Sprintf("%s reached %d %s", contentLabel(event.ContentKey), event.Threshold, event.Kind),
			Tags:      []string{"milestone", event.Kind},
		})
	}
	return items, nil
}
