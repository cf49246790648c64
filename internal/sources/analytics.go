package sources

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pulsefeed/pulse/internal/models"
)

// AnalyticsAdapter reads recorded analytics milestones from the
// analytics database. The rollup job that writes these rows is a
// separate system; this adapter only projects them into the feed.
type AnalyticsAdapter struct {
	db    *sql.DB
	limit int
}

// NewAnalyticsAdapter creates an analytics adapter over db.
func NewAnalyticsAdapter(db *sql.DB) *AnalyticsAdapter {
	return &AnalyticsAdapter{db: db, limit: 50}
}

// Name returns the adapter identifier.
func (a *AnalyticsAdapter) Name() string { return "analytics" }

// Source returns the source variant this adapter emits.
func (a *AnalyticsAdapter) Source() models.Source { return models.SourceAnalytics }

// Fetch returns the most recent analytics milestones.
func (a *AnalyticsAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	query := `
		SELECT id, title, description, metric, value, occurred_at
		FROM analytics_milestones
		ORDER BY occurred_at DESC
		LIMIT $1
	`

	rows, err := a.db.QueryContext(ctx, query, a.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics milestones: %w", err)
	}
	defer rows.Close()

	var items []models.ActivityItem
	for rows.Next() {
		var (
			id, title   string
			description sql.NullString
			metric      string
			value       int64
			occurredAt  time.Time
		)
		if err := rows.Scan(&id, &title, &description, &metric, &value, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan analytics milestone: %w", err)
		}

		item := models.ActivityItem{
			ID:          id,
			Source:      models.SourceAnalytics,
			Timestamp:   occurredAt,
			Title:       title,
			Description: description.String,
			Tags:        []string{"analytics", metric},
		}
		if metric == "views" && value > 0 {
			item.Stats = &models.Stats{Views: value}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analytics milestones: %w", err)
	}
	return items, nil
}
