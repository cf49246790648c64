package sources

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pulsefeed/pulse/internal/models"
)

// SEOAdapter reads search-visibility events (ranking changes, indexing
// wins) recorded by the SEO reporting job in the analytics database.
type SEOAdapter struct {
	db    *sql.DB
	limit int
}

// NewSEOAdapter creates an SEO adapter over db.
func NewSEOAdapter(db *sql.DB) *SEOAdapter {
	return &SEOAdapter{db: db, limit: 25}
}

// Name returns the adapter identifier.
func (a *SEOAdapter) Name() string { return "seo" }

// Source returns the source variant this adapter emits.
func (a *SEOAdapter) Source() models.Source { return models.SourceSEO }

// Fetch returns the most recent SEO events.
func (a *SEOAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	query := `
		SELECT id, title, description, impressions, clicks, occurred_at
		FROM seo_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`

	rows, err := a.db.QueryContext(ctx, query, a.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query seo events: %w", err)
	}
	defer rows.Close()

	var items []models.ActivityItem
	for rows.Next() {
		var (
			id, title   string
			description sql.NullString
			impressions int64
			clicks      int64
			occurredAt  time.Time
		)
		if err := rows.Scan(&id, &title, &description, &impressions, &clicks, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan seo event: %w", err)
		}

		item := models.ActivityItem{
			ID:          id,
			Source:      models.SourceSEO,
			Timestamp:   occurredAt,
			Title:       title,
			Description: description.String,
			Tags:        []string{"seo", "search"},
		}
		if impressions > 0 {
			item.Stats = &models.Stats{Views: impressions}
			item.Description = fmt.Sprintf("%d impressions, %d clicks", impressions, clicks)
			if description.String != "" {
				item.Description = fmt.Sprintf("%s (%d impressions, %d clicks)", description.String, impressions, clicks)
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seo events: %w", err)
	}
	return items, nil
}
