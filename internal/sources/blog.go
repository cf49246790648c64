package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pulsefeed/pulse/internal/models"

	"log/slog"
)

// BlogAdapter reads the site's published RSS/Atom feed and normalizes
// posts into activity items. The blog content pipeline itself (MDX
// rendering, frontmatter) stays outside this service; the feed is the
// contract.
type BlogAdapter struct {
	feedURL    string
	httpClient *http.Client
	parser     *gofeed.Parser
	logger     *slog.Logger
}

// NewBlogAdapter creates a blog adapter for the given feed URL.
func NewBlogAdapter(feedURL string, logger *slog.Logger) *BlogAdapter {
	return &BlogAdapter{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Name returns the adapter identifier.
func (a *BlogAdapter) Name() string { return "blog" }

// Source returns the source variant this adapter emits.
func (a *BlogAdapter) Source() models.Source { return models.SourceBlog }

// Fetch downloads and parses the blog feed.
func (a *BlogAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blog feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blog feed returned status %d", resp.StatusCode)
	}

	feed, err := a.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse blog feed: %w", err)
	}

	items := make([]models.ActivityItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}
		if published == nil {
			a.logger.Debug("skipping feed entry without timestamp", "title", entry.Title)
			continue
		}

		id := entry.GUID
		if id == "" {
			id = entry.Link
		}

		items = append(items, models.ActivityItem{
			ID:          id,
			Source:      models.SourceBlog,
			Timestamp:   *published,
			Title:       entry.Title,
			Description: entry.Description,
			Tags:        entry.Categories,
		})
	}

	return items, nil
}
