package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/models"

	"log/slog"
)

// GitHubTrafficAdapter reads the 14-day traffic summary for a
// configured set of repositories and emits one item per repository.
// Traffic stats require push access, so the adapter is only registered
// when a token is configured.
type GitHubTrafficAdapter struct {
	repos   []string
	token   string
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

// NewGitHubTrafficAdapter creates a traffic adapter over cfg.TrafficRepos.
func NewGitHubTrafficAdapter(cfg config.GitHubConfig, logger *slog.Logger) *GitHubTrafficAdapter {
	return &GitHubTrafficAdapter{
		repos:   cfg.TrafficRepos,
		token:   cfg.Token,
		apiBase: cfg.APIBase,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the adapter identifier.
func (a *GitHubTrafficAdapter) Name() string { return "github-traffic" }

// Source returns the source variant this adapter emits.
func (a *GitHubTrafficAdapter) Source() models.Source { return models.SourceGitHubTraffic }

type trafficResponse struct {
	Count   int64 `json:"count"`
	Uniques int64 `json:"uniques"`
	Views   []struct {
		Timestamp time.Time `json:"timestamp"`
		Count     int64     `json:"count"`
	} `json:"views"`
}

// Fetch pulls traffic summaries for every configured repository. A
// repository that fails is skipped so the rest still report.
func (a *GitHubTrafficAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	items := make([]models.ActivityItem, 0, len(a.repos))

	var lastErr error
	for _, repo := range a.repos {
		item, err := a.fetchRepo(ctx, repo)
		if err != nil {
			a.logger.Warn("failed to fetch traffic for repository", "repo", repo, "error", err)
			lastErr = err
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return items, nil
}

func (a *GitHubTrafficAdapter) fetchRepo(ctx context.Context, repo string) (models.ActivityItem, error) {
	url := fmt.Sprintf("%s/repos/%s/traffic/views", a.apiBase, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.ActivityItem{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return models.ActivityItem{}, fmt.Errorf("request to GitHub failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ActivityItem{}, fmt.Errorf("GitHub returned status %d", resp.StatusCode)
	}

	var traffic trafficResponse
	if err := json.NewDecoder(resp.Body).Decode(&traffic); err != nil {
		return models.ActivityItem{}, fmt.Errorf("failed to decode traffic response: %w", err)
	}

	// Anchor the item on the latest day with data so the id stays
	// stable between polls of the same window.
	latest := time.Now().UTC().Truncate(24 * time.Hour)
	if n := len(traffic.Views); n > 0 {
		latest = traffic.Views[n-1].Timestamp
	}

	return models.ActivityItem{
		ID:            fmt.Sprintf("%s:%s", repo, latest.Format("2006-01-02")),
		Source:        models.SourceGitHubTraffic,
		Timestamp:     latest,
		Title:         fmt.Sprintf("%s drew %d views over two weeks", repo, traffic.Count),
		Description:   fmt.Sprintf("%d unique visitors", traffic.Uniques),
		Tags:          []string{"github", "traffic"},
		RepositoryKey: repo,
		Stats:         &models.Stats{Views: traffic.Count},
	}, nil
}
