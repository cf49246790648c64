package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/models"

	"log/slog"
)

// GitHubAdapter fetches the user's recent public events from the
// GitHub REST API. Items carry a repositoryKey so the aggregator can
// thread same-day events on one repository.
type GitHubAdapter struct {
	user       string
	token      string
	apiBase    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGitHubAdapter creates a GitHub events adapter.
func NewGitHubAdapter(cfg config.GitHubConfig, logger *slog.Logger) *GitHubAdapter {
	return &GitHubAdapter{
		user:    cfg.User,
		token:   cfg.Token,
		apiBase: cfg.APIBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the adapter identifier.
func (a *GitHubAdapter) Name() string { return "github" }

// Source returns the source variant this adapter emits.
func (a *GitHubAdapter) Source() models.Source { return models.SourceGitHub }

type githubEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Action  string `json:"action"`
		Ref     string `json:"ref"`
		RefType string `json:"ref_type"`
		Commits []struct {
			Message string `json:"message"`
		} `json:"commits"`
		PullRequest struct {
			Title string `json:"title"`
		} `json:"pull_request"`
		Release struct {
			Name    string `json:"name"`
			TagName string `json:"tag_name"`
		} `json:"release"`
	} `json:"payload"`
}

// Fetch retrieves the user's recent public events.
func (a *GitHubAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	url := fmt.Sprintf("%s/users/%s/events/public?per_page=100", a.apiBase, a.user)

	body, err := a.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var events []githubEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}

	items := make([]models.ActivityItem, 0, len(events))
	for _, event := range events {
		item, ok := a.normalizeEvent(event)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// normalizeEvent maps one GitHub event onto the canonical shape.
// Event types with no user-facing story are skipped.
func (a *GitHubAdapter) normalizeEvent(event githubEvent) (models.ActivityItem, bool) {
	item := models.ActivityItem{
		ID:            event.ID,
		Source:        models.SourceGitHub,
		Timestamp:     event.CreatedAt,
		RepositoryKey: event.Repo.Name,
		Tags:          []string{"github"},
	}

	switch event.Type {
	case "PushEvent":
		commits := len(event.Payload.Commits)
		item.Title = fmt.Sprintf("Pushed %d commit%s to %s", commits, plural(commits), event.Repo.Name)
		if commits > 0 {
			item.Description = event.Payload.Commits[commits-1].Message
		}
	case "PullRequestEvent":
		item.Title = fmt.Sprintf("Pull request %s in %s", event.Payload.Action, event.Repo.Name)
		item.Description = event.Payload.PullRequest.Title
	case "ReleaseEvent":
		name := event.Payload.Release.Name
		if name == "" {
			name = event.Payload.Release.TagName
		}
		item.Title = fmt.Sprintf("Released %s of %s", name, event.Repo.Name)
	case "CreateEvent":
		if event.Payload.RefType != "repository" {
			return models.ActivityItem{}, false
		}
		item.Title = fmt.Sprintf("Created repository %s", event.Repo.Name)
	case "IssuesEvent":
		if event.Payload.Action != "opened" && event.Payload.Action != "closed" {
			return models.ActivityItem{}, false
		}
		item.Title = fmt.Sprintf("Issue %s in %s", event.Payload.Action, event.Repo.Name)
	default:
		return models.ActivityItem{}, false
	}

	return item, true
}

func (a *GitHubAdapter) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to GitHub failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("GitHub rate limit hit (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GitHub response: %w", err)
	}
	return body, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
