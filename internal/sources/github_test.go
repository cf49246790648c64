package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/models"
)

const sampleEvents = `[
  {
    "id": "1001",
    "type": "PushEvent",
    "created_at": "2025-06-02T09:30:00Z",
    "repo": {"name": "me/site"},
    "payload": {"commits": [{"message": "fix nav"}, {"message": "tweak colors"}]}
  },
  {
    "id": "1002",
    "type": "PullRequestEvent",
    "created_at": "2025-06-02T11:00:00Z",
    "repo": {"name": "me/tools"},
    "payload": {"action": "opened", "pull_request": {"title": "Add exporter"}}
  },
  {
    "id": "1003",
    "type": "WatchEvent",
    "created_at": "2025-06-02T12:00:00Z",
    "repo": {"name": "someone/else"},
    "payload": {}
  }
]`

func TestGitHubAdapterFetch(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleEvents))
	}))
	defer server.Close()

	cfg := config.GitHubConfig{User: "me", Token: "tok", APIBase: server.URL}
	adapter := NewGitHubAdapter(cfg, testLogger())

	items, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}

	// The WatchEvent has no user-facing story and is skipped.
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	push := items[0]
	if push.Source != models.SourceGitHub {
		t.Errorf("unexpected source %q", push.Source)
	}
	if push.RepositoryKey != "me/site" {
		t.Errorf("expected repository key me/site, got %q", push.RepositoryKey)
	}
	if push.Title != "Pushed 2 commits to me/site" {
		t.Errorf("unexpected title %q", push.Title)
	}

	pr := items[1]
	if pr.Title != "Pull request opened in me/tools" {
		t.Errorf("unexpected title %q", pr.Title)
	}
	if pr.Description != "Add exporter" {
		t.Errorf("unexpected description %q", pr.Description)
	}
}

func TestGitHubAdapterRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.GitHubConfig{User: "me", APIBase: server.URL}
	adapter := NewGitHubAdapter(cfg, testLogger())

	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on rate limit")
	}
}

func TestGitHubTrafficAdapterFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 340,
			"uniques": 120,
			"views": [
				{"timestamp": "2025-05-30T00:00:00Z", "count": 100},
				{"timestamp": "2025-05-31T00:00:00Z", "count": 240}
			]
		}`))
	}))
	defer server.Close()

	cfg := config.GitHubConfig{Token: "tok", APIBase: server.URL, TrafficRepos: []string{"me/site"}}
	adapter := NewGitHubTrafficAdapter(cfg, testLogger())

	items, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Source != models.SourceGitHubTraffic {
		t.Errorf("unexpected source %q", item.Source)
	}
	if item.ID != "me/site:2025-05-31" {
		t.Errorf("expected id anchored on latest day, got %q", item.ID)
	}
	if item.Stats == nil || item.Stats.Views != 340 {
		t.Errorf("expected 340 views, got %+v", item.Stats)
	}
}
