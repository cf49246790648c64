package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pulsefeed/pulse/internal/models"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <item>
      <title>Building a feed aggregator</title>
      <link>https://example.com/posts/feed-aggregator</link>
      <guid>posts/feed-aggregator</guid>
      <description>Notes from building the activity feed.</description>
      <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
      <category>go</category>
      <category>side-projects</category>
    </item>
    <item>
      <title>Undated draft</title>
      <link>https://example.com/posts/draft</link>
      <guid>posts/draft</guid>
    </item>
  </channel>
</rss>`

func TestBlogAdapterFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	adapter := NewBlogAdapter(server.URL, testLogger())
	items, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	// The undated entry must be dropped.
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Source != models.SourceBlog {
		t.Errorf("unexpected source %q", item.Source)
	}
	if item.ID != "posts/feed-aggregator" {
		t.Errorf("expected guid as id, got %q", item.ID)
	}
	if item.Timestamp.IsZero() {
		t.Error("timestamp must be populated")
	}
	if len(item.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", item.Tags)
	}
}

func TestBlogAdapterServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewBlogAdapter(server.URL, testLogger())
	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
