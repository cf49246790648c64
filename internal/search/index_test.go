package search

import (
	"testing"
	"time"

	"github.com/pulsefeed/pulse/internal/models"
)

func indexFixture() *Index {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return Build([]models.ActivityItem{
		{
			ID:          "blog:p1",
			Source:      models.SourceBlog,
			Timestamp:   ts,
			Title:       "Building a Redis cache layer",
			Description: "Notes on counter design",
			Tags:        []string{"redis", "go"},
		},
		{
			ID:        "blog:p2",
			Source:    models.SourceBlog,
			Timestamp: ts,
			Title:     "Profiling Go services",
			Tags:      []string{"go", "performance"},
		},
		{
			ID:        "thread:me/site:2026-08-01",
			Source:    models.SourceGitHub,
			Timestamp: ts,
			Title:     "2 updates to me/site",
			IsThread:  true,
			Thread: []models.ActivityItem{
				{ID: "g1", Source: models.SourceGitHub, Timestamp: ts, Title: "Pushed cache warmup fix"},
				{ID: "g2", Source: models.SourceGitHub, Timestamp: ts, Title: "Opened deploy pull request"},
			},
		},
	})
}

func TestQueryExactToken(t *testing.T) {
	idx := indexFixture()

	ids := idx.Query("redis")
	if len(ids) != 1 || ids[0] != "blog:p1" {
		t.Errorf("query %q = %v, want [blog:p1]", "redis", ids)
	}
}

func TestQueryCaseInsensitive(t *testing.T) {
	idx := indexFixture()

	for _, q := range []string{"REDIS", "Redis", "rEdIs"} {
		ids := idx.Query(q)
		if len(ids) != 1 || ids[0] != "blog:p1" {
			t.Errorf("query %q = %v, want [blog:p1]", q, ids)
		}
	}
}

func TestQueryPrefix(t *testing.T) {
	idx := indexFixture()

	ids := idx.Query("prof")
	if len(ids) != 1 || ids[0] != "blog:p2" {
		t.Errorf("prefix query = %v, want [blog:p2]", ids)
	}
}

func TestQueryMultiTokenIntersects(t *testing.T) {
	idx := indexFixture()

	// "go" matches both posts; "performance" narrows to p2.
	ids := idx.Query("go performance")
	if len(ids) != 1 || ids[0] != "blog:p2" {
		t.Errorf("intersection = %v, want [blog:p2]", ids)
	}
}

func TestQueryThreadChildSurfacesParent(t *testing.T) {
	idx := indexFixture()

	ids := idx.Query("deploy")
	if len(ids) != 1 || ids[0] != "thread:me/site:2026-08-01" {
		t.Errorf("child match = %v, want the thread parent", ids)
	}
}

func TestQueryNoMatch(t *testing.T) {
	idx := indexFixture()

	if ids := idx.Query("kubernetes"); len(ids) != 0 {
		t.Errorf("expected no matches, got %v", ids)
	}
	if ids := idx.Query(""); len(ids) != 0 {
		t.Errorf("empty query should match nothing, got %v", ids)
	}
	if ids := idx.Query("go kubernetes"); len(ids) != 0 {
		t.Errorf("one impossible token empties the intersection, got %v", ids)
	}
}

func TestQueryDeterministicOrder(t *testing.T) {
	idx := indexFixture()

	first := idx.Query("cache")
	second := idx.Query("cache")

	if len(first) != 2 {
		t.Fatalf("expected 2 matches for %q, got %v", "cache", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order differs across runs: %v vs %v", first, second)
		}
	}
	if first[0] != "blog:p1" || first[1] != "thread:me/site:2026-08-01" {
		t.Errorf("expected sorted ids, got %v", first)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Go-Redis cache", []string{"go", "redis", "cache"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"v1.2.3", []string{"v1", "2", "3"}},
		{"", nil},
		{"!!!", nil},
	}

	for _, tt := range tests {
		got := Tokenize(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
				break
			}
		}
	}
}
