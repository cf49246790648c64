package feed

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pulsefeed/pulse/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func blogItem(id string, ts time.Time) models.ActivityItem {
	return models.ActivityItem{
		ID:        id,
		Source:    models.SourceBlog,
		Timestamp: ts,
		Title:     "post " + id,
	}
}

func githubItem(id, repo string, ts time.Time) models.ActivityItem {
	return models.ActivityItem{
		ID:            id,
		Source:        models.SourceGitHub,
		Timestamp:     ts,
		Title:         "event " + id,
		RepositoryKey: repo,
	}
}

func TestAggregateDeduplicates(t *testing.T) {
	agg := NewAggregator(testLogger())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first := blogItem("p1", base)
	first.Title = "old title"
	second := blogItem("p1", base)
	second.Title = "new title"

	out := agg.Aggregate([]models.ActivityItem{first, second, blogItem("p2", base)})

	if len(out) != 2 {
		t.Fatalf("expected 2 items after dedupe, got %d", len(out))
	}
	if out[0].Title != "new title" {
		t.Errorf("expected later duplicate to win, got title %q", out[0].Title)
	}
}

func TestAggregateSameIDDifferentSource(t *testing.T) {
	agg := NewAggregator(testLogger())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	blog := blogItem("shared", base)
	project := models.ActivityItem{
		ID:        "shared",
		Source:    models.SourceProject,
		Timestamp: base,
		Title:     "project shared",
	}

	out := agg.Aggregate([]models.ActivityItem{blog, project})
	if len(out) != 2 {
		t.Fatalf("items with the same id but different sources must both survive, got %d", len(out))
	}
}

func TestAggregateIdempotent(t *testing.T) {
	agg := NewAggregator(testLogger())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	input := []models.ActivityItem{
		blogItem("p1", base),
		githubItem("g1", "me/repo", base),
		githubItem("g2", "me/repo", base.Add(time.Hour)),
	}

	once := agg.Aggregate(input)
	twice := agg.Aggregate(once)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed item count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("item %d changed between passes: %q vs %q", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestThreadingRequiresTwoItems(t *testing.T) {
	agg := NewAggregator(testLogger())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	out := agg.Aggregate([]models.ActivityItem{githubItem("g1", "me/repo", base)})

	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}
	if out[0].IsThread {
		t.Error("a single event must not be wrapped in a thread")
	}
	if out[0].ID != "g1" {
		t.Errorf("expected original item, got %q", out[0].ID)
	}
}

func TestThreadingGroupsSameDayEvents(t *testing.T) {
	agg := NewAggregator(testLogger())
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	later := githubItem("g2", "me/repo", base.Add(3*time.Hour))
	later.Stats = &models.Stats{Stars: 2}
	earlier := githubItem("g1", "me/repo", base)
	earlier.Stats = &models.Stats{Stars: 1, Comments: 4}

	out := agg.Aggregate([]models.ActivityItem{later, earlier})

	if len(out) != 1 {
		t.Fatalf("expected 1 thread parent, got %d items", len(out))
	}
	parent := out[0]
	if !parent.IsThread {
		t.Fatal("expected a thread parent")
	}
	if parent.ID != "thread:me/repo:2026-08-01" {
		t.Errorf("unexpected thread id %q", parent.ID)
	}
	if !parent.Timestamp.Equal(later.Timestamp) {
		t.Errorf("parent timestamp should be the latest child's, got %v", parent.Timestamp)
	}
	if len(parent.Thread) != 2 || parent.Thread[0].ID != "g1" || parent.Thread[1].ID != "g2" {
		t.Errorf("children should be oldest first, got %+v", parent.Thread)
	}
	if parent.Stats == nil || parent.Stats.Stars != 3 || parent.Stats.Comments != 4 {
		t.Errorf("parent stats should sum children, got %+v", parent.Stats)
	}
}

func TestThreadingSplitsAcrossUTCDays(t *testing.T) {
	agg := NewAggregator(testLogger())

	// 23:30 and 00:30 the next day are one hour apart but different
	// UTC calendar days.
	night := githubItem("g1", "me/repo", time.Date(2026, 8, 1, 23, 30, 0, 0, time.UTC))
	morning := githubItem("g2", "me/repo", time.Date(2026, 8, 2, 0, 30, 0, 0, time.UTC))

	out := agg.Aggregate([]models.ActivityItem{night, morning})

	if len(out) != 2 {
		t.Fatalf("events on different UTC days must not thread, got %d items", len(out))
	}
	for _, item := range out {
		if item.IsThread {
			t.Errorf("unexpected thread parent %q", item.ID)
		}
	}
}

func TestThreadingSeparatesRepositories(t *testing.T) {
	agg := NewAggregator(testLogger())
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	out := agg.Aggregate([]models.ActivityItem{
		githubItem("g1", "me/alpha", base),
		githubItem("g2", "me/beta", base.Add(time.Hour)),
	})

	if len(out) != 2 {
		t.Fatalf("events on different repositories must not thread, got %d items", len(out))
	}
}

func TestAggregateBlogAndThreadedRepo(t *testing.T) {
	agg := NewAggregator(testLogger())
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	blog := blogItem("p1", base)
	blog.Stats = &models.Stats{Views: 100}
	b := githubItem("g1", "repo-x", base.Add(time.Minute))
	c := githubItem("g2", "repo-x", base.Add(2*time.Minute))

	out := agg.Aggregate([]models.ActivityItem{blog, b, c})

	if len(out) != 2 {
		t.Fatalf("expected 2 top-level items, got %d", len(out))
	}

	var parent *models.ActivityItem
	for i := range out {
		if out[i].IsThread {
			parent = &out[i]
		}
	}
	if parent == nil {
		t.Fatal("expected a thread parent for repo-x")
	}
	if len(parent.Thread) != 2 || parent.Thread[0].ID != "g1" || parent.Thread[1].ID != "g2" {
		t.Errorf("expected children [g1 g2], got %+v", parent.Thread)
	}
}
