package feed

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/pulsefeed/pulse/internal/models"
)

// Aggregator merges adapter outputs into one deduplicated, threaded
// collection. It holds no state between passes.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate deduplicates on (source, id) and threads same-day GitHub
// events per repository. Input order is arbitrary; output order is
// owned by the ranker downstream.
func (a *Aggregator) Aggregate(items []models.ActivityItem) []models.ActivityItem {
	deduped := a.dedupe(items)
	return a.thread(deduped)
}

// dedupe collapses items sharing a (source, id) key. When two items
// conflict the later one in input order wins; adapters are the sole
// source of truth per id, so a conflict is an upstream bug worth a
// log line but never a crash.
func (a *Aggregator) dedupe(items []models.ActivityItem) []models.ActivityItem {
	seen := make(map[string]int, len(items))
	out := make([]models.ActivityItem, 0, len(items))

	for _, item := range items {
		key := item.Key()
		if idx, ok := seen[key]; ok {
			if out[idx].Title != item.Title || !out[idx].Timestamp.Equal(item.Timestamp) {
				a.logger.Warn("duplicate key with conflicting content, keeping later item", "key", key)
			}
			out[idx] = item
			continue
		}
		seen[key] = len(out)
		out = append(out, item)
	}

	return out
}

// thread groups GitHub items sharing a repositoryKey within one UTC
// calendar day under a synthetic parent. Threading only activates at
// two or more qualifying items; a lone event passes through unwrapped.
func (a *Aggregator) thread(items []models.ActivityItem) []models.ActivityItem {
	type groupKey struct {
		repository string
		day        string
	}

	groups := make(map[groupKey][]models.ActivityItem)
	order := make([]models.ActivityItem, 0, len(items))

	for _, item := range items {
		if item.Source == models.SourceGitHub && item.RepositoryKey != "" && !item.IsThread {
			key := groupKey{
				repository: item.RepositoryKey,
				day:        item.Timestamp.UTC().Format("2006-01-02"),
			}
			groups[key] = append(groups[key], item)
			continue
		}
		order = append(order, item)
	}

	// Deterministic iteration keeps repeated passes byte-identical.
	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].repository != keys[j].repository {
			return keys[i].repository < keys[j].repository
		}
		return keys[i].day < keys[j].day
	})

	for _, key := range keys {
		children := groups[key]
		if len(children) == 1 {
			order = append(order, children[0])
			continue
		}

		sort.Slice(children, func(i, j int) bool {
			if !children[i].Timestamp.Equal(children[j].Timestamp) {
				return children[i].Timestamp.Before(children[j].Timestamp)
			}
			return children[i].ID < children[j].ID
		})

		order = append(order, buildThreadParent(key.repository, key.day, children))
	}

	return order
}

// buildThreadParent synthesizes the collapsible parent for a group of
// same-day events on one repository. The parent inherits the latest
// child timestamp, the summed engagement of children that report any,
// and the strongest trending window among its children.
func buildThreadParent(repository, day string, children []models.ActivityItem) models.ActivityItem {
	latest := children[len(children)-1].Timestamp

	var stats *models.Stats
	var window models.TrendingWindow
	for _, child := range children {
		if child.TrendingWindow == models.TrendingWeekly || (child.TrendingWindow == models.TrendingMonthly && window == "") {
			window = child.TrendingWindow
		}
		if child.Stats == nil {
			continue
		}
		if stats == nil {
			stats = &models.Stats{}
		}
		stats.Add(*child.Stats)
	}

	tags := uniqueTags(children)

	return models.ActivityItem{
		ID:             fmt.Sprintf("thread:%s:%s", repository, day),
		Source:         models.SourceGitHub,
		Timestamp:      latest,
		Title:          fmt.Sprintf("%d updates to %s", len(children), repository),
		Tags:           tags,
		Stats:          stats,
		RepositoryKey:  repository,
		TrendingWindow: window,
		Thread:         children,
		IsThread:       true,
	}
}

func uniqueTags(items []models.ActivityItem) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, item := range items {
		for _, tag := range item.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
