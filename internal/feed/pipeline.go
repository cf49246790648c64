package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/metrics"
	"github.com/pulsefeed/pulse/internal/models"
	"github.com/pulsefeed/pulse/internal/search"
	"github.com/pulsefeed/pulse/internal/sources"
)

// Result is one fully built feed: ranked items, their search index,
// and the bookkeeping of the pass that produced them. A Result is
// immutable once published to the Holder.
type Result struct {
	Items        []RankedItem
	Index        *search.Index
	SourceCounts map[models.Source]int
	Failures     map[string]error
	BuiltAt      time.Time
	Duration     time.Duration
}

// Pipeline runs the full aggregation pass: fetch from every adapter,
// drop malformed items, dedupe and thread, enrich with live counters,
// detect trending, rank, and index.
type Pipeline struct {
	fetcher    *sources.Fetcher
	aggregator *Aggregator
	ranker     *Ranker
	detector   *TrendingDetector
	store      cache.Store
	metrics    *metrics.Collector
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline wires a pipeline from its stages. store and detector may
// be nil; the pass then runs without counter enrichment or trending.
func NewPipeline(fetcher *sources.Fetcher, aggregator *Aggregator, ranker *Ranker, detector *TrendingDetector, store cache.Store, collector *metrics.Collector, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		aggregator: aggregator,
		ranker:     ranker,
		detector:   detector,
		store:      store,
		metrics:    collector,
		logger:     logger,
		now:        time.Now,
	}
}

// Build runs one pass and returns the feed. An empty feed is a valid
// result; only a context-level failure surfaces as an error.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	start := p.now()

	fetched := p.fetcher.FetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("feed build canceled: %w", err)
	}

	valid := p.validate(fetched.Items)

	// Enrich and detect trending per item before threading, so counters
	// recorded against an individual event still land in its stats (and
	// in the parent sum) once the aggregator folds it into a thread.
	for i := range valid {
		p.enrich(ctx, &valid[i])
	}
	for i := range valid {
		p.flagTrending(ctx, &valid[i])
	}

	aggregated := p.aggregator.Aggregate(valid)

	// Synthetic thread parents get their own pass; their content keys
	// did not exist before aggregation.
	for i := range aggregated {
		if !aggregated[i].IsThread {
			continue
		}
		p.enrich(ctx, &aggregated[i])
		p.flagTrending(ctx, &aggregated[i])
	}

	if digest, ok := p.trendingDigest(aggregated, start); ok {
		aggregated = append(aggregated, digest)
	}

	ranked := p.ranker.Rank(aggregated)

	result := &Result{
		Items:        ranked,
		Index:        search.Build(aggregated),
		SourceCounts: countBySource(aggregated),
		Failures:     fetched.Failures,
		BuiltAt:      start,
		Duration:     time.Since(start),
	}

	p.metrics.ObserveBuild(result.Duration, len(ranked))
	p.logger.Info("feed built",
		"items", len(ranked),
		"sources", len(result.SourceCounts),
		"failures", len(fetched.Failures),
		"duration", result.Duration,
	)

	return result, nil
}

// validate drops items that fail structural validation. A single bad
// item from one adapter must never take down the whole pass.
func (p *Pipeline) validate(items []models.ActivityItem) []models.ActivityItem {
	valid := make([]models.ActivityItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			p.logger.Warn("dropping malformed item", "key", item.Key(), "error", err)
			continue
		}
		valid = append(valid, item)
	}
	return valid
}

// enrich overlays live engagement counters onto the item. Counters in
// the store reflect reader activity recorded after the adapter's data
// was published, so a present counter wins over the adapter's number.
// An unreachable store leaves the adapter stats untouched.
func (p *Pipeline) enrich(ctx context.Context, item *models.ActivityItem) {
	if p.store == nil {
		return
	}
	counts, ok := p.store.Counts(ctx, item.Key())
	if !ok {
		return
	}

	if item.Stats == nil {
		item.Stats = &models.Stats{}
	}
	if counts.Views > 0 {
		item.Stats.Views = counts.Views
	}
	if counts.Likes > 0 {
		item.Stats.Likes = counts.Likes
	}
	if counts.Stars > 0 {
		item.Stats.Stars = counts.Stars
	}
	if counts.Comments > 0 {
		item.Stats.Comments = counts.Comments
	}
	if counts.Bookmarks > 0 {
		item.Stats.Bookmarks = counts.Bookmarks
	}
}

func (p *Pipeline) flagTrending(ctx context.Context, item *models.ActivityItem) {
	if p.detector == nil {
		return
	}
	item.TrendingWindow = p.detector.Detect(ctx, *item)
}

// trendingDigest synthesizes one summary item when anything in the
// feed is trending, so the presentation layer gets a ready-made
// "trending now" entry without recomputing windows.
func (p *Pipeline) trendingDigest(items []models.ActivityItem, builtAt time.Time) (models.ActivityItem, bool) {
	var titles []string
	for _, item := range items {
		if item.TrendingWindow != "" {
			titles = append(titles, item.Title)
		}
	}
	if len(titles) == 0 {
		return models.ActivityItem{}, false
	}

	description := titles[0]
	if len(titles) > 1 {
		description = fmt.Sprintf("%s and %d more", titles[0], len(titles)-1)
	}

	return models.ActivityItem{
		ID:          fmt.Sprintf("digest:%s", builtAt.UTC().Format("2006-01-02")),
		Source:      models.SourceTrending,
		Timestamp:   builtAt,
		Title:       fmt.Sprintf("%d trending now", len(titles)),
		Description: description,
	}, true
}

func countBySource(items []models.ActivityItem) map[models.Source]int {
	counts := make(map[models.Source]int)
	for _, item := range items {
		counts[item.Source]++
	}
	return counts
}

// Holder publishes the latest Result to concurrent readers. Writers
// swap the whole pointer so readers never observe a half-built feed.
type Holder struct {
	mu      sync.RWMutex
	current *Result
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the most recently published result, or nil before
// the first build completes.
func (h *Holder) Current() *Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Publish replaces the current result.
func (h *Holder) Publish(result *Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = result
}
