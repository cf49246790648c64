package sources

import (
	"context"
	"sync"
	"time"

	"github.com/pulsefeed/pulse/internal/metrics"
	"github.com/pulsefeed/pulse/internal/models"

	"log/slog"
)

// FetcherConfig holds fan-out parameters.
type FetcherConfig struct {
	// AdapterTimeout bounds each individual fetch so one slow source
	// cannot stall the whole aggregation.
	AdapterTimeout time.Duration

	// ConcurrentFetches caps how many adapters run at once.
	ConcurrentFetches int
}

// DefaultFetcherConfig returns sensible defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		AdapterTimeout:    5 * time.Second,
		ConcurrentFetches: 4,
	}
}

// FetchResult is the fan-in outcome of one fetch pass. A failed
// adapter contributes no items and an entry in Failures; the pass
// itself never fails.
type FetchResult struct {
	Items    []models.ActivityItem
	Failures map[string]error
	Duration time.Duration
}

// Fetcher fans out fetches across all registered adapters and joins
// the results. Adapters are independent, so completion order is
// arbitrary; ordering of the final feed is owned by the ranker.
type Fetcher struct {
	adapters []Adapter
	config   FetcherConfig
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewFetcher creates a fetcher over the given adapters.
func NewFetcher(adapters []Adapter, config FetcherConfig, logger *slog.Logger, collector *metrics.Collector) *Fetcher {
	if config.AdapterTimeout <= 0 {
		config.AdapterTimeout = DefaultFetcherConfig().AdapterTimeout
	}
	if config.ConcurrentFetches <= 0 {
		config.ConcurrentFetches = DefaultFetcherConfig().ConcurrentFetches
	}

	return &Fetcher{
		adapters: adapters,
		config:   config,
		logger:   logger,
		metrics:  collector,
	}
}

// Adapters returns the registered adapters.
func (f *Fetcher) Adapters() []Adapter {
	return f.adapters
}

// FetchAll runs every adapter concurrently with an individual timeout
// and collects the combined items. A failing or timed-out adapter is
// logged and recorded in Failures, and the remaining sources still
// contribute: partial failure degrades the feed, it never aborts it.
func (f *Fetcher) FetchAll(ctx context.Context) FetchResult {
	start := time.Now()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		items     []models.ActivityItem
		failures  = make(map[string]error)
		semaphore = make(chan struct{}, f.config.ConcurrentFetches)
	)

	for _, adapter := range f.adapters {
		wg.Add(1)

		go func(adapter Adapter) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fetchCtx, cancel := context.WithTimeout(ctx, f.config.AdapterTimeout)
			defer cancel()

			fetchStart := time.Now()
			fetched, err := adapter.Fetch(fetchCtx)
			elapsed := time.Since(fetchStart)

			f.metrics.ObserveFetch(adapter.Name(), elapsed, len(fetched), err != nil)

			if err != nil {
				f.logger.Warn("adapter fetch failed, substituting empty result",
					"adapter", adapter.Name(),
					"source", adapter.Source(),
					"duration", elapsed,
					"error", err,
				)
				mu.Lock()
				failures[adapter.Name()] = err
				mu.Unlock()
				return
			}

			f.logger.Debug("adapter fetch completed",
				"adapter", adapter.Name(),
				"items", len(fetched),
				"duration", elapsed,
			)

			mu.Lock()
			items = append(items, fetched...)
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()

	return FetchResult{
		Items:    items,
		Failures: failures,
		Duration: time.Since(start),
	}
}
