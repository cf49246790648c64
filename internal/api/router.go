package api

import (
	"log/slog"
	"net/http"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/metrics"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, feeds FeedProvider, store cache.Store, cfg *config.Config, collector *metrics.Collector, logger *slog.Logger) {
	handler := NewHandler(feeds, store, cfg, logger)

	instrument := func(path string, fn http.HandlerFunc) {
		mux.Handle(path, collector.InstrumentHandler(fn))
	}

	// Feed routes (public)
	instrument("/api/feed", handler.GetFeedHandler)
	instrument("/api/feed/sources", handler.GetSourcesHandler)
	instrument("/api/search", handler.SearchHandler)

	// Engagement tracking
	instrument("/api/track", handler.TrackHandler)

	// Operational routes
	instrument("/api/stats", handler.GetStatsHandler)
	mux.HandleFunc("/health", handler.HealthHandler)
	mux.Handle("/metrics", collector.Handler())
}
