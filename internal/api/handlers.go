package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/feed"
)

// FeedProvider serves the most recently built feed.
type FeedProvider interface {
	Current() *feed.Result
}

type Handler struct {
	feeds     FeedProvider
	store     cache.Store
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time
}

func NewHandler(feeds FeedProvider, store cache.Store, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		feeds:     feeds,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetFeedHandler handles GET /api/feed
func (h *Handler) GetFeedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.feeds.Current()
	if result == nil {
		http.Error(w, "Feed not ready", http.StatusServiceUnavailable)
		return
	}

	limit := h.parseLimit(r)
	page := feed.Paginate(result.Items, r.URL.Query().Get("cursor"), limit)

	writeJSON(w, h.logger, FeedResponse{
		Items:      page.Items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
		BuiltAt:    result.BuiltAt,
	})
}

// GetSourcesHandler handles GET /api/feed/sources
func (h *Handler) GetSourcesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.feeds.Current()
	if result == nil {
		http.Error(w, "Feed not ready", http.StatusServiceUnavailable)
		return
	}

	total := 0
	for _, count := range result.SourceCounts {
		total += count
	}

	writeJSON(w, h.logger, SourcesResponse{
		Sources: result.SourceCounts,
		Total:   total,
	})
}

// SearchHandler handles GET /api/search
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "Query parameter q required", http.StatusBadRequest)
		return
	}

	result := h.feeds.Current()
	if result == nil {
		http.Error(w, "Feed not ready", http.StatusServiceUnavailable)
		return
	}

	matched := make(map[string]bool)
	for _, id := range result.Index.Query(query) {
		matched[id] = true
	}

	// Walk the ranked list so results come back in feed order.
	items := make([]feed.RankedItem, 0, len(matched))
	for _, item := range result.Items {
		if matched[item.ID] {
			items = append(items, item)
		}
	}

	writeJSON(w, h.logger, SearchResponse{
		Query: query,
		Items: items,
		Count: len(items),
	})
}

// TrackHandler handles POST /api/track
func (h *Handler) TrackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	metric := cache.Metric(req.Metric)
	if !metric.Valid() {
		http.Error(w, fmt.Sprintf("Unknown metric %q", req.Metric), http.StatusBadRequest)
		return
	}
	if req.ContentKey == "" || !strings.Contains(req.ContentKey, ":") {
		http.Error(w, "contentKey must be source:id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	count, err := h.store.Increment(ctx, req.ContentKey, metric, 1)
	if err != nil {
		h.logger.Error("failed to increment counter", "key", req.ContentKey, "metric", metric, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.store.AppendEvent(ctx, cache.ListEngagement, cache.Event{
		ID:         uuid.New().String(),
		Kind:       string(metric),
		ContentKey: req.ContentKey,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		h.logger.Warn("failed to record engagement event", "key", req.ContentKey, "error", err)
	}

	milestone := h.recordMilestone(r, req.ContentKey, metric, count)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeBody(w, h.logger, TrackResponse{
		ContentKey: req.ContentKey,
		Metric:     req.Metric,
		Count:      count,
		Milestone:  milestone,
	})
}

// recordMilestone flags the highest configured threshold the counter
// just crossed, if any. Crossing is detected against the flag set, not
// the previous count, so a missed request cannot skip a milestone.
func (h *Handler) recordMilestone(r *http.Request, key string, metric cache.Metric, count int64) int64 {
	ctx := r.Context()

	flagged := make(map[int64]bool)
	if existing, ok := h.store.MilestoneFlags(ctx, key); ok {
		for _, threshold := range existing {
			flagged[threshold] = true
		}
	}

	var crossed int64
	for _, threshold := range h.cfg.Pipeline.MilestoneThresholds {
		if count < threshold || flagged[threshold] {
			continue
		}
		if err := h.store.SetMilestoneFlag(ctx, key, threshold); err != nil {
			h.logger.Warn("failed to flag milestone", "key", key, "threshold", threshold, "error", err)
			continue
		}
		if err := h.store.AppendEvent(ctx, cache.ListMilestones, cache.Event{
			ID:         uuid.New().String(),
			Kind:       string(metric),
			ContentKey: key,
			Threshold:  threshold,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			h.logger.Warn("failed to record milestone event", "key", key, "error", err)
		}
		crossed = threshold
	}
	return crossed
}

// GetStatsHandler handles GET /api/stats
func (h *Handler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.feeds.Current()
	if result == nil {
		http.Error(w, "Feed not ready", http.StatusServiceUnavailable)
		return
	}

	uptime := time.Since(h.startTime)
	uptimeSeconds := int64(uptime.Seconds())
	hours := int64(uptime.Hours())
	minutes := int64(uptime.Minutes()) % 60
	seconds := uptimeSeconds % 60

	var failed []string
	for name := range result.Failures {
		failed = append(failed, name)
	}
	sort.Strings(failed)

	writeJSON(w, h.logger, StatsResponse{
		TotalItems:      len(result.Items),
		SourceCounts:    result.SourceCounts,
		FailedAdapters:  failed,
		BuiltAt:         result.BuiltAt,
		BuildDuration:   result.Duration.String(),
		UptimeSeconds:   uptimeSeconds,
		UptimeFormatted: fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
	})
}

// HealthHandler handles GET /health
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	cacheUp := false
	if h.store != nil && h.store.Ping(r.Context()) == nil {
		cacheUp = true
	}

	writeJSON(w, h.logger, HealthResponse{
		Status:    "ok",
		FeedReady: h.feeds.Current() != nil,
		CacheUp:   cacheUp,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

func (h *Handler) parseLimit(r *http.Request) int {
	limit := h.cfg.Pipeline.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			limit = val
		}
	}
	if limit > h.cfg.Pipeline.MaxPageSize {
		limit = h.cfg.Pipeline.MaxPageSize
	}
	return limit
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	writeBody(w, logger, payload)
}

func writeBody(w http.ResponseWriter, logger *slog.Logger, payload any) {
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
