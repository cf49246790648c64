package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/pulsefeed/pulse/internal/api"
	"github.com/pulsefeed/pulse/internal/cache"
	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/feed"
	"github.com/pulsefeed/pulse/internal/logging"
	"github.com/pulsefeed/pulse/internal/metrics"
	"github.com/pulsefeed/pulse/internal/scheduler"
	"github.com/pulsefeed/pulse/internal/server"
	"github.com/pulsefeed/pulse/internal/sources"
	"log/slog"
)

func main() {
	// Optional local overrides; production runs from real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting pulse")

	// Counter cache. A down Redis degrades to an in-process store so
	// the feed still serves; counters just reset on restart.
	var store cache.Store
	redisStore, err := cache.NewRedisStore(cfg.Cache, logger)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory counters", "error", err)
		store = cache.NewMemoryStore(cfg.Cache.CounterTTL)
	} else {
		logger.Info("redis connected", "addr", cfg.Cache.RedisAddr)
		store = redisStore
	}
	defer store.Close()

	// Optional analytics database.
	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("failed to open analytics database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Warn("analytics database unreachable, disabling analytics adapters", "error", err)
			db.Close()
			db = nil
		} else {
			logger.Info("analytics database connected")
		}
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	adapters := buildAdapters(cfg, store, db, logger)
	logger.Info("adapters registered", "count", len(adapters))

	fetcher := sources.NewFetcher(adapters, sources.FetcherConfig{
		AdapterTimeout:    cfg.Pipeline.AdapterTimeout,
		ConcurrentFetches: cfg.Pipeline.ConcurrentFetches,
	}, logger, collector)

	detector := feed.NewTrendingDetector(store, cfg.Ranking, logger)
	pipeline := feed.NewPipeline(fetcher, feed.NewAggregator(logger), feed.NewRanker(cfg.Ranking), detector, store, collector, logger)
	holder := feed.NewHolder()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial build so the API does not serve 503 longer than needed.
	if result, err := pipeline.Build(ctx); err != nil {
		logger.Error("initial feed build failed", "error", err)
	} else {
		holder.Publish(result)
	}

	refreshScheduler := scheduler.NewRefreshScheduler(pipeline, holder, cfg.Pipeline.RefreshInterval, logger)
	go refreshScheduler.Start(ctx)

	snapshotScheduler := scheduler.NewSnapshotScheduler(store, holder, cfg.Pipeline.SnapshotInterval, logger)
	go snapshotScheduler.Start(ctx)

	mux := http.NewServeMux()
	api.SetupRoutes(mux, holder, store, &cfg, collector, logger)

	srv := server.New(cfg.Server, logger, mux)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("pulse started", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	refreshScheduler.Stop()
	snapshotScheduler.Stop()
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// buildAdapters registers every source whose configuration is present.
// Missing configuration disables a source instead of failing startup.
func buildAdapters(cfg config.Config, store cache.Store, db *sql.DB, logger *slog.Logger) []sources.Adapter {
	var adapters []sources.Adapter

	if cfg.Blog.FeedURL != "" {
		adapters = append(adapters, sources.NewBlogAdapter(cfg.Blog.FeedURL, logger))
	} else {
		logger.Warn("BLOG_FEED_URL not set, blog adapter disabled")
	}

	if cfg.GitHub.User != "" {
		adapters = append(adapters, sources.NewGitHubAdapter(cfg.GitHub, logger))
	} else {
		logger.Warn("GITHUB_USER not set, github adapter disabled")
	}
	if len(cfg.GitHub.TrafficRepos) > 0 && cfg.GitHub.Token != "" {
		adapters = append(adapters, sources.NewGitHubTrafficAdapter(cfg.GitHub, logger))
	}

	if cfg.Content.Dir != "" {
		adapters = append(adapters,
			sources.NewProjectsAdapter(cfg.Content.Dir),
			sources.NewCertificationsAdapter(cfg.Content.Dir),
			sources.NewChangelogAdapter(cfg.Content.Dir),
		)
	}

	adapters = append(adapters,
		sources.NewEngagementAdapter(store, cfg.Pipeline.RecentEventLimit),
		sources.NewMilestoneAdapter(store, cfg.Pipeline.RecentEventLimit),
	)

	if db != nil {
		adapters = append(adapters,
			sources.NewAnalyticsAdapter(db),
			sources.NewSEOAdapter(db),
		)
	}

	return adapters
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
