package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Cache    CacheConfig
	Database DatabaseConfig
	GitHub   GitHubConfig
	Blog     BlogConfig
	Content  ContentConfig
	Ranking  RankingConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// CacheConfig holds connection settings for the counter cache.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CounterTTL    time.Duration
}

// DatabaseConfig holds the analytics database connection. An empty URL
// disables the analytics and SEO adapters.
type DatabaseConfig struct {
	URL string
}

// GitHubConfig holds GitHub API settings for the event and traffic adapters.
type GitHubConfig struct {
	User         string
	Token        string
	APIBase      string
	TrafficRepos []string
}

// BlogConfig holds the blog adapter settings. An empty feed URL
// disables the adapter.
type BlogConfig struct {
	FeedURL string
}

// ContentConfig locates the static content files (projects,
// certifications, changelog).
type ContentConfig struct {
	Dir string
}

// RankingConfig holds the scoring coefficients. The exact values are
// deployment tuning, not behavior; only the shape of the formula is
// contractual.
type RankingConfig struct {
	HalfLife         time.Duration
	RecencyMax       float64
	ViewWeight       float64
	LikeWeight       float64
	StarWeight       float64
	CommentWeight    float64
	BookmarkWeight   float64
	WeeklyBoost      float64
	MonthlyBoost     float64
	WeeklyThreshold  int64
	MonthlyThreshold int64
}

// PipelineConfig holds fan-out and background refresh parameters.
type PipelineConfig struct {
	AdapterTimeout      time.Duration
	ConcurrentFetches   int
	RefreshInterval     time.Duration
	SnapshotInterval    time.Duration
	RecentEventLimit    int
	MilestoneThresholds []int64
	DefaultPageSize     int
	MaxPageSize         int
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultRedisAddr  = "localhost:6379"
	defaultCounterTTL = 6 * time.Hour

	defaultGitHubAPIBase = "https://api.github.com"

	defaultContentDir = "./content"

	defaultHalfLife         = 72 * time.Hour
	defaultRecencyMax       = 100.0
	defaultViewWeight       = 0.1
	defaultLikeWeight       = 2.0
	defaultStarWeight       = 3.0
	defaultCommentWeight    = 4.0
	defaultBookmarkWeight   = 2.5
	defaultWeeklyBoost      = 50.0
	defaultMonthlyBoost     = 20.0
	defaultWeeklyThreshold  = 25
	defaultMonthlyThreshold = 100

	defaultAdapterTimeout    = 5 * time.Second
	defaultConcurrentFetches = 4
	defaultRefreshInterval   = 5 * time.Minute
	defaultSnapshotInterval  = 1 * time.Hour
	defaultRecentEventLimit  = 25
	defaultPageSize          = 20
	defaultMaxPageSize       = 100
)

var defaultMilestoneThresholds = []int64{10, 25, 50, 100, 250, 500, 1000}

// Load reads configuration from environment variables, applying defaults when
// values are not provided.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Cache: CacheConfig{
			RedisAddr:     getEnv("REDIS_ADDR", defaultRedisAddr),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			CounterTTL:    defaultCounterTTL,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("ANALYTICS_DATABASE_URL"),
		},
		GitHub: GitHubConfig{
			User:         os.Getenv("GITHUB_USER"),
			Token:        os.Getenv("GITHUB_TOKEN"),
			APIBase:      getEnv("GITHUB_API_BASE", defaultGitHubAPIBase),
			TrafficRepos: parseList(os.Getenv("GITHUB_TRAFFIC_REPOS")),
		},
		Blog: BlogConfig{
			FeedURL: os.Getenv("BLOG_FEED_URL"),
		},
		Content: ContentConfig{
			Dir: getEnv("CONTENT_DIR", defaultContentDir),
		},
		Ranking: RankingConfig{
			HalfLife:         defaultHalfLife,
			RecencyMax:       defaultRecencyMax,
			ViewWeight:       defaultViewWeight,
			LikeWeight:       defaultLikeWeight,
			StarWeight:       defaultStarWeight,
			CommentWeight:    defaultCommentWeight,
			BookmarkWeight:   defaultBookmarkWeight,
			WeeklyBoost:      defaultWeeklyBoost,
			MonthlyBoost:     defaultMonthlyBoost,
			WeeklyThreshold:  defaultWeeklyThreshold,
			MonthlyThreshold: defaultMonthlyThreshold,
		},
		Pipeline: PipelineConfig{
			AdapterTimeout:      defaultAdapterTimeout,
			ConcurrentFetches:   defaultConcurrentFetches,
			RefreshInterval:     defaultRefreshInterval,
			SnapshotInterval:    defaultSnapshotInterval,
			RecentEventLimit:    defaultRecentEventLimit,
			MilestoneThresholds: defaultMilestoneThresholds,
			DefaultPageSize:     defaultPageSize,
			MaxPageSize:         defaultMaxPageSize,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := parseNonNegativeInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.Cache.RedisDB = n
	}

	if v := os.Getenv("COUNTER_TTL_HOURS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COUNTER_TTL_HOURS: %w", err)
		}
		cfg.Cache.CounterTTL = time.Duration(n) * time.Hour
	}

	if v := os.Getenv("RANK_HALF_LIFE_HOURS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RANK_HALF_LIFE_HOURS: %w", err)
		}
		cfg.Ranking.HalfLife = time.Duration(n) * time.Hour
	}

	floatOverrides := []struct {
		env    string
		target *float64
	}{
		{"RANK_RECENCY_MAX", &cfg.Ranking.RecencyMax},
		{"RANK_VIEW_WEIGHT", &cfg.Ranking.ViewWeight},
		{"RANK_LIKE_WEIGHT", &cfg.Ranking.LikeWeight},
		{"RANK_STAR_WEIGHT", &cfg.Ranking.StarWeight},
		{"RANK_COMMENT_WEIGHT", &cfg.Ranking.CommentWeight},
		{"RANK_BOOKMARK_WEIGHT", &cfg.Ranking.BookmarkWeight},
		{"RANK_WEEKLY_BOOST", &cfg.Ranking.WeeklyBoost},
		{"RANK_MONTHLY_BOOST", &cfg.Ranking.MonthlyBoost},
	}
	for _, o := range floatOverrides {
		if v := os.Getenv(o.env); v != "" {
			f, err := parseNonNegativeFloat(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", o.env, err)
			}
			*o.target = f
		}
	}

	if v := os.Getenv("TREND_WEEKLY_THRESHOLD"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TREND_WEEKLY_THRESHOLD: %w", err)
		}
		cfg.Ranking.WeeklyThreshold = int64(n)
	}

	if v := os.Getenv("TREND_MONTHLY_THRESHOLD"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TREND_MONTHLY_THRESHOLD: %w", err)
		}
		cfg.Ranking.MonthlyThreshold = int64(n)
	}

	if v := os.Getenv("ADAPTER_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ADAPTER_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Pipeline.AdapterTimeout = d
	}

	if v := os.Getenv("CONCURRENT_FETCHES"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CONCURRENT_FETCHES: %w", err)
		}
		cfg.Pipeline.ConcurrentFetches = n
	}

	if v := os.Getenv("REFRESH_INTERVAL_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REFRESH_INTERVAL_SECONDS: %w", err)
		}
		cfg.Pipeline.RefreshInterval = d
	}

	if v := os.Getenv("SNAPSHOT_INTERVAL_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SNAPSHOT_INTERVAL_SECONDS: %w", err)
		}
		cfg.Pipeline.SnapshotInterval = d
	}

	if v := os.Getenv("MILESTONE_THRESHOLDS"); v != "" {
		thresholds, err := parseThresholds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MILESTONE_THRESHOLDS: %w", err)
		}
		cfg.Pipeline.MilestoneThresholds = thresholds
	}

	if v := os.Getenv("DEFAULT_PAGE_SIZE"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEFAULT_PAGE_SIZE: %w", err)
		}
		cfg.Pipeline.DefaultPageSize = n
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func parseNonNegativeInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return n, nil
}

func parseNonNegativeFloat(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("must be a non-negative number")
	}
	return f, nil
}

func parseThresholds(raw string) ([]int64, error) {
	parts := parseList(raw)
	if len(parts) == 0 {
		return nil, fmt.Errorf("must be a comma-separated list of integers")
	}
	thresholds := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("must be a comma-separated list of positive integers")
		}
		thresholds = append(thresholds, n)
	}
	return thresholds, nil
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
