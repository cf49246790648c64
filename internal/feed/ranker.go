package feed

import (
	"math"
	"sort"
	"time"

	"github.com/pulsefeed/pulse/internal/config"
	"github.com/pulsefeed/pulse/internal/models"
)

// RankedItem pairs an activity item with its computed score.
type RankedItem struct {
	models.ActivityItem
	Score float64 `json:"score"`
}

// Ranker assigns composite scores and orders the feed. Coefficients
// come from configuration so rollout tuning never needs a rebuild.
type Ranker struct {
	cfg config.RankingConfig
	now func() time.Time
}

// NewRanker creates a ranker using the given coefficients.
func NewRanker(cfg config.RankingConfig) *Ranker {
	return &Ranker{cfg: cfg, now: time.Now}
}

// Rank scores every item and returns them ordered by score descending.
// Ties break on timestamp descending, then id ascending, so repeated
// runs over the same input produce identical output.
func (r *Ranker) Rank(items []models.ActivityItem) []RankedItem {
	now := r.now()
	ranked := make([]RankedItem, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, RankedItem{
			ActivityItem: item,
			Score:        r.score(item, now),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].Timestamp.Equal(ranked[j].Timestamp) {
			return ranked[i].Timestamp.After(ranked[j].Timestamp)
		}
		return ranked[i].ID < ranked[j].ID
	})

	return ranked
}

func (r *Ranker) score(item models.ActivityItem, now time.Time) float64 {
	score := r.recencyWeight(item.Timestamp, now)
	if item.Stats != nil {
		score += r.engagementWeight(*item.Stats)
	}
	switch item.TrendingWindow {
	case models.TrendingWeekly:
		score += r.cfg.WeeklyBoost
	case models.TrendingMonthly:
		score += r.cfg.MonthlyBoost
	}
	return score
}

// recencyWeight decays exponentially with age, halving once per
// half-life. Items timestamped in the future clamp to the maximum
// rather than growing without bound, and very old items decay toward
// zero without going negative.
func (r *Ranker) recencyWeight(ts, now time.Time) float64 {
	ageHours := now.Sub(ts).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return r.cfg.RecencyMax * math.Exp2(-ageHours/r.cfg.HalfLife.Hours())
}

func (r *Ranker) engagementWeight(stats models.Stats) float64 {
	return float64(stats.Views)*r.cfg.ViewWeight +
		float64(stats.Likes)*r.cfg.LikeWeight +
		float64(stats.Stars)*r.cfg.StarWeight +
		float64(stats.Comments)*r.cfg.CommentWeight +
		float64(stats.Bookmarks)*r.cfg.BookmarkWeight
}
