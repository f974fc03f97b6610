// Package thresholds holds per-developer-level detection thresholds and the
// logic that checks daily metrics against them.
package thresholds

import (
	"github.com/reviewsense/reviewsense/internal/models"
)

// Config is a snapshot of the numeric thresholds for one experience level.
// Values returned by the manager are copies; mutating them never affects the
// active configuration.
type Config struct {
	// BlindApprovalTime is the acceptance delta (ms) below which an accepted
	// suggestion is considered approved without review.
	BlindApprovalTime int64 `json:"blind_approval_time" yaml:"blind_approval_time"`

	// MaxAIPercentage is the acceptable share of AI-generated code per day.
	MaxAIPercentage float64 `json:"max_ai_percentage" yaml:"max_ai_percentage"`

	// MinReviewTime is the floor (ms) for an adequate review regardless of size.
	MinReviewTime int64 `json:"min_review_time" yaml:"min_review_time"`

	// StreakThreshold is how many consecutive rapid acceptances count as a streak.
	StreakThreshold int `json:"streak_threshold" yaml:"streak_threshold"`
}

// Bounds for the clamping setters. Out-of-range input is clamped, not rejected.
const (
	MinBlindApprovalTime = int64(500)
	MaxBlindApprovalTime = int64(10_000)
	MinAIPercentage      = 20.0
	MaxAIPercentage      = 100.0
	MinReviewTimeFloor   = int64(500)
	MaxReviewTimeFloor   = int64(30_000)
	MinStreakThreshold   = 2
	MaxStreakThreshold   = 10
)

// levelDefaults holds the hard-coded preset for each experience level.
// Juniors get the strictest treatment: a longer blind-approval window (more
// acceptances flagged), a lower acceptable AI share, a higher review-time
// floor, and a shorter streak before nudging. Seniors the inverse.
var levelDefaults = map[models.ExperienceLevel]Config{
	models.LevelJunior: {
		BlindApprovalTime: 5000,
		MaxAIPercentage:   50,
		MinReviewTime:     3000,
		StreakThreshold:   3,
	},
	models.LevelMid: {
		BlindApprovalTime: 3000,
		MaxAIPercentage:   70,
		MinReviewTime:     2000,
		StreakThreshold:   4,
	},
	models.LevelSenior: {
		BlindApprovalTime: 2000,
		MaxAIPercentage:   85,
		MinReviewTime:     1000,
		StreakThreshold:   5,
	},
}

// RecommendedThresholds returns the preset for a level. Unknown levels fall
// back to the mid preset.
func RecommendedThresholds(level models.ExperienceLevel) Config {
	if cfg, ok := levelDefaults[level]; ok {
		return cfg
	}
	return levelDefaults[models.LevelMid]
}

// AllLevelThresholds returns a copy of every level preset.
func AllLevelThresholds() map[models.ExperienceLevel]Config {
	out := make(map[models.ExperienceLevel]Config, len(levelDefaults))
	for level, cfg := range levelDefaults {
		out[level] = cfg
	}
	return out
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
