package thresholds

import (
	"fmt"

	"github.com/reviewsense/reviewsense/internal/models"
)

// Manager holds the active threshold configuration for one developer.
// Setting the level discards any custom overrides and reapplies that level's
// defaults; individual setters clamp into the documented bounds.
type Manager struct {
	level  models.ExperienceLevel
	config Config
}

// MetricsCheck is the result of comparing a day's metrics to the thresholds.
// Boundary semantics are strict: equal-to-threshold is not a violation.
type MetricsCheck struct {
	AIPercentageExceeded bool `json:"ai_percentage_exceeded"`
	ReviewTimeLow        bool `json:"review_time_low"`
	// BlindApprovalsHigh is reserved; the per-day blind-approval budget is
	// not wired into this engine yet and the check always reports false.
	BlindApprovalsHigh bool `json:"blind_approvals_high"`
}

// AdaptiveSuggestion proposes a blind-approval time adjustment based on a
// trailing window of daily metrics, with the reasoning spelled out.
type AdaptiveSuggestion struct {
	RecommendedBlindApprovalTime int64  `json:"recommended_blind_approval_time"`
	Changed                      bool   `json:"changed"`
	Reasoning                    string `json:"reasoning"`
}

// Export is the serializable form of a manager's full state.
type Export struct {
	Level  models.ExperienceLevel `json:"level" yaml:"level"`
	Config Config                 `json:"config" yaml:"config"`
}

// NewManager creates a manager seeded with the given level's defaults.
func NewManager(level models.ExperienceLevel) *Manager {
	return &Manager{
		level:  level,
		config: RecommendedThresholds(level),
	}
}

// GetConfig returns an independent copy of the active configuration.
func (m *Manager) GetConfig() Config {
	return m.config
}

// Level returns the active experience level.
func (m *Manager) Level() models.ExperienceLevel {
	return m.level
}

// SetLevel replaces the active configuration with the level's defaults,
// discarding any custom overrides set since the last level change.
func (m *Manager) SetLevel(level models.ExperienceLevel) {
	m.level = level
	m.config = RecommendedThresholds(level)
}

// SetBlindApprovalTime clamps into [500, 10000] ms and applies.
func (m *Manager) SetBlindApprovalTime(ms int64) {
	m.config.BlindApprovalTime = clampInt64(ms, MinBlindApprovalTime, MaxBlindApprovalTime)
}

// SetMaxAIPercentage clamps into [20, 100] and applies.
func (m *Manager) SetMaxAIPercentage(pct float64) {
	m.config.MaxAIPercentage = clampFloat(pct, MinAIPercentage, MaxAIPercentage)
}

// SetMinReviewTime clamps into [500, 30000] ms and applies.
func (m *Manager) SetMinReviewTime(ms int64) {
	m.config.MinReviewTime = clampInt64(ms, MinReviewTimeFloor, MaxReviewTimeFloor)
}

// SetStreakThreshold clamps into [2, 10] and applies.
func (m *Manager) SetStreakThreshold(n int) {
	m.config.StreakThreshold = clampInt(n, MinStreakThreshold, MaxStreakThreshold)
}

// CheckMetrics compares one day's metrics against the active thresholds.
func (m *Manager) CheckMetrics(metrics models.DailyMetrics) MetricsCheck {
	return MetricsCheck{
		AIPercentageExceeded: metrics.AIPercentage > m.config.MaxAIPercentage,
		ReviewTimeLow:        metrics.AvgReviewTime < m.config.MinReviewTime,
		BlindApprovalsHigh:   false,
	}
}

// SuggestAdaptiveThreshold inspects a trailing history of daily metrics and
// proposes a more lenient blind-approval time when the developer has
// consistently reviewed well above the floor. It never applies the change.
func (m *Manager) SuggestAdaptiveThreshold(history []models.DailyMetrics) AdaptiveSuggestion {
	current := m.config.BlindApprovalTime

	if len(history) == 0 {
		return AdaptiveSuggestion{
			RecommendedBlindApprovalTime: current,
			Changed:                      false,
			Reasoning:                    "not enough data: no daily metrics recorded yet",
		}
	}

	bar := 2 * m.config.MinReviewTime
	for _, day := range history {
		if day.AvgReviewTime <= bar {
			return AdaptiveSuggestion{
				RecommendedBlindApprovalTime: current,
				Changed:                      false,
				Reasoning: fmt.Sprintf(
					"keep current threshold: average review time on %s was %dms, not consistently above %dms",
					day.Date, day.AvgReviewTime, bar),
			}
		}
	}

	// Consistently careful reviewer: relax by 20%, still within bounds.
	recommended := clampInt64(current*8/10, MinBlindApprovalTime, MaxBlindApprovalTime)
	if recommended == current {
		return AdaptiveSuggestion{
			RecommendedBlindApprovalTime: current,
			Changed:                      false,
			Reasoning:                    "review times are consistently high but the threshold is already at its lower bound",
		}
	}
	return AdaptiveSuggestion{
		RecommendedBlindApprovalTime: recommended,
		Changed:                      true,
		Reasoning: fmt.Sprintf(
			"average review time exceeded %dms across %d days; relaxing blind-approval time from %dms to %dms",
			bar, len(history), current, recommended),
	}
}

// ExportConfig returns the full manager state for persistence.
func (m *Manager) ExportConfig() Export {
	return Export{Level: m.level, Config: m.config}
}

// ImportConfig restores previously exported state. Values are clamped into
// bounds; anything produced by ExportConfig round-trips exactly.
func (m *Manager) ImportConfig(exported Export) {
	if exported.Level != "" {
		m.level = exported.Level
	}
	m.config = Config{
		BlindApprovalTime: clampInt64(exported.Config.BlindApprovalTime, MinBlindApprovalTime, MaxBlindApprovalTime),
		MaxAIPercentage:   clampFloat(exported.Config.MaxAIPercentage, MinAIPercentage, MaxAIPercentage),
		MinReviewTime:     clampInt64(exported.Config.MinReviewTime, MinReviewTimeFloor, MaxReviewTimeFloor),
		StreakThreshold:   clampInt(exported.Config.StreakThreshold, MinStreakThreshold, MaxStreakThreshold),
	}
}
