// Package approval decides whether an accepted AI suggestion was approved
// without adequate review.
package approval

import (
	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/reviewsense/reviewsense/internal/thresholds"
	"github.com/reviewsense/reviewsense/internal/window"
)

const (
	// historySize bounds the sliding window of recent acceptances used by
	// the pattern signal.
	historySize = 10

	// patternMinRapid is how many rapid acceptances in the window make the
	// pattern signal fire.
	patternMinRapid = 3
)

// Detection is the decision record for one accepted suggestion.
type Detection struct {
	IsBlindApproval bool              `json:"is_blind_approval"`
	Confidence      models.Confidence `json:"confidence"`
	TimeBased       bool              `json:"time_based"`
	PatternBased    bool              `json:"pattern_based"`
	ComplexityBased bool              `json:"complexity_based"`
	TimeDelta       int64             `json:"time_delta"`     // -1 when absent
	ThresholdUsed   int64             `json:"threshold_used"` // ms
}

// Stats summarizes the detector's recent acceptance window.
type Stats struct {
	RecentCount       int     `json:"recent_count"`
	RecentRapidCount  int     `json:"recent_rapid_count"`
	AverageReviewTime float64 `json:"average_review_time"` // ms, over deltas present in the window
	StreakLength      int     `json:"streak_length"`
}

// acceptance is one recorded accepted suggestion.
type acceptance struct {
	timestamp int64
	delta     int64 // -1 when the event carried no delta
	rapid     bool
}

// Detector evaluates the three blind-approval signals against the active
// threshold configuration. Not safe for concurrent use.
type Detector struct {
	config  thresholds.Config
	history *window.Ring[acceptance]
	streak  int
}

// NewDetector creates a detector using the given thresholds.
func NewDetector(config thresholds.Config) *Detector {
	return &Detector{
		config:  config,
		history: window.NewRing[acceptance](historySize),
	}
}

// Detect classifies an accepted-suggestion event. Any other event kind yields
// a negative detection with no signals set and does not touch history.
func (d *Detector) Detect(event *models.TrackingEvent) Detection {
	detection := Detection{
		Confidence:    models.ConfidenceLow,
		TimeDelta:     -1,
		ThresholdUsed: d.config.BlindApprovalTime,
	}
	if event.Kind != models.EventSuggestionAccepted {
		return detection
	}

	delta := int64(-1)
	if event.AcceptanceTimeDelta != nil {
		delta = *event.AcceptanceTimeDelta
	}
	detection.TimeDelta = delta

	rapid := delta >= 0 && delta < d.config.BlindApprovalTime
	detection.TimeBased = rapid
	detection.PatternBased = d.patternSignal()
	detection.ComplexityBased = d.complexitySignal(event, delta)

	signals := 0
	for _, fired := range []bool{detection.TimeBased, detection.PatternBased, detection.ComplexityBased} {
		if fired {
			signals++
		}
	}
	detection.IsBlindApproval = signals >= 1
	switch {
	case signals >= 3:
		detection.Confidence = models.ConfidenceHigh
	case signals == 2:
		detection.Confidence = models.ConfidenceMedium
	default:
		detection.Confidence = models.ConfidenceLow
	}

	// Record after evaluating so the pattern window covers prior acceptances only.
	d.history.Push(acceptance{timestamp: event.Timestamp, delta: delta, rapid: rapid})
	if rapid {
		d.streak++
	} else {
		d.streak = 0
	}

	return detection
}

// patternSignal fires when at least 3 of the last 10 recorded acceptances
// were themselves rapid.
func (d *Detector) patternSignal() bool {
	rapid := 0
	d.history.Each(func(a acceptance) {
		if a.rapid {
			rapid++
		}
	})
	return rapid >= patternMinRapid
}

// complexitySignal fires when the acceptance delta is below the expected
// review time for a change of this size, floored at the configured minimum.
func (d *Detector) complexitySignal(event *models.TrackingEvent, delta int64) bool {
	if delta < 0 || event.LinesOfCode == nil {
		return false
	}
	expected := models.ExpectedReviewTime(*event.LinesOfCode, event.Language)
	floor := float64(d.config.MinReviewTime)
	if expected < floor {
		expected = floor
	}
	return float64(delta) < expected
}

// IsInStreak reports whether the consecutive-rapid-acceptance streak has
// reached the configured threshold.
func (d *Detector) IsInStreak() bool {
	return d.streak >= d.config.StreakThreshold
}

// StreakLength returns the raw streak count.
func (d *Detector) StreakLength() int {
	return d.streak
}

// GetStats reports the recent acceptance window.
func (d *Detector) GetStats() Stats {
	stats := Stats{StreakLength: d.streak}
	var sum int64
	var withDelta int
	d.history.Each(func(a acceptance) {
		stats.RecentCount++
		if a.rapid {
			stats.RecentRapidCount++
		}
		if a.delta >= 0 {
			sum += a.delta
			withDelta++
		}
	})
	if withDelta > 0 {
		stats.AverageReviewTime = float64(sum) / float64(withDelta)
	}
	return stats
}

// UpdateThresholds swaps the active configuration for subsequent detections.
// History is not re-scored.
func (d *Detector) UpdateThresholds(config thresholds.Config) {
	d.config = config
}

// Reset clears history and streak state.
func (d *Detector) Reset() {
	d.history.Reset()
	d.streak = 0
}
