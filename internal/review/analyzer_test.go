package review

import (
	"testing"

	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/stretchr/testify/assert"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }

func acceptedEvent(lines int, delta int64, language string) *models.TrackingEvent {
	return &models.TrackingEvent{
		Timestamp:           1_700_000_000_000,
		Source:              "copilot",
		Kind:                models.EventSuggestionAccepted,
		FilePath:            "main.go",
		LinesOfCode:         intp(lines),
		AcceptanceTimeDelta: int64p(delta),
		Language:            language,
	}
}

func TestAnalyze_ScoreAlwaysInBounds(t *testing.T) {
	a := NewAnalyzer()
	for _, lines := range []int{0, 1, 4, 10, 100, 1000, 10_000} {
		for _, delta := range []int64{0, 1, 500, 5000, 60_000} {
			r := a.Analyze(acceptedEvent(lines, delta, "go"), nil)
			assert.GreaterOrEqual(t, r.Score, 0.0, "lines=%d delta=%d", lines, delta)
			assert.LessOrEqual(t, r.Score, 100.0, "lines=%d delta=%d", lines, delta)
			assert.Equal(t, models.QualityForScore(r.Score), r.Category)
			assert.NotEmpty(t, r.Insights)
		}
	}
}

func TestAnalyze_ZeroLinesDoesNotPanicOrNaN(t *testing.T) {
	a := NewAnalyzer()
	r := a.Analyze(acceptedEvent(0, 0, ""), nil)
	assert.False(t, r.Score != r.Score, "score must not be NaN")
	assert.GreaterOrEqual(t, r.Score, 0.0)
	assert.LessOrEqual(t, r.Score, 100.0)
}

func TestAnalyze_MissingDeltaIsNeutral(t *testing.T) {
	a := NewAnalyzer()
	event := acceptedEvent(50, 0, "go")
	event.AcceptanceTimeDelta = nil

	r := a.Analyze(event, nil)
	assert.Equal(t, 50.0, r.Factors.Time, "missing delta yields the neutral time score")
}

func TestAnalyze_ThoroughReviewScoresHigh(t *testing.T) {
	a := NewAnalyzer()
	// 100 plain lines expect 50s of review; 60s spent is a full review.
	r := a.Analyze(acceptedEvent(100, 60_000, ""), nil)

	assert.Equal(t, 100.0, r.Factors.Time)
	assert.Equal(t, models.ReviewThorough, r.Category)
}

func TestAnalyze_InstantAcceptScoresLow(t *testing.T) {
	a := NewAnalyzer()
	r := a.Analyze(acceptedEvent(200, 100, "typescript"), nil)

	assert.Less(t, r.Factors.Time, 5.0)
	assert.Equal(t, models.ReviewNone, r.Category)
}

func TestAnalyze_SnippetComplexityIsCapped(t *testing.T) {
	a := NewAnalyzer()
	// Even an hour spent on 3 lines cannot demonstrate a deep review.
	r := a.Analyze(acceptedEvent(3, 3_600_000, ""), nil)
	assert.LessOrEqual(t, r.Factors.Complexity, 40.0)
}

func TestAnalyze_PatternDepressedByRapidRun(t *testing.T) {
	a := NewAnalyzer()
	// Eight instant accepts of substantial changes prime the history.
	for i := 0; i < 8; i++ {
		a.Analyze(acceptedEvent(100, 200, ""), nil)
	}
	r := a.Analyze(acceptedEvent(100, 200, ""), nil)
	assert.LessOrEqual(t, r.Factors.Pattern, 20.0)
	assert.Contains(t, r.Insights, "recent acceptances form a rapid, low-effort pattern")
}

func TestAnalyze_PatternRaisedByWellTimedRun(t *testing.T) {
	a := NewAnalyzer()
	for i := 0; i < 8; i++ {
		a.Analyze(acceptedEvent(100, 50_000, ""), nil)
	}
	r := a.Analyze(acceptedEvent(100, 50_000, ""), nil)
	assert.GreaterOrEqual(t, r.Factors.Pattern, 85.0)
}

func TestAnalyze_ContextPenaltiesAreIndependentAndAdditive(t *testing.T) {
	a := NewAnalyzer()
	base := acceptedEvent(100, 50_000, "")

	r := a.Analyze(base, nil)
	assert.Equal(t, 100.0, r.Factors.Context)

	r = a.Analyze(base, &Context{FileWasOpen: boolp(false)})
	assert.Equal(t, 50.0, r.Factors.Context)

	bulk := acceptedEvent(100, 50_000, "")
	bulk.Metadata.BulkGeneration = true
	r = a.Analyze(bulk, nil)
	assert.Equal(t, 70.0, r.Factors.Context)

	r = a.Analyze(bulk, &Context{FileWasOpen: boolp(false)})
	assert.Equal(t, 20.0, r.Factors.Context)
}

func TestAnalyze_FileOpenTrueIsNotPenalized(t *testing.T) {
	a := NewAnalyzer()
	r := a.Analyze(acceptedEvent(100, 50_000, ""), &Context{FileWasOpen: boolp(true)})
	assert.Equal(t, 100.0, r.Factors.Context)
}

func TestAnalyze_CategoryCutLines(t *testing.T) {
	tests := []struct {
		name     string
		lines    int
		delta    int64
		expected models.ReviewQuality
	}{
		{"full review of large change", 100, 60_000, models.ReviewThorough},
		{"instant accept of large change", 200, 100, models.ReviewNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer()
			r := a.Analyze(acceptedEvent(tt.lines, tt.delta, ""), nil)
			assert.Equal(t, tt.expected, r.Category, "score was %v", r.Score)
		})
	}
}

func TestReset_ClearsPatternHistory(t *testing.T) {
	a := NewAnalyzer()
	for i := 0; i < 8; i++ {
		a.Analyze(acceptedEvent(100, 200, ""), nil)
	}
	a.Reset()

	r := a.Analyze(acceptedEvent(100, 50_000, ""), nil)
	assert.Equal(t, 50.0, r.Factors.Pattern, "fresh history is neutral")
}
