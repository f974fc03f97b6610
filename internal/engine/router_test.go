package engine

import (
	"testing"

	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func event(kind models.EventKind, ts int64, path string) *models.TrackingEvent {
	return &models.TrackingEvent{
		Timestamp: ts,
		Source:    "copilot",
		Kind:      kind,
		FilePath:  path,
	}
}

func TestProcessEvent_DuplicateGateShortCircuits(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	e := event(models.EventSuggestionAccepted, 1_700_000_000_000, "main.go")
	e.LinesOfCode = intp(10)
	e.AcceptanceTimeDelta = int64p(500)

	first := r.ProcessEvent(e, nil)
	assert.False(t, first.Duplicate)
	require.NotNil(t, first.BlindApproval)

	dup := *e
	dup.Timestamp = e.Timestamp + 50
	second := r.ProcessEvent(&dup, nil)
	assert.True(t, second.Duplicate)
	assert.Nil(t, second.BlindApproval, "duplicates must not reach the classifiers")
	assert.Nil(t, second.ReviewQuality)
}

func TestProcessEvent_AcceptanceRunsAllClassifiers(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	e := event(models.EventSuggestionAccepted, 1_700_000_000_000, "main.go")
	e.LinesOfCode = intp(50)
	e.AcceptanceTimeDelta = int64p(800)

	result := r.ProcessEvent(e, nil)
	require.NotNil(t, result.BlindApproval)
	assert.True(t, result.BlindApproval.IsBlindApproval)
	require.NotNil(t, result.ReviewQuality)
	assert.Equal(t, models.QualityForScore(result.ReviewQuality.Score), result.ReviewQuality.Category)
}

func TestProcessEvent_ShownEventsOnlyFeedPendingLifecycle(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	result := r.ProcessEvent(event(models.EventSuggestionShown, 1_700_000_000_000, "main.go"), nil)
	assert.Nil(t, result.BlindApproval)
	assert.Nil(t, result.ReviewQuality)
	assert.False(t, result.Session.SessionDetected)
}

func TestProcessEvent_PendingSuggestionTimesUndeltaedAcceptance(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	base := int64(1_700_000_000_000)
	r.ProcessEvent(event(models.EventSuggestionShown, base, "main.go"), nil)

	accept := event(models.EventSuggestionAccepted, base+700, "main.go")
	accept.LinesOfCode = intp(40)
	result := r.ProcessEvent(accept, nil)

	require.NotNil(t, result.BlindApproval)
	assert.Equal(t, int64(700), result.BlindApproval.TimeDelta,
		"delta is derived from the pending shown event")
	assert.True(t, result.BlindApproval.TimeBased)
}

func TestProcessEvent_RejectionClearsPending(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	base := int64(1_700_000_000_000)
	r.ProcessEvent(event(models.EventSuggestionShown, base, "main.go"), nil)
	r.ProcessEvent(event(models.EventSuggestionRejected, base+100, "main.go"), nil)

	accept := event(models.EventSuggestionAccepted, base+200_000, "main.go")
	result := r.ProcessEvent(accept, nil)
	require.NotNil(t, result.BlindApproval)
	assert.Equal(t, int64(-1), result.BlindApproval.TimeDelta,
		"a rejected suggestion leaves nothing to time against")
}

func TestProcessEvent_ExplicitDeltaWinsOverPending(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	base := int64(1_700_000_000_000)
	r.ProcessEvent(event(models.EventSuggestionShown, base, "main.go"), nil)

	accept := event(models.EventSuggestionAccepted, base+10_000, "main.go")
	accept.AcceptanceTimeDelta = int64p(9000)
	result := r.ProcessEvent(accept, nil)
	assert.Equal(t, int64(9000), result.BlindApproval.TimeDelta)
}

func TestProcessEvent_GeneratedEventsReachSessionDetector(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	base := int64(1_700_000_000_000)
	bulk := event(models.EventCodeGenerated, base, "a.go")
	bulk.LinesOfCode = intp(200)
	r.ProcessEvent(bulk, nil)

	commit := event(models.EventCodeGenerated, base+1000, "b.go")
	commit.LinesOfCode = intp(10)
	commit.Metadata.GitCommitSignature = true
	result := r.ProcessEvent(commit, nil)

	assert.True(t, result.Session.SessionStarted)
	require.NotNil(t, result.Session.Session)
	assert.Equal(t, 2, result.Session.Session.FileCount())
}

func TestApplyThresholds_PropagatesToDetector(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	r.Thresholds().SetBlindApprovalTime(600)
	r.ApplyThresholds()

	e := event(models.EventSuggestionAccepted, 1_700_000_000_000, "main.go")
	e.AcceptanceTimeDelta = int64p(800)
	result := r.ProcessEvent(e, nil)
	assert.False(t, result.BlindApproval.TimeBased, "800ms is no longer under the threshold")
	assert.Equal(t, int64(600), result.BlindApproval.ThresholdUsed)
}

func TestMetrics_AccumulatePerDay(t *testing.T) {
	r := NewRouter(models.LevelMid)
	defer r.Close()

	base := int64(1_756_339_200_000) // 2025-08-28T00:00:00Z
	e := event(models.EventSuggestionAccepted, base, "main.go")
	e.LinesOfCode = intp(100)
	e.AcceptanceTimeDelta = int64p(400)
	r.ProcessEvent(e, nil)

	date := DateOf(base)
	r.Metrics().RecordManualLines(date, 300)

	m := r.Metrics().Snapshot(date)
	assert.Equal(t, 1, m.EventsTracked)
	assert.Equal(t, 100, m.LinesGenerated)
	assert.Equal(t, 25.0, m.AIPercentage)
	assert.Equal(t, int64(400), m.AvgReviewTime)
	assert.Equal(t, 1, m.BlindApprovals)
}

func TestMetrics_EmptyDaySnapshot(t *testing.T) {
	a := NewDailyAccumulator()
	m := a.Snapshot("2026-08-28")
	assert.Equal(t, "2026-08-28", m.Date)
	assert.Zero(t, m.AIPercentage)
	assert.Zero(t, m.EventsTracked)
}
