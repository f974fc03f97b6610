package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/reviewsense/reviewsense/internal/models"
)

// dayTally is the running state behind one day's metrics.
type dayTally struct {
	aiLines        int
	manualLines    int
	blindApprovals int
	events         int
	reviewTimeSum  int64
	reviewTimeN    int
}

// DailyAccumulator folds routed results into per-day metrics. AI lines come
// from the event stream; manual lines are reported by the editor collaborator
// through RecordManualLines, since this core never sees manual typing.
type DailyAccumulator struct {
	days map[string]*dayTally
}

// NewDailyAccumulator creates an empty accumulator.
func NewDailyAccumulator() *DailyAccumulator {
	return &DailyAccumulator{days: make(map[string]*dayTally)}
}

// Record folds one routed event into its day.
func (a *DailyAccumulator) Record(event *models.TrackingEvent, result RouteResult) {
	if result.Duplicate {
		return
	}
	day := a.day(DateOf(event.Timestamp))
	day.events++

	if event.Kind == models.EventSuggestionAccepted || event.Kind == models.EventCodeGenerated {
		if event.LinesOfCode != nil {
			day.aiLines += *event.LinesOfCode
		}
	}
	if event.AcceptanceTimeDelta != nil && event.Kind == models.EventSuggestionAccepted {
		day.reviewTimeSum += *event.AcceptanceTimeDelta
		day.reviewTimeN++
	}
	if result.BlindApproval != nil && result.BlindApproval.IsBlindApproval {
		day.blindApprovals++
	}
}

// RecordManualLines adds manually typed lines for a day, so the AI share of
// the day's code can be computed.
func (a *DailyAccumulator) RecordManualLines(date string, lines int) {
	if lines > 0 {
		a.day(date).manualLines += lines
	}
}

// Snapshot returns the metrics for one day.
func (a *DailyAccumulator) Snapshot(date string) models.DailyMetrics {
	day, ok := a.days[date]
	if !ok {
		return models.DailyMetrics{ID: uuid.NewString(), Date: date}
	}
	m := models.DailyMetrics{
		ID:             uuid.NewString(),
		Date:           date,
		BlindApprovals: day.blindApprovals,
		EventsTracked:  day.events,
		LinesGenerated: day.aiLines,
	}
	if total := day.aiLines + day.manualLines; total > 0 {
		m.AIPercentage = float64(day.aiLines) / float64(total) * 100
	}
	if day.reviewTimeN > 0 {
		m.AvgReviewTime = day.reviewTimeSum / int64(day.reviewTimeN)
	}
	return m
}

// Dates returns the tracked dates in ascending order.
func (a *DailyAccumulator) Dates() []string {
	dates := make([]string, 0, len(a.days))
	for d := range a.days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func (a *DailyAccumulator) day(date string) *dayTally {
	if d, ok := a.days[date]; ok {
		return d
	}
	d := &dayTally{}
	a.days[date] = d
	return d
}

// DateOf formats an event's ms-epoch timestamp as the UTC day key.
func DateOf(timestampMS int64) string {
	return time.UnixMilli(timestampMS).UTC().Format("2006-01-02")
}
