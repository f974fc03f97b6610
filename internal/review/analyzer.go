// Package review scores how thoroughly a developer reviewed an AI-generated
// change before accepting it.
package review

import (
	"fmt"

	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/reviewsense/reviewsense/internal/window"
)

// Factor weights. They sum to 1.0; each sub-score is clamped to [0,100]
// before weighting.
const (
	weightTime       = 0.4
	weightComplexity = 0.3
	weightPattern    = 0.2
	weightContext    = 0.1
)

const (
	historySize = 10

	// neutralScore is used whenever a factor has nothing to judge.
	neutralScore = 50.0

	// snippetCap limits the complexity score for very short snippets, which
	// cannot demonstrate a thorough review no matter how long they were open.
	snippetLines = 5
	snippetCap   = 40.0

	// patternFloor/patternCeiling bracket the pattern sub-score when the
	// recent history is dominated by one behavior.
	patternDepressed = 20.0
	patternRaised    = 85.0
)

// Context carries caller-supplied review context not present on the event.
type Context struct {
	// FileWasOpen is nil when unknown. Explicitly false marks an agent or
	// closed-file edit the developer could not have been watching.
	FileWasOpen *bool
}

// Breakdown exposes the four weighted factor scores.
type Breakdown struct {
	Time       float64 `json:"time"`
	Complexity float64 `json:"complexity"`
	Pattern    float64 `json:"pattern"`
	Context    float64 `json:"context"`
}

// Result is the scored review quality for one accepted suggestion.
type Result struct {
	Score    float64              `json:"score"` // 0-100
	Category models.ReviewQuality `json:"category"`
	Factors  Breakdown            `json:"factors"`
	Insights []string             `json:"insights"`
}

// pastReview is one history entry for the pattern factor.
type pastReview struct {
	rapid     bool
	wellTimed bool
}

// Analyzer scores review thoroughness. It keeps its own rolling history of
// recent reviews for the pattern factor. Not safe for concurrent use.
type Analyzer struct {
	history *window.Ring[pastReview]
}

// NewAnalyzer creates an analyzer with an empty review history.
func NewAnalyzer() *Analyzer {
	return &Analyzer{history: window.NewRing[pastReview](historySize)}
}

// Analyze scores one accepted suggestion. ctx may be nil. The result is
// always within [0,100] even for zero-line events or missing deltas.
func (a *Analyzer) Analyze(event *models.TrackingEvent, ctx *Context) Result {
	lines := 0
	if event.LinesOfCode != nil {
		lines = *event.LinesOfCode
	}
	delta := int64(-1)
	if event.AcceptanceTimeDelta != nil {
		delta = *event.AcceptanceTimeDelta
	}
	expected := models.ExpectedReviewTime(lines, event.Language)

	factors := Breakdown{
		Time:       timeScore(delta, expected),
		Complexity: complexityScore(lines, delta, expected),
		Pattern:    a.patternScore(),
		Context:    contextScore(event, ctx),
	}

	score := clamp(
		weightTime*factors.Time+
			weightComplexity*factors.Complexity+
			weightPattern*factors.Pattern+
			weightContext*factors.Context,
		0, 100)

	result := Result{
		Score:    score,
		Category: models.QualityForScore(score),
		Factors:  factors,
		Insights: buildInsights(event, ctx, factors, delta, expected, lines),
	}

	a.record(delta, expected)
	return result
}

// timeScore compares the observed acceptance delta to the expected review
// time. A missing delta or an unjudgeable change is neutral.
func timeScore(delta int64, expected float64) float64 {
	if delta < 0 || expected <= 0 {
		return neutralScore
	}
	return clamp(float64(delta)/expected*100, 0, 100)
}

// complexityScore scales with change size and, when timing is available,
// rewards proportionally longer reviews. Short snippets are capped.
func complexityScore(lines int, delta int64, expected float64) float64 {
	if lines <= 0 {
		return 0
	}
	score := clamp(float64(lines)*2, 0, 100)
	if delta >= 0 && expected > 0 {
		adequacy := clamp(float64(delta)/expected, 0, 1)
		score *= 0.5 + 0.5*adequacy
	}
	if lines < snippetLines && score > snippetCap {
		score = snippetCap
	}
	return clamp(score, 0, 100)
}

// patternScore reads the rolling history of prior reviews. A run of rapid
// acceptances depresses the score below the floor; consistently well-timed
// reviews raise it above the ceiling.
func (a *Analyzer) patternScore() float64 {
	count := a.history.Len()
	if count == 0 {
		return neutralScore
	}
	rapid, well := 0, 0
	a.history.Each(func(r pastReview) {
		if r.rapid {
			rapid++
		}
		if r.wellTimed {
			well++
		}
	})
	rapidRatio := float64(rapid) / float64(count)
	wellRatio := float64(well) / float64(count)

	score := clamp(50+50*(wellRatio-rapidRatio), 0, 100)
	if rapidRatio >= 0.7 && score > patternDepressed {
		score = patternDepressed
	}
	if wellRatio >= 0.7 && score < patternRaised {
		score = patternRaised
	}
	return score
}

// contextScore penalizes closed-file edits and bulk generation. The two
// penalties are independent and additive, floored at zero.
func contextScore(event *models.TrackingEvent, ctx *Context) float64 {
	score := 100.0
	if ctx != nil && ctx.FileWasOpen != nil && !*ctx.FileWasOpen {
		score -= 50
	}
	if event.Metadata.BulkGeneration {
		score -= 30
	}
	return clamp(score, 0, 100)
}

// record appends this review to the pattern history for subsequent calls.
func (a *Analyzer) record(delta int64, expected float64) {
	entry := pastReview{}
	if delta >= 0 && expected > 0 {
		ratio := float64(delta) / expected
		entry.rapid = ratio < 0.25
		entry.wellTimed = ratio >= 0.75
	}
	a.history.Push(entry)
}

// Reset clears the rolling review history.
func (a *Analyzer) Reset() {
	a.history.Reset()
}

func buildInsights(event *models.TrackingEvent, ctx *Context, factors Breakdown, delta int64, expected float64, lines int) []string {
	var insights []string

	switch {
	case delta < 0:
		insights = append(insights, "no acceptance timing was recorded for this change")
	case factors.Time < 30 && expected > 0:
		insights = append(insights, fmt.Sprintf(
			"accepted in %dms, well under the ~%.0fms expected for %d lines", delta, expected, lines))
	case factors.Time >= 80:
		insights = append(insights, "review time was proportionate to the size of the change")
	}

	if lines > 0 && lines < snippetLines {
		insights = append(insights, "change is a short snippet; limited review depth is expected")
	}
	if factors.Pattern <= patternDepressed {
		insights = append(insights, "recent acceptances form a rapid, low-effort pattern")
	} else if factors.Pattern >= patternRaised {
		insights = append(insights, "recent reviews have been consistently well timed")
	}
	if ctx != nil && ctx.FileWasOpen != nil && !*ctx.FileWasOpen {
		insights = append(insights, "change landed while the file was not open in the editor")
	}
	if event.Metadata.BulkGeneration {
		insights = append(insights, "change was part of a bulk generation")
	}

	if len(insights) == 0 {
		insights = append(insights, "review pace in line with change size")
	}
	return insights
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
