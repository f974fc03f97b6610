package output

import (
	"fmt"
	"io"

	"github.com/reviewsense/reviewsense/internal/models"
)

// StandardFormatter outputs metrics + flagged files (default)
type StandardFormatter struct{}

func (f *StandardFormatter) Format(report *Report, w io.Writer) error {
	// Header
	fmt.Fprintf(w, "🔍 ReviewSense Analysis\n")
	fmt.Fprintf(w, "Date: %s\n", report.Date)
	fmt.Fprintf(w, "Events processed: %d", report.EventsProcessed)
	if report.DuplicatesDropped > 0 {
		fmt.Fprintf(w, " (%d duplicates dropped)", report.DuplicatesDropped)
	}
	fmt.Fprintf(w, "\n\n")

	// Daily metrics
	if m := report.Metrics; m != nil {
		fmt.Fprintf(w, "Metrics:\n")
		fmt.Fprintf(w, "- AI-generated code: %.1f%%\n", m.AIPercentage)
		fmt.Fprintf(w, "- Lines generated: %d\n", m.LinesGenerated)
		fmt.Fprintf(w, "- Avg review time: %s\n", formatMillis(m.AvgReviewTime))
		fmt.Fprintf(w, "- Blind approvals: %d\n\n", m.BlindApprovals)
	}

	// Blind approvals
	if len(report.BlindApprovals) > 0 {
		fmt.Fprintf(w, "Blind approvals:\n")
		for i, entry := range report.BlindApprovals {
			delta := "no timing data"
			if entry.TimeDeltaMS >= 0 {
				delta = "accepted in " + formatMillis(entry.TimeDeltaMS)
			}
			fmt.Fprintf(w, "%d. %s %s - %s (%s confidence)\n",
				i+1,
				confidenceEmoji(entry.Confidence),
				entry.FilePath,
				delta,
				entry.Confidence,
			)
		}
		fmt.Fprintf(w, "\n")
	}

	// Per-file review status
	if len(report.Files) > 0 {
		fmt.Fprintf(w, "Files:\n")
		for _, file := range report.Files {
			status := "unreviewed"
			if file.IsReviewed {
				status = fmt.Sprintf("reviewed (%s, score %.0f)", file.ReviewQuality, file.ReviewScore)
			} else if file.LinesSinceReview > 0 {
				status = fmt.Sprintf("%d lines since last review", file.LinesSinceReview)
			}
			fmt.Fprintf(w, "- %s: %d lines generated, %s\n",
				file.FilePath, file.LinesGenerated, status)
		}
		fmt.Fprintf(w, "\n")
	}

	// Agent sessions
	if len(report.Sessions) > 0 {
		fmt.Fprintf(w, "Agent sessions:\n")
		for _, session := range report.Sessions {
			fmt.Fprintf(w, "- %s: %d file%s, %d lines, %s confidence (%s)\n",
				session.Source,
				session.FileCount(),
				pluralize(session.FileCount()),
				session.TotalLines,
				session.Confidence,
				formatMillis(session.EndTime-session.StartTime),
			)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(report.BlindApprovals) > 0 {
		fmt.Fprintf(w, "Run 'rsense thresholds' to review your detection settings\n")
	}

	return nil
}

func confidenceEmoji(confidence models.Confidence) string {
	switch confidence {
	case models.ConfidenceHigh:
		return "🔴"
	case models.ConfidenceMedium:
		return "⚠️ "
	case models.ConfidenceLow:
		return "ℹ️ "
	default:
		return "•"
	}
}

// formatMillis formats a millisecond count into a human-readable duration
func formatMillis(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60_000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%.1fm", float64(ms)/60_000)
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
