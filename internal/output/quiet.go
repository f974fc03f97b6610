package output

import (
	"fmt"
	"io"
)

// QuietFormatter outputs a one-line summary (for piped output and hooks)
type QuietFormatter struct{}

func (f *QuietFormatter) Format(report *Report, w io.Writer) error {
	aiPct := 0.0
	if report.Metrics != nil {
		aiPct = report.Metrics.AIPercentage
	}

	if len(report.BlindApprovals) == 0 {
		fmt.Fprintf(w, "✅ %s: %d events, AI %.1f%%, no blind approvals\n",
			report.Date, report.EventsProcessed, aiPct)
		return nil
	}

	fmt.Fprintf(w, "⚠️  %s: %d events, AI %.1f%%, %d blind approvals detected\n",
		report.Date, report.EventsProcessed, aiPct, len(report.BlindApprovals))
	fmt.Fprintf(w, "Run 'rsense analyze' in a terminal for details\n")

	return nil
}
