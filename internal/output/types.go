package output

import (
	"github.com/reviewsense/reviewsense/internal/models"
)

// Report holds everything an analysis run produced for one day
type Report struct {
	Date              string                     `json:"date"`
	EventsProcessed   int                        `json:"events_processed"`
	DuplicatesDropped int                        `json:"duplicates_dropped"`
	Metrics           *models.DailyMetrics       `json:"metrics,omitempty"`
	Files             []*models.FileReviewStatus `json:"files,omitempty"`
	Sessions          []*models.AgentSession     `json:"sessions,omitempty"`
	BlindApprovals    []BlindApprovalEntry       `json:"blind_approvals,omitempty"`
}

// BlindApprovalEntry records one flagged acceptance
type BlindApprovalEntry struct {
	FilePath    string            `json:"file_path"`
	Timestamp   int64             `json:"timestamp"`
	Confidence  models.Confidence `json:"confidence"`
	TimeDeltaMS int64             `json:"time_delta_ms"` // -1 when the event carried no delta
}
