package models

import (
	"time"
)

// EventKind identifies the type of editor observation
type EventKind string

const (
	EventSuggestionShown    EventKind = "suggestion_shown"
	EventSuggestionAccepted EventKind = "suggestion_accepted"
	EventSuggestionRejected EventKind = "suggestion_rejected"
	EventCodeGenerated      EventKind = "code_generated"
)

// EventMetadata carries the boolean signal flags attached to an event by the
// editor integration. Named fields instead of an open map so lookups are typed.
type EventMetadata struct {
	ClosedFileModification bool `json:"closed_file_modification,omitempty"`
	BulkGeneration         bool `json:"bulk_generation,omitempty"`
	GitCommitSignature     bool `json:"git_commit_signature,omitempty"`
}

// TrackingEvent is a single immutable observation from the editor integration.
// Optional numeric fields are pointers; absence and zero are distinct signals.
type TrackingEvent struct {
	Timestamp           int64         `json:"timestamp"` // ms epoch
	Source              string        `json:"source"`    // tool identifier, e.g. "copilot", "cursor"
	Kind                EventKind     `json:"kind"`
	FilePath            string        `json:"file_path,omitempty"`
	LinesOfCode         *int          `json:"lines_of_code,omitempty"`
	LinesRemoved        *int          `json:"lines_removed,omitempty"`
	CharactersCount     *int          `json:"characters_count,omitempty"`
	AcceptanceTimeDelta *int64        `json:"acceptance_time_delta,omitempty"` // ms between shown and accepted
	Language            string        `json:"language,omitempty"`
	Metadata            EventMetadata `json:"metadata,omitempty"`
}

// Time returns the event timestamp as a time.Time.
func (e *TrackingEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Confidence grades how many independent signals back a judgment
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ReviewQuality buckets a 0-100 review score
type ReviewQuality string

const (
	ReviewThorough ReviewQuality = "thorough"
	ReviewLight    ReviewQuality = "light"
	ReviewNone     ReviewQuality = "none"
)

// QualityForScore maps a clamped review score onto its category.
// Cut lines: >=70 thorough, >=40 light, below that none.
func QualityForScore(score float64) ReviewQuality {
	switch {
	case score >= 70:
		return ReviewThorough
	case score >= 40:
		return ReviewLight
	default:
		return ReviewNone
	}
}

// ExperienceLevel selects a threshold preset
type ExperienceLevel string

const (
	LevelJunior ExperienceLevel = "junior"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

// AgentSession is a detected burst of autonomous multi-file AI edits.
// Mutable while active; sealed once EndTime is set and handed to the caller.
type AgentSession struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	StartTime       int64           `json:"start_time"` // ms epoch
	EndTime         int64           `json:"end_time,omitempty"`
	FilesAffected   map[string]bool `json:"files_affected"`
	TotalLines      int             `json:"total_lines"`
	TotalCharacters int             `json:"total_characters"`
	Signals         SessionSignals  `json:"signals"`
	Confidence      Confidence      `json:"confidence"`
}

// FileCount reports the number of distinct files the session has touched.
func (s *AgentSession) FileCount() int {
	return len(s.FilesAffected)
}

// SessionSignals records which of the five independent detection signals
// have fired across a session's accumulated events.
type SessionSignals struct {
	RapidFileChanges        bool `json:"rapid_file_changes"`
	ClosedFileModifications bool `json:"closed_file_modifications"`
	BulkCodeGeneration      bool `json:"bulk_code_generation"`
	GitCommitSignature      bool `json:"git_commit_signature"`
	ConsistentSource        bool `json:"consistent_source"`
}

// Count returns the number of distinct signal types that have fired.
func (s SessionSignals) Count() int {
	n := 0
	for _, fired := range []bool{
		s.RapidFileChanges,
		s.ClosedFileModifications,
		s.BulkCodeGeneration,
		s.GitCommitSignature,
		s.ConsistentSource,
	} {
		if fired {
			n++
		}
	}
	return n
}

// FileReviewSchemaVersion is bumped whenever FileReviewStatus columns change.
const FileReviewSchemaVersion = 2

// FileReviewStatus is the durable review record keyed by (FilePath, Date, Source).
// Owned by the storage collaborator; this core owns only the merge rule that
// produces each new revision of the row.
type FileReviewStatus struct {
	FilePath         string        `json:"file_path" db:"file_path"`
	Date             string        `json:"date" db:"date"` // YYYY-MM-DD
	Source           string        `json:"source" db:"source"`
	LinesGenerated   int           `json:"lines_generated" db:"lines_generated"`
	LinesChanged     int           `json:"lines_changed" db:"lines_changed"`
	LinesSinceReview int           `json:"lines_since_review" db:"lines_since_review"`
	LinesAdded       int           `json:"lines_added" db:"lines_added"`
	LinesRemoved     int           `json:"lines_removed" db:"lines_removed"`
	IsReviewed       bool          `json:"is_reviewed" db:"is_reviewed"`
	ReviewScore      float64       `json:"review_score" db:"review_score"`
	ReviewQuality    ReviewQuality `json:"review_quality" db:"review_quality"`
	AgentSessionID   string        `json:"agent_session_id" db:"agent_session_id"`
	TotalReviewTime  int64         `json:"total_review_time" db:"total_review_time"` // ms
	ScrollEvents     int           `json:"scroll_events" db:"scroll_events"`
	CursorMovements  int           `json:"cursor_movements" db:"cursor_movements"`
	FocusTime        int64         `json:"focus_time" db:"focus_time"` // ms
	SchemaVersion    int           `json:"schema_version" db:"schema_version"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// ReviewUpdate is a partial update for a FileReviewStatus row. Nil fields mean
// "not part of this update" and leave the stored value alone during merge.
type ReviewUpdate struct {
	FilePath         string         `json:"file_path"`
	Date             string         `json:"date"`
	Source           string         `json:"source"`
	LinesGenerated   *int           `json:"lines_generated,omitempty"`
	LinesChanged     *int           `json:"lines_changed,omitempty"`
	LinesSinceReview *int           `json:"lines_since_review,omitempty"`
	LinesAdded       *int           `json:"lines_added,omitempty"`
	LinesRemoved     *int           `json:"lines_removed,omitempty"`
	IsReviewed       *bool          `json:"is_reviewed,omitempty"`
	ReviewScore      *float64       `json:"review_score,omitempty"`
	ReviewQuality    *ReviewQuality `json:"review_quality,omitempty"`
	AgentSessionID   *string        `json:"agent_session_id,omitempty"`
	TotalReviewTime  *int64         `json:"total_review_time,omitempty"`
	ScrollEvents     *int           `json:"scroll_events,omitempty"`
	CursorMovements  *int           `json:"cursor_movements,omitempty"`
	FocusTime        *int64         `json:"focus_time,omitempty"`
}

// DailyMetrics aggregates one day of tracked activity for a developer.
type DailyMetrics struct {
	ID             string  `json:"id" db:"id"`
	Date           string  `json:"date" db:"date"`
	AIPercentage   float64 `json:"ai_percentage" db:"ai_percentage"`
	AvgReviewTime  int64   `json:"avg_review_time" db:"avg_review_time"` // ms
	BlindApprovals int     `json:"blind_approvals" db:"blind_approvals"`
	EventsTracked  int     `json:"events_tracked" db:"events_tracked"`
	LinesGenerated int     `json:"lines_generated" db:"lines_generated"`
}
