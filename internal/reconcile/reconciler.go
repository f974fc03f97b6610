// Package reconcile merges an incoming partial file-review update with the
// previously persisted row for the same (file, date, tool) key.
package reconcile

import (
	"log/slog"
	"time"

	"github.com/reviewsense/reviewsense/internal/errors"
	"github.com/reviewsense/reviewsense/internal/models"
)

// Reconciler produces the row to persist from (existing row | nil, update).
// The merge is a pure data transformation; fetching and storing the rows is
// the caller's job, and the caller must serialize calls per key.
type Reconciler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{
		logger: slog.Default().With("component", "reconciler"),
		now:    time.Now,
	}
}

// Reconcile merges update into existing and returns the new row. existing may
// be nil for a first-ever insert. An update without a complete key is caller
// misuse and fails fast; nothing about it may be persisted.
func (r *Reconciler) Reconcile(existing *models.FileReviewStatus, update models.ReviewUpdate) (*models.FileReviewStatus, error) {
	if update.FilePath == "" || update.Date == "" || update.Source == "" {
		return nil, errors.ValidationError("reconcile requires a complete (file_path, date, source) key").
			WithContext("file_path", update.FilePath).
			WithContext("date", update.Date)
	}

	now := r.now()
	row := &models.FileReviewStatus{
		FilePath:      update.FilePath,
		Date:          update.Date,
		Source:        update.Source,
		ReviewQuality: models.ReviewNone,
		SchemaVersion: models.FileReviewSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if existing != nil {
		copied := *existing
		row = &copied
		row.SchemaVersion = models.FileReviewSchemaVersion
		row.UpdatedAt = now
	}

	// Session continuity: a different agent session on an existing row means
	// new content has arrived since the last state was computed.
	newModification := existing != nil &&
		existing.AgentSessionID != "" &&
		update.AgentSessionID != nil &&
		*update.AgentSessionID != existing.AgentSessionID
	if update.AgentSessionID != nil {
		row.AgentSessionID = *update.AgentSessionID
	}

	row.IsReviewed = r.mergeReviewed(existing, update, newModification)
	r.mergeScore(row, existing, update)
	r.mergeLines(row, update)
	r.mergeInteraction(row, update)

	r.clampInvariants(row)
	return row, nil
}

// mergeReviewed applies the review-state rules: earned review status survives
// unrelated updates but never survives a new modification.
func (r *Reconciler) mergeReviewed(existing *models.FileReviewStatus, update models.ReviewUpdate, newModification bool) bool {
	if newModification {
		// New content is unreviewed by definition, whatever the caller says.
		return false
	}
	if existing != nil && existing.IsReviewed {
		return true
	}
	if update.IsReviewed != nil {
		return *update.IsReviewed
	}
	return existing != nil && existing.IsReviewed
}

// mergeScore preserves the best-known review score and quality. Partial
// review credit is never destroyed by a later, unrelated update.
func (r *Reconciler) mergeScore(row *models.FileReviewStatus, existing *models.FileReviewStatus, update models.ReviewUpdate) {
	if update.ReviewScore != nil {
		score := *update.ReviewScore
		if existing == nil || score > existing.ReviewScore {
			row.ReviewScore = score
			if update.ReviewQuality != nil {
				row.ReviewQuality = *update.ReviewQuality
			} else {
				row.ReviewQuality = models.QualityForScore(score)
			}
		}
	} else if update.ReviewQuality != nil && (existing == nil || existing.ReviewScore == 0) {
		row.ReviewQuality = *update.ReviewQuality
	}

	if update.TotalReviewTime != nil && *update.TotalReviewTime > row.TotalReviewTime {
		row.TotalReviewTime = *update.TotalReviewTime
	}
}

// mergeLines applies the line-count rules. linesGenerated never decreases;
// linesSinceReview is forced to 0 on a reviewed row, taken as-is when the
// caller provides it, and otherwise preserved (a periodic-aggregation refresh
// must not disturb it).
func (r *Reconciler) mergeLines(row *models.FileReviewStatus, update models.ReviewUpdate) {
	if update.LinesGenerated != nil && *update.LinesGenerated > row.LinesGenerated {
		row.LinesGenerated = *update.LinesGenerated
	}
	if update.LinesChanged != nil {
		row.LinesChanged = *update.LinesChanged
	}
	if update.LinesAdded != nil {
		row.LinesAdded = *update.LinesAdded
	}
	if update.LinesRemoved != nil {
		row.LinesRemoved = *update.LinesRemoved
	}

	switch {
	case row.IsReviewed:
		row.LinesSinceReview = 0
	case update.LinesSinceReview != nil:
		// The caller has already accumulated deltas; never double-add.
		row.LinesSinceReview = *update.LinesSinceReview
	}
}

// mergeInteraction takes interaction counters as provided; they are
// accumulated by the external reviewer-behavior tracker, not by this core.
func (r *Reconciler) mergeInteraction(row *models.FileReviewStatus, update models.ReviewUpdate) {
	if update.ScrollEvents != nil {
		row.ScrollEvents = *update.ScrollEvents
	}
	if update.CursorMovements != nil {
		row.CursorMovements = *update.CursorMovements
	}
	if update.FocusTime != nil {
		row.FocusTime = *update.FocusTime
	}
}

// clampInvariants repairs internally inconsistent numbers instead of
// persisting them. Violations are logged for telemetry, never propagated.
func (r *Reconciler) clampInvariants(row *models.FileReviewStatus) {
	if row.LinesGenerated < 0 {
		row.LinesGenerated = 0
	}
	if row.LinesSinceReview < 0 {
		row.LinesSinceReview = 0
	}
	if row.LinesSinceReview > row.LinesGenerated {
		r.logger.Warn("lines_since_review exceeds lines_generated, clamping",
			"file_path", row.FilePath,
			"lines_since_review", row.LinesSinceReview,
			"lines_generated", row.LinesGenerated)
		row.LinesSinceReview = row.LinesGenerated
	}
	if row.ReviewScore < 0 {
		row.ReviewScore = 0
	}
	if row.ReviewScore > 100 {
		row.ReviewScore = 100
	}
	if row.LinesAdded < 0 {
		row.LinesAdded = 0
	}
	if row.LinesRemoved < 0 {
		row.LinesRemoved = 0
	}
	if row.TotalReviewTime < 0 {
		row.TotalReviewTime = 0
	}
}
