package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/reviewsense/reviewsense/internal/reconcile"
)

// ReviewStore is the slice of the storage collaborator the applier needs.
type ReviewStore interface {
	GetFileReview(ctx context.Context, filePath, date, source string) (*models.FileReviewStatus, error)
	PutFileReview(ctx context.Context, row *models.FileReviewStatus) error
}

// Applier runs the read-reconcile-write sequence against the store. The
// sequence is not atomic, so the applier serializes it per (file, date, tool)
// key; that is the integration-boundary locking the reconciler itself
// deliberately does not do.
type Applier struct {
	store      ReviewStore
	reconciler *reconcile.Reconciler

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// NewApplier creates an applier over the given store.
func NewApplier(store ReviewStore) *Applier {
	return &Applier{
		store:      store,
		reconciler: reconcile.NewReconciler(),
		keys:       make(map[string]*sync.Mutex),
	}
}

// Apply folds one routed event into its file-review row and persists the
// result. Events that do not land code, or carry no file path, are skipped
// and return (nil, nil).
func (a *Applier) Apply(ctx context.Context, event *models.TrackingEvent, result RouteResult) (*models.FileReviewStatus, error) {
	if result.Duplicate || event.FilePath == "" {
		return nil, nil
	}
	if event.Kind != models.EventSuggestionAccepted && event.Kind != models.EventCodeGenerated {
		return nil, nil
	}

	date := DateOf(event.Timestamp)
	unlock := a.lockKey(event.FilePath, date, event.Source)
	defer unlock()

	existing, err := a.store.GetFileReview(ctx, event.FilePath, date, event.Source)
	if err != nil {
		return nil, fmt.Errorf("fetch file review row: %w", err)
	}

	update := a.buildUpdate(event, result, existing, date)
	row, err := a.reconciler.Reconcile(existing, update)
	if err != nil {
		return nil, err
	}
	if err := a.store.PutFileReview(ctx, row); err != nil {
		return nil, fmt.Errorf("persist file review row: %w", err)
	}
	return row, nil
}

// MarkReviewed records that the developer reviewed the file, through the same
// serialized reconcile path as event updates.
func (a *Applier) MarkReviewed(ctx context.Context, filePath, date, source string, score float64, reviewTime int64) (*models.FileReviewStatus, error) {
	unlock := a.lockKey(filePath, date, source)
	defer unlock()

	existing, err := a.store.GetFileReview(ctx, filePath, date, source)
	if err != nil {
		return nil, fmt.Errorf("fetch file review row: %w", err)
	}

	reviewed := true
	quality := models.QualityForScore(score)
	update := models.ReviewUpdate{
		FilePath:      filePath,
		Date:          date,
		Source:        source,
		IsReviewed:    &reviewed,
		ReviewScore:   &score,
		ReviewQuality: &quality,
	}
	if reviewTime > 0 {
		total := reviewTime
		if existing != nil {
			total += existing.TotalReviewTime
		}
		update.TotalReviewTime = &total
	}

	row, err := a.reconciler.Reconcile(existing, update)
	if err != nil {
		return nil, err
	}
	if err := a.store.PutFileReview(ctx, row); err != nil {
		return nil, fmt.Errorf("persist file review row: %w", err)
	}
	return row, nil
}

// buildUpdate translates an event into the accumulated partial update the
// reconciler expects. Accumulation happens here, against the row just read
// under the key lock; the reconciler itself never adds.
func (a *Applier) buildUpdate(event *models.TrackingEvent, result RouteResult, existing *models.FileReviewStatus, date string) models.ReviewUpdate {
	update := models.ReviewUpdate{
		FilePath: event.FilePath,
		Date:     date,
		Source:   event.Source,
	}

	if event.LinesOfCode != nil {
		lines := *event.LinesOfCode
		generated := lines
		sinceReview := lines
		changed := lines
		added := lines
		if existing != nil {
			generated += existing.LinesGenerated
			sinceReview += existing.LinesSinceReview
			changed += existing.LinesChanged
			added += existing.LinesAdded
		}
		update.LinesGenerated = &generated
		update.LinesSinceReview = &sinceReview
		update.LinesChanged = &changed
		update.LinesAdded = &added
	}
	if event.LinesRemoved != nil {
		removed := *event.LinesRemoved
		if existing != nil {
			removed += existing.LinesRemoved
		}
		update.LinesRemoved = &removed
	}

	if result.Session.Session != nil {
		id := result.Session.Session.ID
		update.AgentSessionID = &id
	}
	if result.ReviewQuality != nil {
		score := result.ReviewQuality.Score
		quality := result.ReviewQuality.Category
		update.ReviewScore = &score
		update.ReviewQuality = &quality
	}
	if event.AcceptanceTimeDelta != nil && *event.AcceptanceTimeDelta > 0 {
		total := *event.AcceptanceTimeDelta
		if existing != nil {
			total += existing.TotalReviewTime
		}
		update.TotalReviewTime = &total
	}
	return update
}

// lockKey serializes reconciliation per row key.
func (a *Applier) lockKey(filePath, date, source string) func() {
	key := filePath + "|" + date + "|" + source
	a.mu.Lock()
	m, ok := a.keys[key]
	if !ok {
		m = &sync.Mutex{}
		a.keys[key] = m
	}
	a.mu.Unlock()
	m.Lock()
	return m.Unlock
}
