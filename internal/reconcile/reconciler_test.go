package reconcile

import (
	"testing"
	"time"

	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int                                    { return &v }
func int64p(v int64) *int64                              { return &v }
func boolp(v bool) *bool                                 { return &v }
func floatp(v float64) *float64                          { return &v }
func strp(v string) *string                              { return &v }
func qualp(v models.ReviewQuality) *models.ReviewQuality { return &v }

func baseUpdate() models.ReviewUpdate {
	return models.ReviewUpdate{
		FilePath: "src/main.go",
		Date:     "2026-08-28",
		Source:   "cursor",
	}
}

func TestReconcile_RejectsIncompleteKey(t *testing.T) {
	r := NewReconciler()

	for _, update := range []models.ReviewUpdate{
		{Date: "2026-08-28", Source: "cursor"},
		{FilePath: "a.go", Source: "cursor"},
		{FilePath: "a.go", Date: "2026-08-28"},
	} {
		_, err := r.Reconcile(nil, update)
		assert.Error(t, err)
	}
}

func TestReconcile_FirstInsert(t *testing.T) {
	r := NewReconciler()
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	update := baseUpdate()
	update.LinesGenerated = intp(200)
	update.LinesSinceReview = intp(200)
	update.AgentSessionID = strp("s1")

	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)

	assert.Equal(t, 200, row.LinesGenerated)
	assert.Equal(t, 200, row.LinesSinceReview)
	assert.False(t, row.IsReviewed)
	assert.Equal(t, "s1", row.AgentSessionID)
	assert.Equal(t, fixed, row.CreatedAt)
	assert.Equal(t, fixed, row.UpdatedAt)
	assert.Equal(t, models.FileReviewSchemaVersion, row.SchemaVersion)
}

func TestReconcile_MarkReviewedZeroesLinesSinceReview(t *testing.T) {
	r := NewReconciler()

	update := baseUpdate()
	update.LinesGenerated = intp(200)
	update.LinesSinceReview = intp(200)
	update.AgentSessionID = strp("s1")
	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)

	mark := baseUpdate()
	mark.IsReviewed = boolp(true)
	mark.AgentSessionID = strp("s1")
	row, err = r.Reconcile(row, mark)
	require.NoError(t, err)

	assert.True(t, row.IsReviewed)
	assert.Equal(t, 0, row.LinesSinceReview)
	assert.Equal(t, 200, row.LinesGenerated)
}

func TestReconcile_NewSessionReopensReview(t *testing.T) {
	r := NewReconciler()

	existing := &models.FileReviewStatus{
		FilePath:       "src/main.go",
		Date:           "2026-08-28",
		Source:         "cursor",
		LinesGenerated: 200,
		IsReviewed:     true,
		AgentSessionID: "s1",
	}

	update := baseUpdate()
	update.AgentSessionID = strp("s2")
	update.LinesGenerated = intp(230)
	update.LinesSinceReview = intp(30)
	// The incoming flag lies; a new modification is never reviewed.
	update.IsReviewed = boolp(true)

	row, err := r.Reconcile(existing, update)
	require.NoError(t, err)

	assert.False(t, row.IsReviewed)
	assert.Equal(t, 230, row.LinesGenerated)
	assert.Equal(t, 30, row.LinesSinceReview)
	assert.Equal(t, "s2", row.AgentSessionID)
}

func TestReconcile_SameSessionPreservesReviewedState(t *testing.T) {
	r := NewReconciler()

	existing := &models.FileReviewStatus{
		FilePath:       "src/main.go",
		Date:           "2026-08-28",
		Source:         "cursor",
		LinesGenerated: 200,
		IsReviewed:     true,
		AgentSessionID: "s1",
	}

	update := baseUpdate()
	update.AgentSessionID = strp("s1")
	update.IsReviewed = boolp(false)

	row, err := r.Reconcile(existing, update)
	require.NoError(t, err)
	assert.True(t, row.IsReviewed, "same-burst updates never demote a reviewed file")
	assert.Equal(t, 0, row.LinesSinceReview)
}

func TestReconcile_PeriodicRefreshIsIdempotent(t *testing.T) {
	r := NewReconciler()

	update := baseUpdate()
	update.LinesGenerated = intp(120)
	update.LinesSinceReview = intp(45)
	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)
	require.Equal(t, 45, row.LinesSinceReview)

	// A background refresh carries no linesSinceReview.
	refresh := baseUpdate()
	refresh.LinesGenerated = intp(120)
	row, err = r.Reconcile(row, refresh)
	require.NoError(t, err)
	assert.Equal(t, 45, row.LinesSinceReview, "refresh must leave linesSinceReview unchanged")

	row, err = r.Reconcile(row, refresh)
	require.NoError(t, err)
	assert.Equal(t, 45, row.LinesSinceReview)
}

func TestReconcile_ReviewCreditIsNeverReduced(t *testing.T) {
	r := NewReconciler()

	update := baseUpdate()
	update.TotalReviewTime = int64p(90_000)
	update.ReviewScore = floatp(82)
	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)
	require.Equal(t, int64(90_000), row.TotalReviewTime)
	require.Equal(t, 82.0, row.ReviewScore)
	require.Equal(t, models.ReviewThorough, row.ReviewQuality)

	smaller := baseUpdate()
	smaller.TotalReviewTime = int64p(5000)
	smaller.ReviewScore = floatp(10)
	row, err = r.Reconcile(row, smaller)
	require.NoError(t, err)
	assert.Equal(t, int64(90_000), row.TotalReviewTime)
	assert.Equal(t, 82.0, row.ReviewScore)
	assert.Equal(t, models.ReviewThorough, row.ReviewQuality)

	absent := baseUpdate()
	row, err = r.Reconcile(row, absent)
	require.NoError(t, err)
	assert.Equal(t, int64(90_000), row.TotalReviewTime)
	assert.Equal(t, 82.0, row.ReviewScore)
}

func TestReconcile_BetterScoreReplacesWorse(t *testing.T) {
	r := NewReconciler()

	update := baseUpdate()
	update.ReviewScore = floatp(35)
	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)
	require.Equal(t, models.ReviewNone, row.ReviewQuality)

	better := baseUpdate()
	better.ReviewScore = floatp(65)
	better.ReviewQuality = qualp(models.ReviewLight)
	row, err = r.Reconcile(row, better)
	require.NoError(t, err)
	assert.Equal(t, 65.0, row.ReviewScore)
	assert.Equal(t, models.ReviewLight, row.ReviewQuality)
}

func TestReconcile_LinesGeneratedNeverDecreases(t *testing.T) {
	r := NewReconciler()

	update := baseUpdate()
	update.LinesGenerated = intp(300)
	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)

	shrink := baseUpdate()
	shrink.LinesGenerated = intp(100)
	row, err = r.Reconcile(row, shrink)
	require.NoError(t, err)
	assert.Equal(t, 300, row.LinesGenerated)
}

func TestReconcile_AddedRemovedPreservedIndependently(t *testing.T) {
	r := NewReconciler()

	update := baseUpdate()
	update.LinesAdded = intp(40)
	update.LinesRemoved = intp(12)
	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)

	partial := baseUpdate()
	partial.LinesAdded = intp(55)
	row, err = r.Reconcile(row, partial)
	require.NoError(t, err)
	assert.Equal(t, 55, row.LinesAdded)
	assert.Equal(t, 12, row.LinesRemoved, "untouched counter carries over")
}

func TestReconcile_ClampsInconsistentLinesSinceReview(t *testing.T) {
	r := NewReconciler()

	update := baseUpdate()
	update.LinesGenerated = intp(100)
	update.LinesSinceReview = intp(500)

	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)
	assert.Equal(t, 100, row.LinesSinceReview, "violations are clamped, not propagated")
}

func TestReconcile_CreatedAtFixedUpdatedAtRefreshed(t *testing.T) {
	r := NewReconciler()
	first := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	r.now = func() time.Time { return first }
	update := baseUpdate()
	update.LinesGenerated = intp(10)
	row, err := r.Reconcile(nil, update)
	require.NoError(t, err)

	r.now = func() time.Time { return second }
	row, err = r.Reconcile(row, baseUpdate())
	require.NoError(t, err)
	assert.Equal(t, first, row.CreatedAt)
	assert.Equal(t, second, row.UpdatedAt)
}

// End-to-end scenario from the engine's contract: generate, review, new burst.
func TestReconcile_FullLifecycle(t *testing.T) {
	r := NewReconciler()

	// Event A: 200 lines land in session s1.
	a := baseUpdate()
	a.LinesGenerated = intp(200)
	a.LinesSinceReview = intp(200)
	a.AgentSessionID = strp("s1")
	row, err := r.Reconcile(nil, a)
	require.NoError(t, err)
	assert.Equal(t, 200, row.LinesGenerated)
	assert.Equal(t, 200, row.LinesSinceReview)
	assert.False(t, row.IsReviewed)

	// Developer reviews the file.
	mark := baseUpdate()
	mark.IsReviewed = boolp(true)
	mark.AgentSessionID = strp("s1")
	row, err = r.Reconcile(row, mark)
	require.NoError(t, err)
	assert.True(t, row.IsReviewed)
	assert.Equal(t, 0, row.LinesSinceReview)

	// Event B: session s2 adds 30 more lines.
	b := baseUpdate()
	b.LinesGenerated = intp(230)
	b.LinesSinceReview = intp(30)
	b.AgentSessionID = strp("s2")
	row, err = r.Reconcile(row, b)
	require.NoError(t, err)
	assert.Equal(t, 230, row.LinesGenerated)
	assert.Equal(t, 30, row.LinesSinceReview)
	assert.False(t, row.IsReviewed)
}
