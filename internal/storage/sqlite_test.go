package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewsense/reviewsense/internal/models"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFileReviewRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Missing row returns (nil, nil), not an error
	got, err := store.GetFileReview(ctx, "api/server.go", "2026-08-28", "copilot")
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Now().UTC().Truncate(time.Second)
	row := &models.FileReviewStatus{
		FilePath:        "api/server.go",
		Date:            "2026-08-28",
		Source:          "copilot",
		LinesGenerated:  120,
		LinesChanged:    120,
		IsReviewed:      true,
		ReviewScore:     81,
		ReviewQuality:   models.ReviewThorough,
		AgentSessionID:  "sess-1",
		TotalReviewTime: 90_000,
		SchemaVersion:   models.FileReviewSchemaVersion,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, store.PutFileReview(ctx, row))

	got, err = store.GetFileReview(ctx, "api/server.go", "2026-08-28", "copilot")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 120, got.LinesGenerated)
	assert.Equal(t, models.ReviewThorough, got.ReviewQuality)
	assert.Equal(t, "sess-1", got.AgentSessionID)

	// Upsert on the same key replaces, not duplicates
	row.LinesGenerated = 150
	require.NoError(t, store.PutFileReview(ctx, row))

	list, err := store.ListFileReviews(ctx, "2026-08-28")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 150, list[0].LinesGenerated)
}

func TestDailyMetricsUpsertByDate(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.GetDailyMetrics(ctx, "2026-08-28")
	assert.ErrorIs(t, err, ErrNotFound)

	m := &models.DailyMetrics{
		ID:             "m1",
		Date:           "2026-08-28",
		AIPercentage:   37.5,
		EventsTracked:  10,
		LinesGenerated: 200,
	}
	require.NoError(t, store.SaveDailyMetrics(ctx, m))

	// Same date, new snapshot: one row, updated values
	m.EventsTracked = 25
	require.NoError(t, store.SaveDailyMetrics(ctx, m))

	got, err := store.GetDailyMetrics(ctx, "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, 25, got.EventsTracked)

	list, err := store.ListDailyMetrics(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAgentSessionRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	session := &models.AgentSession{
		ID:        "sess-1",
		Source:    "claude-code",
		StartTime: 1000,
		EndTime:   9000,
		FilesAffected: map[string]bool{
			"a.go": true,
			"b.go": true,
			"c.go": true,
		},
		TotalLines:      240,
		TotalCharacters: 8100,
		Signals: models.SessionSignals{
			RapidFileChanges:        true,
			ClosedFileModifications: true,
			ConsistentSource:        true,
		},
		Confidence: models.ConfidenceMedium,
	}
	require.NoError(t, store.SaveAgentSession(ctx, session))

	list, err := store.ListAgentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, "sess-1", got.ID)
	assert.Equal(t, 3, got.FileCount())
	assert.True(t, got.FilesAffected["b.go"])
	assert.Equal(t, 3, got.Signals.Count())
	assert.Equal(t, models.ConfidenceMedium, got.Confidence)

	// Re-saving the same session updates in place
	session.EndTime = 12_000
	require.NoError(t, store.SaveAgentSession(ctx, session))

	list, err = store.ListAgentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(12_000), list[0].EndTime)
}
