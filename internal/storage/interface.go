package storage

import (
	"context"
	"errors"

	"github.com/reviewsense/reviewsense/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store defines the storage interface for the review-tracking collaborator.
// The engine reads and writes rows; it never owns the schema.
type Store interface {
	// File review operations
	GetFileReview(ctx context.Context, filePath, date, source string) (*models.FileReviewStatus, error)
	PutFileReview(ctx context.Context, row *models.FileReviewStatus) error
	ListFileReviews(ctx context.Context, date string) ([]*models.FileReviewStatus, error)

	// Daily metrics operations
	SaveDailyMetrics(ctx context.Context, metrics *models.DailyMetrics) error
	GetDailyMetrics(ctx context.Context, date string) (*models.DailyMetrics, error)
	ListDailyMetrics(ctx context.Context, limit int) ([]*models.DailyMetrics, error)

	// Agent session operations
	SaveAgentSession(ctx context.Context, session *models.AgentSession) error
	ListAgentSessions(ctx context.Context, limit int) ([]*models.AgentSession, error)

	// Close connection
	Close() error
}
