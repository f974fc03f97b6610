package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/reviewsense/reviewsense/internal/models"
)

// PostgresStore implements storage using PostgreSQL (for team/shared deployments)
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPostgresStore creates a new PostgreSQL storage
func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	store := &PostgresStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS file_review_status (
		file_path TEXT NOT NULL,
		date TEXT NOT NULL,
		source TEXT NOT NULL,
		lines_generated INTEGER NOT NULL DEFAULT 0,
		lines_changed INTEGER NOT NULL DEFAULT 0,
		lines_since_review INTEGER NOT NULL DEFAULT 0,
		lines_added INTEGER NOT NULL DEFAULT 0,
		lines_removed INTEGER NOT NULL DEFAULT 0,
		is_reviewed BOOLEAN NOT NULL DEFAULT FALSE,
		review_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_quality TEXT NOT NULL DEFAULT 'none',
		agent_session_id TEXT NOT NULL DEFAULT '',
		total_review_time BIGINT NOT NULL DEFAULT 0,
		scroll_events INTEGER NOT NULL DEFAULT 0,
		cursor_movements INTEGER NOT NULL DEFAULT 0,
		focus_time BIGINT NOT NULL DEFAULT 0,
		schema_version INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (file_path, date, source)
	);

	CREATE TABLE IF NOT EXISTS daily_metrics (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		ai_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_review_time BIGINT NOT NULL DEFAULT 0,
		blind_approvals INTEGER NOT NULL DEFAULT 0,
		events_tracked INTEGER NOT NULL DEFAULT 0,
		lines_generated INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS agent_sessions (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		start_time BIGINT NOT NULL,
		end_time BIGINT NOT NULL,
		files_affected TEXT NOT NULL DEFAULT '[]',
		total_lines INTEGER NOT NULL DEFAULT 0,
		total_characters INTEGER NOT NULL DEFAULT 0,
		signals TEXT NOT NULL DEFAULT '{}',
		confidence TEXT NOT NULL DEFAULT 'low'
	);

	CREATE INDEX IF NOT EXISTS idx_file_review_date ON file_review_status(date);
	CREATE INDEX IF NOT EXISTS idx_sessions_start ON agent_sessions(start_time);
	`

	_, err := s.db.Exec(schema)
	return err
}

// File review operations

func (s *PostgresStore) GetFileReview(ctx context.Context, filePath, date, source string) (*models.FileReviewStatus, error) {
	var row models.FileReviewStatus
	err := s.db.GetContext(ctx, &row, `
		SELECT * FROM file_review_status
		WHERE file_path = $1 AND date = $2 AND source = $3
	`, filePath, date, source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file review: %w", err)
	}
	return &row, nil
}

func (s *PostgresStore) PutFileReview(ctx context.Context, row *models.FileReviewStatus) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO file_review_status (
			file_path, date, source, lines_generated, lines_changed,
			lines_since_review, lines_added, lines_removed, is_reviewed,
			review_score, review_quality, agent_session_id, total_review_time,
			scroll_events, cursor_movements, focus_time, schema_version,
			created_at, updated_at
		) VALUES (
			:file_path, :date, :source, :lines_generated, :lines_changed,
			:lines_since_review, :lines_added, :lines_removed, :is_reviewed,
			:review_score, :review_quality, :agent_session_id, :total_review_time,
			:scroll_events, :cursor_movements, :focus_time, :schema_version,
			:created_at, :updated_at
		) ON CONFLICT (file_path, date, source) DO UPDATE SET
			lines_generated = EXCLUDED.lines_generated,
			lines_changed = EXCLUDED.lines_changed,
			lines_since_review = EXCLUDED.lines_since_review,
			lines_added = EXCLUDED.lines_added,
			lines_removed = EXCLUDED.lines_removed,
			is_reviewed = EXCLUDED.is_reviewed,
			review_score = EXCLUDED.review_score,
			review_quality = EXCLUDED.review_quality,
			agent_session_id = EXCLUDED.agent_session_id,
			total_review_time = EXCLUDED.total_review_time,
			scroll_events = EXCLUDED.scroll_events,
			cursor_movements = EXCLUDED.cursor_movements,
			focus_time = EXCLUDED.focus_time,
			schema_version = EXCLUDED.schema_version,
			updated_at = EXCLUDED.updated_at
	`, row)
	if err != nil {
		return fmt.Errorf("put file review: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFileReviews(ctx context.Context, date string) ([]*models.FileReviewStatus, error) {
	var rows []*models.FileReviewStatus
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM file_review_status WHERE date = $1 ORDER BY file_path
	`, date)
	if err != nil {
		return nil, fmt.Errorf("list file reviews: %w", err)
	}
	return rows, nil
}

// Daily metrics operations

func (s *PostgresStore) SaveDailyMetrics(ctx context.Context, metrics *models.DailyMetrics) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO daily_metrics (
			id, date, ai_percentage, avg_review_time, blind_approvals,
			events_tracked, lines_generated
		) VALUES (
			:id, :date, :ai_percentage, :avg_review_time, :blind_approvals,
			:events_tracked, :lines_generated
		) ON CONFLICT (date) DO UPDATE SET
			ai_percentage = EXCLUDED.ai_percentage,
			avg_review_time = EXCLUDED.avg_review_time,
			blind_approvals = EXCLUDED.blind_approvals,
			events_tracked = EXCLUDED.events_tracked,
			lines_generated = EXCLUDED.lines_generated
	`, metrics)
	if err != nil {
		return fmt.Errorf("save daily metrics: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDailyMetrics(ctx context.Context, date string) (*models.DailyMetrics, error) {
	var m models.DailyMetrics
	err := s.db.GetContext(ctx, &m, `SELECT * FROM daily_metrics WHERE date = $1`, date)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get daily metrics: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) ListDailyMetrics(ctx context.Context, limit int) ([]*models.DailyMetrics, error) {
	var rows []*models.DailyMetrics
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM daily_metrics ORDER BY date DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list daily metrics: %w", err)
	}
	return rows, nil
}

// Agent session operations

func (s *PostgresStore) SaveAgentSession(ctx context.Context, session *models.AgentSession) error {
	row, err := sessionToRow(session)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO agent_sessions (
			id, source, start_time, end_time, files_affected,
			total_lines, total_characters, signals, confidence
		) VALUES (
			:id, :source, :start_time, :end_time, :files_affected,
			:total_lines, :total_characters, :signals, :confidence
		) ON CONFLICT (id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			files_affected = EXCLUDED.files_affected,
			total_lines = EXCLUDED.total_lines,
			total_characters = EXCLUDED.total_characters,
			signals = EXCLUDED.signals,
			confidence = EXCLUDED.confidence
	`, row)
	if err != nil {
		return fmt.Errorf("save agent session: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAgentSessions(ctx context.Context, limit int) ([]*models.AgentSession, error) {
	var rows []*sessionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM agent_sessions ORDER BY start_time DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list agent sessions: %w", err)
	}
	sessions := make([]*models.AgentSession, 0, len(rows))
	for _, row := range rows {
		session, err := rowToSession(row)
		if err != nil {
			s.logger.WithError(err).WithField("session_id", row.ID).Warn("Skipping undecodable session row")
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
