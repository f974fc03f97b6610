package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/reviewsense/reviewsense/internal/models"
)

// SQLiteStore implements storage using SQLite (for local/single-developer use)
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
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
		is_reviewed INTEGER NOT NULL DEFAULT 0,
		review_score REAL NOT NULL DEFAULT 0,
		review_quality TEXT NOT NULL DEFAULT 'none',
		agent_session_id TEXT NOT NULL DEFAULT '',
		total_review_time INTEGER NOT NULL DEFAULT 0,
		scroll_events INTEGER NOT NULL DEFAULT 0,
		cursor_movements INTEGER NOT NULL DEFAULT 0,
		focus_time INTEGER NOT NULL DEFAULT 0,
		schema_version INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (file_path, date, source)
	);

	CREATE TABLE IF NOT EXISTS daily_metrics (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		ai_percentage REAL NOT NULL DEFAULT 0,
		avg_review_time INTEGER NOT NULL DEFAULT 0,
		blind_approvals INTEGER NOT NULL DEFAULT 0,
		events_tracked INTEGER NOT NULL DEFAULT 0,
		lines_generated INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS agent_sessions (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
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

func (s *SQLiteStore) GetFileReview(ctx context.Context, filePath, date, source string) (*models.FileReviewStatus, error) {
	var row models.FileReviewStatus
	err := s.db.GetContext(ctx, &row, `
		SELECT * FROM file_review_status
		WHERE file_path = ? AND date = ? AND source = ?
	`, filePath, date, source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file review: %w", err)
	}
	return &row, nil
}

func (s *SQLiteStore) PutFileReview(ctx context.Context, row *models.FileReviewStatus) error {
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
			lines_generated = excluded.lines_generated,
			lines_changed = excluded.lines_changed,
			lines_since_review = excluded.lines_since_review,
			lines_added = excluded.lines_added,
			lines_removed = excluded.lines_removed,
			is_reviewed = excluded.is_reviewed,
			review_score = excluded.review_score,
			review_quality = excluded.review_quality,
			agent_session_id = excluded.agent_session_id,
			total_review_time = excluded.total_review_time,
			scroll_events = excluded.scroll_events,
			cursor_movements = excluded.cursor_movements,
			focus_time = excluded.focus_time,
			schema_version = excluded.schema_version,
			updated_at = excluded.updated_at
	`, row)
	if err != nil {
		return fmt.Errorf("put file review: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListFileReviews(ctx context.Context, date string) ([]*models.FileReviewStatus, error) {
	var rows []*models.FileReviewStatus
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM file_review_status WHERE date = ? ORDER BY file_path
	`, date)
	if err != nil {
		return nil, fmt.Errorf("list file reviews: %w", err)
	}
	return rows, nil
}

// Daily metrics operations

func (s *SQLiteStore) SaveDailyMetrics(ctx context.Context, metrics *models.DailyMetrics) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO daily_metrics (
			id, date, ai_percentage, avg_review_time, blind_approvals,
			events_tracked, lines_generated
		) VALUES (
			:id, :date, :ai_percentage, :avg_review_time, :blind_approvals,
			:events_tracked, :lines_generated
		) ON CONFLICT (date) DO UPDATE SET
			ai_percentage = excluded.ai_percentage,
			avg_review_time = excluded.avg_review_time,
			blind_approvals = excluded.blind_approvals,
			events_tracked = excluded.events_tracked,
			lines_generated = excluded.lines_generated
	`, metrics)
	if err != nil {
		return fmt.Errorf("save daily metrics: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDailyMetrics(ctx context.Context, date string) (*models.DailyMetrics, error) {
	var m models.DailyMetrics
	err := s.db.GetContext(ctx, &m, `SELECT * FROM daily_metrics WHERE date = ?`, date)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get daily metrics: %w", err)
	}
	return &m, nil
}

func (s *SQLiteStore) ListDailyMetrics(ctx context.Context, limit int) ([]*models.DailyMetrics, error) {
	var rows []*models.DailyMetrics
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM daily_metrics ORDER BY date DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list daily metrics: %w", err)
	}
	return rows, nil
}

// Agent session operations

// sessionRow is the column-level shape of an agent session; the file set and
// signal flags are serialized as JSON in their columns.
type sessionRow struct {
	ID              string `db:"id"`
	Source          string `db:"source"`
	StartTime       int64  `db:"start_time"`
	EndTime         int64  `db:"end_time"`
	FilesAffected   string `db:"files_affected"`
	TotalLines      int    `db:"total_lines"`
	TotalCharacters int    `db:"total_characters"`
	Signals         string `db:"signals"`
	Confidence      string `db:"confidence"`
}

func sessionToRow(session *models.AgentSession) (*sessionRow, error) {
	files := make([]string, 0, len(session.FilesAffected))
	for f := range session.FilesAffected {
		files = append(files, f)
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("marshal files: %w", err)
	}
	signalsJSON, err := json.Marshal(session.Signals)
	if err != nil {
		return nil, fmt.Errorf("marshal signals: %w", err)
	}
	return &sessionRow{
		ID:              session.ID,
		Source:          session.Source,
		StartTime:       session.StartTime,
		EndTime:         session.EndTime,
		FilesAffected:   string(filesJSON),
		TotalLines:      session.TotalLines,
		TotalCharacters: session.TotalCharacters,
		Signals:         string(signalsJSON),
		Confidence:      string(session.Confidence),
	}, nil
}

func rowToSession(row *sessionRow) (*models.AgentSession, error) {
	var files []string
	if err := json.Unmarshal([]byte(row.FilesAffected), &files); err != nil {
		return nil, fmt.Errorf("unmarshal files: %w", err)
	}
	var signals models.SessionSignals
	if err := json.Unmarshal([]byte(row.Signals), &signals); err != nil {
		return nil, fmt.Errorf("unmarshal signals: %w", err)
	}
	session := &models.AgentSession{
		ID:              row.ID,
		Source:          row.Source,
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		FilesAffected:   make(map[string]bool, len(files)),
		TotalLines:      row.TotalLines,
		TotalCharacters: row.TotalCharacters,
		Signals:         signals,
		Confidence:      models.Confidence(row.Confidence),
	}
	for _, f := range files {
		session.FilesAffected[f] = true
	}
	return session, nil
}

func (s *SQLiteStore) SaveAgentSession(ctx context.Context, session *models.AgentSession) error {
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
			end_time = excluded.end_time,
			files_affected = excluded.files_affected,
			total_lines = excluded.total_lines,
			total_characters = excluded.total_characters,
			signals = excluded.signals,
			confidence = excluded.confidence
	`, row)
	if err != nil {
		return fmt.Errorf("save agent session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAgentSessions(ctx context.Context, limit int) ([]*models.AgentSession, error) {
	var rows []*sessionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM agent_sessions ORDER BY start_time DESC LIMIT ?
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
