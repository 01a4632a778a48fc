package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/yomu/internal/models"
)

// SQLiteArchive implements Archive using SQLite.
type SQLiteArchive struct {
	db   *sql.DB
	path string
}

// NewSQLiteArchive opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteArchive{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		request_key TEXT NOT NULL,
		persona TEXT NOT NULL,
		job_to_be_done TEXT NOT NULL,
		query TEXT NOT NULL,
		report TEXT NOT NULL,
		section_count INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_request_key ON runs(request_key);

	CREATE TABLE IF NOT EXISTS run_sections (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		document_id TEXT NOT NULL,
		title TEXT NOT NULL,
		page INTEGER NOT NULL,
		score REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_run_sections_run_id ON run_sections(run_id, rank);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts a run and its scored sections in one transaction.
// CreatedAt is set when zero.
func (s *SQLiteArchive) SaveRun(ctx context.Context, run *models.Run) error {
	if run.Report == nil {
		return fmt.Errorf("save run %s: missing report", run.ID)
	}
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta := run.Report.Metadata
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, request_key, persona, job_to_be_done, query, report, section_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RequestKey, meta.Persona, meta.JobToBeDone, run.Query, string(reportJSON),
		len(run.Report.ExtractedSections), run.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_sections (run_id, rank, document_id, title, page, score)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sec := range run.Sections {
		if _, err := stmt.ExecContext(ctx, run.ID, sec.Rank, sec.DocumentID, sec.Title, sec.Page, sec.Score); err != nil {
			return fmt.Errorf("insert run section: %w", err)
		}
	}
	return tx.Commit()
}

// GetRun returns a run with its report and scored sections.
func (s *SQLiteArchive) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	var reportJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, request_key, query, report, created_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.RequestKey, &run.Query, &reportJSON, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run.Report = &models.Report{}
	if err := json.Unmarshal([]byte(reportJSON), run.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, document_id, title, page, score
		 FROM run_sections WHERE run_id = ? ORDER BY rank, rowid`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Sections = []models.RunSection{}
	for rows.Next() {
		var sec models.RunSection
		if err := rows.Scan(&sec.Rank, &sec.DocumentID, &sec.Title, &sec.Page, &sec.Score); err != nil {
			return nil, err
		}
		run.Sections = append(run.Sections, sec)
	}
	return &run, rows.Err()
}

// ListRuns returns run summaries with offset and limit, newest first.
func (s *SQLiteArchive) ListRuns(ctx context.Context, offset, limit int) ([]*models.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_key, persona, job_to_be_done, section_count, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*models.RunSummary{}
	for rows.Next() {
		var r models.RunSummary
		if err := rows.Scan(&r.ID, &r.RequestKey, &r.Persona, &r.JobToBeDone, &r.SectionCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// CountRuns returns the total number of archived runs.
func (s *SQLiteArchive) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// SizeBytes returns the on-disk size of the database including its WAL files.
// Missing files count as zero.
func (s *SQLiteArchive) SizeBytes() (int64, error) {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Close closes the database connection.
func (s *SQLiteArchive) Close() error {
	return s.db.Close()
}
