// Package sqlite persists the run-history audit log. The store is an
// append-only record of runs and posted comments; review decisions
// never read from it.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// Store implements the review.Store port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The foreign_keys pragma is per-connection, and an in-memory
	// database is too: a second pooled connection would see neither.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per pipeline run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		head_sha TEXT NOT NULL,
		files_reviewed INTEGER NOT NULL DEFAULT 0,
		units_posted INTEGER NOT NULL DEFAULT 0,
		units_clean INTEGER NOT NULL DEFAULT 0,
		units_skipped INTEGER NOT NULL DEFAULT 0,
		units_failed INTEGER NOT NULL DEFAULT 0
	);

	-- One row per posted comment
	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		position INTEGER NOT NULL,
		body TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_comments_run ON comments(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_pr ON runs(owner, repo, pull_number);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// CreateRun inserts the run row before any comments reference it.
func (s *Store) CreateRun(ctx context.Context, run review.StoreRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, timestamp, owner, repo, pull_number, head_sha)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Timestamp.Unix(), run.Owner, run.Repo, run.PullNumber, run.HeadSHA)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRunSummary writes the final counters once the run completes.
func (s *Store) UpdateRunSummary(ctx context.Context, runID string, summary domain.RunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET files_reviewed = ?, units_posted = ?, units_clean = ?,
			units_skipped = ?, units_failed = ?
		WHERE run_id = ?`,
		summary.FilesReviewed, summary.UnitsPosted, summary.UnitsClean,
		summary.UnitsSkipped, summary.UnitsFailed, runID)
	if err != nil {
		return fmt.Errorf("failed to update run summary: %w", err)
	}
	return nil
}

// SaveComment inserts one posted-comment record.
func (s *Store) SaveComment(ctx context.Context, comment review.StoreComment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (run_id, file, position, body)
		VALUES (?, ?, ?, ?)`,
		comment.RunID, comment.File, comment.Position, comment.Body)
	if err != nil {
		return fmt.Errorf("failed to save comment: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
