// Package history persists classification runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"prodclass/pkg/types"
)

// Run is one classification call and its Results.
type Run struct {
	Mode      string
	Model     string
	StartedAt time.Time
	Elapsed   time.Duration
	Results   []types.Result
	// Products holds the input names; failed Results carry none of their own.
	Products []string
}

// RunSummary is a row of RecentRuns.
type RunSummary struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	Model      string    `json:"model"`
	StartedAt  time.Time `json:"started_at"`
	ElapsedSec float64   `json:"elapsed_sec"`
	Products   int       `json:"products"`
	Errors     int       `json:"errors"`
}

// CategoryStat aggregates successful stored Results of one category.
type CategoryStat struct {
	Category       string  `json:"category"`
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Store wraps the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS classification_runs (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	model       TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	elapsed_sec REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON classification_runs(started_at);

CREATE TABLE IF NOT EXISTS classification_results (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id             TEXT NOT NULL,
	product_name       TEXT DEFAULT '',
	predicted_category TEXT DEFAULT '',
	confidence         REAL DEFAULT 0,
	method             TEXT DEFAULT '',
	processing_time    REAL DEFAULT 0,
	error              TEXT DEFAULT '',
	created_at         DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_results_run ON classification_results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_category ON classification_results(predicted_category);
`

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// Serialises writers from concurrent HTTP handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// RecordRun stores r and returns its generated id.
func (s *Store) RecordRun(ctx context.Context, r Run) (string, error) {
	id := uuid.NewString()
	if r.StartedAt.IsZero() {
		r.StartedAt = s.now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO classification_runs (id, mode, model, started_at, elapsed_sec) VALUES (?, ?, ?, ?, ?)`,
		id, r.Mode, r.Model, r.StartedAt.UTC(), r.Elapsed.Seconds(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO classification_results (run_id, product_name, predicted_category, confidence, method, processing_time, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, res := range r.Results {
		name := res.ProductName
		if name == "" && i < len(r.Products) {
			name = r.Products[i]
		}
		if _, err := stmt.ExecContext(ctx, id, name, res.PredictedCategory, res.Confidence,
			res.Method, res.ProcessingTime, res.Error); err != nil {
			return "", fmt.Errorf("insert result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// CategoryStats returns per-category counts and mean confidence over all
// successful stored Results, largest first.
func (s *Store) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT predicted_category, COUNT(*), AVG(confidence)
		FROM classification_results
		WHERE error = ''
		GROUP BY predicted_category
		ORDER BY COUNT(*) DESC, predicted_category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryStat
	for rows.Next() {
		var c CategoryStat
		if err := rows.Scan(&c.Category, &c.Count, &c.MeanConfidence); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.mode, r.model, r.started_at, r.elapsed_sec,
		       COUNT(res.id), COALESCE(SUM(CASE WHEN res.error != '' THEN 1 ELSE 0 END), 0)
		FROM classification_runs r
		LEFT JOIN classification_results res ON res.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Mode, &r.Model, &r.StartedAt, &r.ElapsedSec, &r.Products, &r.Errors); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
