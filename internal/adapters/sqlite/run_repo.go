// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/loom/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Upsert inserts or updates a run row keyed by directory.
func (r *RunRepository) Upsert(ctx context.Context, rec *secondary.RunRecord) error {
	var summary sql.NullString
	if rec.Summary != "" {
		summary = sql.NullString{String: rec.Summary, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (dir, summary, workflow, target, last_index, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(dir) DO UPDATE SET
			summary = excluded.summary,
			workflow = excluded.workflow,
			target = excluded.target,
			last_index = excluded.last_index,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP`,
		rec.Dir, summary, rec.Workflow, rec.Target, rec.LastIndex, rec.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}
	return nil
}

// GetByDir retrieves a run row by directory.
func (r *RunRepository) GetByDir(ctx context.Context, dir string) (*secondary.RunRecord, error) {
	rec, err := scanRun(r.db.QueryRowContext(ctx,
		`SELECT dir, summary, workflow, target, last_index, status, created_at, updated_at
		FROM runs WHERE dir = ?`, dir))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// List returns run rows matching the filters, newest first.
func (r *RunRepository) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	query := `SELECT dir, summary, workflow, target, last_index, status, created_at, updated_at
		FROM runs WHERE 1=1`
	var args []interface{}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.Workflow != "" {
		query += " AND workflow = ?"
		args = append(args, filters.Workflow)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []*secondary.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*secondary.RunRecord, error) {
	var (
		summary   sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	rec := &secondary.RunRecord{}
	err := row.Scan(&rec.Dir, &summary, &rec.Workflow, &rec.Target, &rec.LastIndex, &rec.Status,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	rec.Summary = summary.String
	rec.CreatedAt = createdAt.Format(time.RFC3339)
	rec.UpdatedAt = updatedAt.Format(time.RFC3339)
	return rec, nil
}
