package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// LogWriterAdapter implements secondary.LogWriter against the run_events table.
type LogWriterAdapter struct {
	db *sql.DB
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(db *sql.DB) *LogWriterAdapter {
	return &LogWriterAdapter{db: db}
}

// LogEvent records an audit event for a run.
func (w *LogWriterAdapter) LogEvent(ctx context.Context, runDir, event, detail string) error {
	_, err := w.db.ExecContext(ctx,
		"INSERT INTO run_events (run_dir, event, detail) VALUES (?, ?, ?)",
		runDir, event, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}
