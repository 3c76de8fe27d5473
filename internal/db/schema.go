package db

// SchemaSQL is the complete schema for fresh installs. The registry indexes
// run directories for list/status commands; the per-run ledger file remains
// the source of truth for resume decisions, so rows here are rebuildable.
const SchemaSQL = `
-- Runs (advisory index over run directories)
CREATE TABLE IF NOT EXISTS runs (
	dir TEXT PRIMARY KEY,
	summary TEXT,
	workflow TEXT NOT NULL CHECK(workflow IN ('linear', 'review', 'branch')),
	target INTEGER NOT NULL,
	last_index INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'failed')) DEFAULT 'running',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Run events (audit trail of registry mutations)
CREATE TABLE IF NOT EXISTS run_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_dir TEXT NOT NULL,
	event TEXT NOT NULL,
	detail TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_run_events_run_dir ON run_events(run_dir);
`
