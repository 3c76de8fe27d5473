// Package secondary defines the secondary ports (driven adapters) for the application.
package secondary

import "context"

// RunRecord is the registry row for a run. The registry is an advisory index
// for list/status commands; the per-run text ledger stays the sole source of
// truth for resume decisions.
type RunRecord struct {
	Dir       string
	Summary   string
	Workflow  string
	Target    int
	LastIndex int
	Status    string // running, completed, failed
	CreatedAt string
	UpdatedAt string
}

// RunFilters narrows List results.
type RunFilters struct {
	Status   string
	Workflow string
}

// RunRepository defines the secondary port for the run registry.
type RunRepository interface {
	// Upsert inserts or updates a run row keyed by directory.
	Upsert(ctx context.Context, rec *RunRecord) error

	// GetByDir retrieves a run row by directory.
	GetByDir(ctx context.Context, dir string) (*RunRecord, error)

	// List returns run rows matching the filters, newest first.
	List(ctx context.Context, filters RunFilters) ([]*RunRecord, error)
}

// LogWriter records audit events for registry mutations.
type LogWriter interface {
	LogEvent(ctx context.Context, runDir, event, detail string) error
}
