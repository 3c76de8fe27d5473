package primary

import "context"

// RunService defines the primary port for orchestrating runs.
type RunService interface {
	// StartRun creates a fresh run and drives it to completion or first failure.
	StartRun(ctx context.Context, req StartRunRequest) (*RunResult, error)

	// ResumeRun continues an existing run from its last logged iteration.
	ResumeRun(ctx context.Context, req ResumeRunRequest) (*RunResult, error)

	// GetRun retrieves registry status for one run directory.
	GetRun(ctx context.Context, dir string) (*RunStatus, error)

	// ListRuns lists known runs with optional filters.
	ListRuns(ctx context.Context, filters RunFilters) ([]*RunStatus, error)
}

// StartRunRequest contains parameters for creating a fresh run.
type StartRunRequest struct {
	Task     string
	Target   int    // linear iterations; ignored for review/branch shapes
	Workflow string // linear, review, branch
	Rounds   int    // review rounds (review workflow only)
	Branches int    // candidate count (branch workflow only)
	RunsBase string // base directory for run directories
	// SnapshotLimit bounds the codebase file listing embedded into the task
	// artifact; 0 disables the snapshot entirely.
	SnapshotLimit int
	WorkDir       string
	Dry           bool
}

// ResumeRunRequest contains parameters for resuming an existing run.
type ResumeRunRequest struct {
	Dir string
	// Target is honored only when HasTarget is set; it overrides the ledger's
	// declared target and the override persists for later resumes.
	Target    int
	HasTarget bool
	WorkDir   string
	Dry       bool
}

// RunResult reports what a start or resume actually did.
type RunResult struct {
	Dir      string
	Workflow string
	Target   int
	// Executed is the number of stage invocations performed in this process.
	Executed int
	// NothingToDo is set when a resume found the run already complete.
	NothingToDo bool
}

// RunStatus is a registry view of a run.
type RunStatus struct {
	Dir       string
	Summary   string
	Workflow  string
	Target    int
	LastIndex int
	Status    string
	CreatedAt string
	UpdatedAt string
}

// RunFilters narrows ListRuns results.
type RunFilters struct {
	Status   string
	Workflow string
}
