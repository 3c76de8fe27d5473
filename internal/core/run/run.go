// Package run defines run identity and the fresh/resume resolver. A run is a
// directory: a static task artifact, a progress ledger, and per-iteration
// prompt/output files. Everything needed to resume lives on disk; nothing is
// re-derived from in-memory state.
package run

import (
	"fmt"
	"path/filepath"
)

// Workflow shape names, persisted in the ledger header so a resume recovers
// the pipeline shape without the caller re-specifying it.
const (
	WorkflowLinear = "linear"
	WorkflowReview = "review"
	WorkflowBranch = "branch"
)

// Well-known file names inside a run directory.
const (
	TaskFileName   = "task.md"
	LedgerFileName = "ledger.md"
	IterationsDir  = "iterations"
)

// Run identifies one resumable unit of work on disk.
type Run struct {
	// Dir is the run directory, unique per run.
	Dir string
	// Target is the effective target iteration count.
	Target int
	// Workflow is one of the Workflow* constants.
	Workflow string
	// Branches is the candidate count for the branch workflow (0 otherwise).
	Branches int
	// Summary is the first line of the task text, used for registry rows.
	Summary string
	// Start is the first pending iteration index. Start > Target means the
	// run is already complete and there is nothing to do.
	Start int
}

// TaskPath returns the path of the immutable task artifact.
func (r *Run) TaskPath() string {
	return filepath.Join(r.Dir, TaskFileName)
}

// LedgerPath returns the path of the progress ledger.
func (r *Run) LedgerPath() string {
	return filepath.Join(r.Dir, LedgerFileName)
}

// PromptPath returns the per-iteration instruction payload file.
func (r *Run) PromptPath(index int) string {
	return filepath.Join(r.Dir, IterationsDir, fmt.Sprintf("%03d-prompt.md", index))
}

// OutputLogPath returns the per-iteration captured executor output file.
func (r *Run) OutputLogPath(index int) string {
	return filepath.Join(r.Dir, IterationsDir, fmt.Sprintf("%03d-output.log", index))
}

// StagePath returns a named per-stage artifact inside the run directory,
// used by pipelines that chain one stage's output into the next.
func (r *Run) StagePath(name string) string {
	return filepath.Join(r.Dir, name)
}

// Complete reports whether every iteration up to the target has been logged.
func (r *Run) Complete() bool {
	return r.Start > r.Target
}
