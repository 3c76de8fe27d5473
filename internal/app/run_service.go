// Package app contains the application layer - service implementations that
// drive runs and effectful orchestration.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/loom/internal/core/ledger"
	"github.com/example/loom/internal/core/run"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/ports/secondary"
)

// Run registry states.
const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// RunServiceImpl implements the RunService interface.
type RunServiceImpl struct {
	runRepo     secondary.RunRepository
	logWriter   secondary.LogWriter
	workspace   secondary.WorkspaceAdapter
	executor    secondary.StageExecutor
	dryExecutor secondary.StageExecutor
}

// NewRunService creates a new RunService with injected dependencies.
// logWriter is optional - if nil, no audit logging is performed.
func NewRunService(
	runRepo secondary.RunRepository,
	logWriter secondary.LogWriter,
	workspace secondary.WorkspaceAdapter,
	executor secondary.StageExecutor,
	dryExecutor secondary.StageExecutor,
) *RunServiceImpl {
	return &RunServiceImpl{
		runRepo:     runRepo,
		logWriter:   logWriter,
		workspace:   workspace,
		executor:    executor,
		dryExecutor: dryExecutor,
	}
}

// StartRun creates a fresh run and drives it to completion or first failure.
func (s *RunServiceImpl) StartRun(ctx context.Context, req primary.StartRunRequest) (*primary.RunResult, error) {
	target, err := TargetFor(req.Workflow, req.Target, req.Rounds)
	if err != nil {
		return nil, err
	}
	if req.Workflow == run.WorkflowBranch && req.Branches != 0 &&
		(req.Branches < MinBranches || req.Branches > MaxBranches) {
		return nil, fmt.Errorf("branch count must be between %d and %d, got %d", MinBranches, MaxBranches, req.Branches)
	}

	var reference string
	if req.SnapshotLimit > 0 {
		reference, err = s.workspace.Snapshot(ctx, req.WorkDir, req.SnapshotLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to build codebase snapshot: %w", err)
		}
	}

	r, err := run.Create(run.FreshSpec{
		RunsBase:  req.RunsBase,
		Task:      req.Task,
		Target:    target,
		Workflow:  req.Workflow,
		Branches:  req.Branches,
		Reference: reference,
	})
	if err != nil {
		return nil, err
	}

	s.syncRegistry(ctx, r, statusRunning)
	s.logEvent(ctx, r.Dir, "create", r.Summary)

	return s.finish(ctx, r, s.drive(ctx, r, req.WorkDir, req.Dry))
}

// ResumeRun continues an existing run from its last logged iteration.
func (s *RunServiceImpl) ResumeRun(ctx context.Context, req primary.ResumeRunRequest) (*primary.RunResult, error) {
	r, err := run.Resume(run.ResumeSpec{
		Dir:            req.Dir,
		TargetOverride: req.Target,
		HasOverride:    req.HasTarget,
	})
	if err != nil {
		return nil, err
	}

	if r.Complete() {
		s.syncRegistry(ctx, r, statusCompleted)
		return &primary.RunResult{
			Dir:         r.Dir,
			Workflow:    r.Workflow,
			Target:      r.Target,
			NothingToDo: true,
		}, nil
	}

	s.syncRegistry(ctx, r, statusRunning)
	s.logEvent(ctx, r.Dir, "resume", fmt.Sprintf("continuing at iteration %d of %d", r.Start, r.Target))

	return s.finish(ctx, r, s.drive(ctx, r, req.WorkDir, req.Dry))
}

// GetRun retrieves registry status for one run directory.
func (s *RunServiceImpl) GetRun(ctx context.Context, dir string) (*primary.RunStatus, error) {
	rec, err := s.runRepo.GetByDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	return recordToStatus(rec), nil
}

// ListRuns lists known runs with optional filters.
func (s *RunServiceImpl) ListRuns(ctx context.Context, filters primary.RunFilters) ([]*primary.RunStatus, error) {
	records, err := s.runRepo.List(ctx, secondary.RunFilters{
		Status:   filters.Status,
		Workflow: filters.Workflow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	statuses := make([]*primary.RunStatus, 0, len(records))
	for _, rec := range records {
		statuses = append(statuses, recordToStatus(rec))
	}
	return statuses, nil
}

type driveOutcome struct {
	executed int
	err      error
}

// drive runs every pending stage in order, strictly sequentially, halting on
// the first failure. Each outcome is persisted to the ledger before the next
// stage begins, so a killed process resumes exactly where the last completed
// append left off.
func (s *RunServiceImpl) drive(ctx context.Context, r *run.Run, workDir string, dry bool) driveOutcome {
	exec := s.executor
	if dry {
		exec = s.dryExecutor
	}

	// Hand-authored run dirs may lack the iterations dir.
	if err := os.MkdirAll(filepath.Join(r.Dir, run.IterationsDir), 0755); err != nil {
		return driveOutcome{0, fmt.Errorf("failed to create iterations directory: %w", err)}
	}

	executed := 0
	for i := r.Start; i <= r.Target; i++ {
		stage, err := stageFor(r, i)
		if err != nil {
			return driveOutcome{executed, err}
		}
		payload, err := payloadFor(r, i, stage)
		if err != nil {
			return driveOutcome{executed, err}
		}
		if err := os.WriteFile(r.PromptPath(i), []byte(payload), 0644); err != nil {
			return driveOutcome{executed, fmt.Errorf("failed to write stage prompt: %w", err)}
		}

		before := ledgerFingerprint(r.LedgerPath())

		if exec.Dry() {
			note := fmt.Sprintf("dry run: execution skipped at %s (%s stage)",
				time.Now().Format(time.RFC3339), stage.Name)
			if err := ledger.AppendRecord(r.LedgerPath(), i, note); err != nil {
				return driveOutcome{executed, err}
			}
			executed++
			continue
		}

		logRel := filepath.Join(run.IterationsDir, fmt.Sprintf("%03d-output.log", i))
		if err := exec.ExecuteStage(ctx, payload, r.OutputLogPath(i), workDir); err != nil {
			executed++
			note := fmt.Sprintf("runner failure at %s: %v; see %s",
				time.Now().Format(time.RFC3339), err, logRel)
			if aerr := ledger.AppendRecord(r.LedgerPath(), i, note); aerr != nil {
				return driveOutcome{executed, fmt.Errorf("stage %d (%s) failed (%v) and recording the failure also failed: %w", i, stage.Name, err, aerr)}
			}
			return driveOutcome{executed, fmt.Errorf("stage %d (%s) failed: %w", i, stage.Name, err)}
		}
		executed++

		// Do not trust the executor's self-report: success without a ledger
		// change is recorded as its own note type so operators can tell
		// "nothing to do" from "did the work but forgot to record it".
		if after := ledgerFingerprint(r.LedgerPath()); after == before {
			note := fmt.Sprintf("no progress detected at %s: executor reported success but the ledger is unchanged (%s stage)",
				time.Now().Format(time.RFC3339), stage.Name)
			if err := ledger.AppendRecord(r.LedgerPath(), i, note); err != nil {
				return driveOutcome{executed, err}
			}
		}
	}
	return driveOutcome{executed, nil}
}

// finish updates the registry with the drive outcome and shapes the result.
func (s *RunServiceImpl) finish(ctx context.Context, r *run.Run, out driveOutcome) (*primary.RunResult, error) {
	if out.err != nil {
		s.syncRegistry(ctx, r, statusFailed)
		s.logEvent(ctx, r.Dir, "fail", out.err.Error())
		return nil, out.err
	}

	s.syncRegistry(ctx, r, statusCompleted)
	s.logEvent(ctx, r.Dir, "complete", fmt.Sprintf("%d stage(s) executed", out.executed))
	return &primary.RunResult{
		Dir:      r.Dir,
		Workflow: r.Workflow,
		Target:   r.Target,
		Executed: out.executed,
	}, nil
}

// syncRegistry upserts the advisory registry row. The registry is an index,
// not the source of truth, so registry failures never abort a run.
func (s *RunServiceImpl) syncRegistry(ctx context.Context, r *run.Run, status string) {
	_ = s.runRepo.Upsert(ctx, &secondary.RunRecord{
		Dir:       r.Dir,
		Summary:   r.Summary,
		Workflow:  r.Workflow,
		Target:    r.Target,
		LastIndex: lastLedgerIndex(r.LedgerPath()),
		Status:    status,
	})
}

func (s *RunServiceImpl) logEvent(ctx context.Context, dir, event, detail string) {
	if s.logWriter != nil {
		_ = s.logWriter.LogEvent(ctx, dir, event, detail)
	}
}

// ledgerFingerprint hashes the ledger content, falling back to the weaker
// stat-based fingerprint when the content cannot be read.
func ledgerFingerprint(path string) string {
	if fp, err := ledger.Fingerprint(path); err == nil {
		return fp
	}
	fp, err := ledger.StatFingerprint(path)
	if err != nil {
		return ""
	}
	return fp
}

func lastLedgerIndex(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return ledger.LastLoggedIndex(string(data))
}

func recordToStatus(rec *secondary.RunRecord) *primary.RunStatus {
	return &primary.RunStatus{
		Dir:       rec.Dir,
		Summary:   rec.Summary,
		Workflow:  rec.Workflow,
		Target:    rec.Target,
		LastIndex: rec.LastIndex,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
