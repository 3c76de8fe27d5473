package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/loom/internal/core/ledger"
	"github.com/example/loom/internal/core/run"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockRunRepository implements secondary.RunRepository for testing.
type mockRunRepository struct {
	records   map[string]*secondary.RunRecord
	upsertErr error
}

func newMockRunRepository() *mockRunRepository {
	return &mockRunRepository{records: make(map[string]*secondary.RunRecord)}
}

func (m *mockRunRepository) Upsert(ctx context.Context, rec *secondary.RunRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.records[rec.Dir] = rec
	return nil
}

func (m *mockRunRepository) GetByDir(ctx context.Context, dir string) (*secondary.RunRecord, error) {
	if rec, ok := m.records[dir]; ok {
		return rec, nil
	}
	return nil, errors.New("run not found")
}

func (m *mockRunRepository) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	var out []*secondary.RunRecord
	for _, rec := range m.records {
		if filters.Status != "" && rec.Status != filters.Status {
			continue
		}
		if filters.Workflow != "" && rec.Workflow != filters.Workflow {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// mockLogWriter implements secondary.LogWriter for testing.
type mockLogWriter struct {
	events []string
}

func (m *mockLogWriter) LogEvent(ctx context.Context, runDir, event, detail string) error {
	m.events = append(m.events, event)
	return nil
}

// mockWorkspace implements secondary.WorkspaceAdapter for testing.
type mockWorkspace struct {
	snapshot string
}

func (m *mockWorkspace) Snapshot(ctx context.Context, dir string, limit int) (string, error) {
	return m.snapshot, nil
}

// mockExecutor implements secondary.StageExecutor for testing.
type mockExecutor struct {
	dry       bool
	calls     int
	onExecute func(prompt, logPath, workDir string) error
}

func (m *mockExecutor) Dry() bool { return m.dry }

func (m *mockExecutor) ExecuteStage(ctx context.Context, prompt, logPath, workDir string) error {
	m.calls++
	if m.onExecute != nil {
		return m.onExecute(prompt, logPath, workDir)
	}
	return nil
}

func newTestService(exec *mockExecutor) (*RunServiceImpl, *mockRunRepository, *mockLogWriter) {
	repo := newMockRunRepository()
	logs := &mockLogWriter{}
	svc := NewRunService(repo, logs, &mockWorkspace{}, exec, &mockExecutor{dry: true})
	return svc, repo, logs
}

func readLedger(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, run.LedgerFileName))
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	return string(data)
}

// writeRunDir fabricates a hand-authored run directory.
func writeRunDir(t *testing.T, ledgerText string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, run.LedgerFileName), []byte(ledgerText), 0644); err != nil {
		t.Fatalf("failed to write ledger: %v", err)
	}
	return dir
}

// ============================================================================
// StartRun
// ============================================================================

func TestStartRunDryModeLogsEveryIteration(t *testing.T) {
	svc, repo, _ := newTestService(&mockExecutor{})
	ctx := context.Background()

	resp, err := svc.StartRun(ctx, primary.StartRunRequest{
		Task:     "build the thing",
		Target:   2,
		Workflow: run.WorkflowLinear,
		RunsBase: t.TempDir(),
		Dry:      true,
	})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if resp.Executed != 2 {
		t.Errorf("Executed = %d, want 2", resp.Executed)
	}

	text := readLedger(t, resp.Dir)
	for i := 0; i <= 2; i++ {
		if !strings.Contains(text, fmt.Sprintf("- [%d]", i)) {
			t.Errorf("ledger missing record [%d]:\n%s", i, text)
		}
	}
	if ledger.LastLoggedIndex(text) != 2 {
		t.Errorf("last index = %d, want 2", ledger.LastLoggedIndex(text))
	}

	rec, err := repo.GetByDir(ctx, resp.Dir)
	if err != nil {
		t.Fatalf("registry row missing: %v", err)
	}
	if rec.Status != statusCompleted || rec.LastIndex != 2 {
		t.Errorf("registry = %s/%d, want completed/2", rec.Status, rec.LastIndex)
	}
}

func TestStartRunLedgerIsGaplessAndMonotonic(t *testing.T) {
	svc, _, _ := newTestService(&mockExecutor{})

	resp, err := svc.StartRun(context.Background(), primary.StartRunRequest{
		Task:     "many stages",
		Target:   6,
		Workflow: run.WorkflowLinear,
		RunsBase: t.TempDir(),
		Dry:      true,
	})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	var indices []int
	for _, line := range strings.Split(readLedger(t, resp.Dir), "\n") {
		var idx int
		if _, err := fmt.Sscanf(line, "- [%d]", &idx); err == nil {
			indices = append(indices, idx)
		}
	}
	if len(indices) != 7 {
		t.Fatalf("got %d records, want 7 (indices 0..6): %v", len(indices), indices)
	}
	for i, idx := range indices {
		if idx != i {
			t.Fatalf("record %d has index %d; ledger must be gapless and monotonic: %v", i, idx, indices)
		}
	}
}

func TestStartRunRejectsInvalidBranchCount(t *testing.T) {
	svc, _, _ := newTestService(&mockExecutor{})
	base := t.TempDir()

	_, err := svc.StartRun(context.Background(), primary.StartRunRequest{
		Task:     "too many options",
		Workflow: run.WorkflowBranch,
		Branches: 12,
		RunsBase: base,
		Dry:      true,
	})
	if err == nil {
		t.Fatal("expected branch count validation error")
	}

	// Validation failed before any side effect.
	entries, _ := os.ReadDir(base)
	if len(entries) != 0 {
		t.Errorf("validation failure created %d run directories", len(entries))
	}
}

func TestStartRunExecutorFailureIsRecordedAndFatal(t *testing.T) {
	boom := errors.New("exit status 3")
	exec := &mockExecutor{onExecute: func(prompt, logPath, workDir string) error {
		return boom
	}}
	svc, repo, _ := newTestService(exec)

	base := t.TempDir()
	_, err := svc.StartRun(context.Background(), primary.StartRunRequest{
		Task:     "doomed",
		Target:   3,
		Workflow: run.WorkflowLinear,
		RunsBase: base,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected executor failure to propagate, got %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("executor called %d times; failures must not be retried", exec.calls)
	}

	entries, _ := os.ReadDir(base)
	if len(entries) != 1 {
		t.Fatalf("expected one run directory, got %d", len(entries))
	}
	dir := filepath.Join(base, entries[0].Name())
	text := readLedger(t, dir)
	if !strings.Contains(text, "- [1] runner failure at") {
		t.Errorf("failure not durably recorded:\n%s", text)
	}
	if !strings.Contains(text, "001-output.log") {
		t.Error("failure record should point at the captured log")
	}

	rec, err := repo.GetByDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("registry row missing: %v", err)
	}
	if rec.Status != statusFailed {
		t.Errorf("registry status = %s, want failed", rec.Status)
	}
}

func TestStartRunDetectsSilentNoOp(t *testing.T) {
	// Executor reports success but never touches the ledger.
	exec := &mockExecutor{onExecute: func(prompt, logPath, workDir string) error {
		return os.WriteFile(logPath, []byte("done!\n"), 0644)
	}}
	svc, _, _ := newTestService(exec)

	resp, err := svc.StartRun(context.Background(), primary.StartRunRequest{
		Task:     "lazy executor",
		Target:   2,
		Workflow: run.WorkflowLinear,
		RunsBase: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	text := readLedger(t, resp.Dir)
	if strings.Count(text, "no progress detected") != 2 {
		t.Errorf("each silent no-op should be recorded distinctly:\n%s", text)
	}
	if ledger.LastLoggedIndex(text) != 2 {
		t.Errorf("synthetic records must still advance the index, last = %d", ledger.LastLoggedIndex(text))
	}
}

func TestStartRunTrustsCooperativeExecutor(t *testing.T) {
	// Executor honors the contract and appends its own record each call. The
	// run directory is not known before Create runs, so derive it from the
	// output log path (which lives in <dir>/iterations/).
	index := 0
	exec := &mockExecutor{onExecute: func(prompt, logPath, workDir string) error {
		index++
		runDir := filepath.Dir(filepath.Dir(logPath))
		return ledger.AppendRecord(filepath.Join(runDir, run.LedgerFileName), index, "did real work")
	}}
	svc, _, _ := newTestService(exec)

	resp, err := svc.StartRun(context.Background(), primary.StartRunRequest{
		Task:     "diligent executor",
		Target:   2,
		Workflow: run.WorkflowLinear,
		RunsBase: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	text := readLedger(t, resp.Dir)
	if strings.Contains(text, "no progress detected") {
		t.Errorf("cooperative executor was flagged as a no-op:\n%s", text)
	}
	if strings.Count(text, "did real work") != 2 {
		t.Errorf("expected 2 executor records:\n%s", text)
	}
}

func TestStartRunSnapshotEmbeddedInTaskArtifact(t *testing.T) {
	repo := newMockRunRepository()
	svc := NewRunService(repo, nil, &mockWorkspace{snapshot: "main.go\ngo.mod\n"}, &mockExecutor{}, &mockExecutor{dry: true})

	resp, err := svc.StartRun(context.Background(), primary.StartRunRequest{
		Task:          "audit",
		Target:        1,
		Workflow:      run.WorkflowLinear,
		RunsBase:      t.TempDir(),
		SnapshotLimit: 10,
		Dry:           true,
	})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	task, err := os.ReadFile(filepath.Join(resp.Dir, run.TaskFileName))
	if err != nil {
		t.Fatalf("task artifact missing: %v", err)
	}
	if !strings.Contains(string(task), "main.go") {
		t.Error("snapshot not embedded in task artifact")
	}
}

// ============================================================================
// ResumeRun
// ============================================================================

func TestResumeCompletedRunIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(&mockExecutor{})
	ctx := context.Background()

	resp, err := svc.StartRun(ctx, primary.StartRunRequest{
		Task:     "finish me",
		Target:   2,
		Workflow: run.WorkflowLinear,
		RunsBase: t.TempDir(),
		Dry:      true,
	})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	before := readLedger(t, resp.Dir)

	again, err := svc.ResumeRun(ctx, primary.ResumeRunRequest{Dir: resp.Dir, Dry: true})
	if err != nil {
		t.Fatalf("ResumeRun failed: %v", err)
	}
	if !again.NothingToDo {
		t.Error("resume of a completed run should report nothing to do")
	}
	if again.Executed != 0 {
		t.Errorf("Executed = %d, want 0", again.Executed)
	}
	if after := readLedger(t, resp.Dir); after != before {
		t.Error("resume-on-completion modified the ledger")
	}
}

func TestResumeContinuesFromPartialProgress(t *testing.T) {
	dir := writeRunDir(t, "session started: x\ntarget iterations: 5\nworkflow: linear\ntask: manual\n\n- [0] init\n- [1] one\n")
	svc, repo, _ := newTestService(&mockExecutor{})

	resp, err := svc.ResumeRun(context.Background(), primary.ResumeRunRequest{Dir: dir, Dry: true})
	if err != nil {
		t.Fatalf("ResumeRun failed: %v", err)
	}
	if resp.Executed != 4 {
		t.Errorf("Executed = %d, want 4 (iterations 2..5)", resp.Executed)
	}

	text := readLedger(t, dir)
	for i := 2; i <= 5; i++ {
		if !strings.Contains(text, fmt.Sprintf("- [%d]", i)) {
			t.Errorf("missing record [%d]:\n%s", i, text)
		}
	}

	rec, err := repo.GetByDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("registry row missing after resume: %v", err)
	}
	if rec.Status != statusCompleted {
		t.Errorf("registry status = %s, want completed", rec.Status)
	}
}

func TestResumeTargetOverrideIsStickyAcrossResumes(t *testing.T) {
	dir := writeRunDir(t, "session started: x\ntarget iterations: 2\nworkflow: linear\n\n- [0] init\n- [1] one\n")
	svc, _, _ := newTestService(&mockExecutor{})
	ctx := context.Background()

	resp, err := svc.ResumeRun(ctx, primary.ResumeRunRequest{Dir: dir, Target: 4, HasTarget: true, Dry: true})
	if err != nil {
		t.Fatalf("ResumeRun with override failed: %v", err)
	}
	if resp.Executed != 3 {
		t.Errorf("Executed = %d, want 3 (iterations 2..4)", resp.Executed)
	}

	text := readLedger(t, dir)
	if !strings.Contains(text, "target iterations: 4") {
		t.Errorf("override not persisted:\n%s", text)
	}

	// Second resume with no override adopts the synced value.
	again, err := svc.ResumeRun(ctx, primary.ResumeRunRequest{Dir: dir, Dry: true})
	if err != nil {
		t.Fatalf("second ResumeRun failed: %v", err)
	}
	if again.Target != 4 || !again.NothingToDo {
		t.Errorf("second resume = target %d, nothingToDo %v; want 4, true", again.Target, again.NothingToDo)
	}
}

func TestResumeConsistencyGuardPerformsNoStages(t *testing.T) {
	dir := writeRunDir(t, "session started: x\ntarget iterations: 5\nworkflow: linear\n\n- [0] init\n- [4] four\n")
	exec := &mockExecutor{}
	svc, _, _ := newTestService(exec)

	_, err := svc.ResumeRun(context.Background(), primary.ResumeRunRequest{Dir: dir, Target: 3, HasTarget: true})
	if err == nil {
		t.Fatal("expected consistency validation failure")
	}
	if exec.calls != 0 {
		t.Errorf("executor called %d times during failed validation", exec.calls)
	}

	text := readLedger(t, dir)
	if ledger.LastLoggedIndex(text) != 4 {
		t.Error("failed validation appended records")
	}
}

func TestResumeRecoversWorkflowShapeFromLedger(t *testing.T) {
	dir := writeRunDir(t, "session started: x\ntarget iterations: 3\nworkflow: branch\ntask: pick an approach\n\n- [0] init\n- [1] candidates written\n")
	svc, _, _ := newTestService(&mockExecutor{})

	resp, err := svc.ResumeRun(context.Background(), primary.ResumeRunRequest{Dir: dir, Dry: true})
	if err != nil {
		t.Fatalf("ResumeRun failed: %v", err)
	}
	if resp.Workflow != run.WorkflowBranch {
		t.Errorf("Workflow = %q, want branch (recovered from ledger)", resp.Workflow)
	}
	// The evaluate and implement stages ran as dry bookkeeping.
	if resp.Executed != 2 {
		t.Errorf("Executed = %d, want 2", resp.Executed)
	}
}

// ============================================================================
// Registry views
// ============================================================================

func TestListRunsMapsRecords(t *testing.T) {
	svc, repo, _ := newTestService(&mockExecutor{})
	ctx := context.Background()

	repo.records["runs/a"] = &secondary.RunRecord{Dir: "runs/a", Workflow: "linear", Status: "completed"}
	repo.records["runs/b"] = &secondary.RunRecord{Dir: "runs/b", Workflow: "branch", Status: "failed"}

	all, err := svc.ListRuns(ctx, primary.RunFilters{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d runs, want 2", len(all))
	}

	failed, err := svc.ListRuns(ctx, primary.RunFilters{Status: "failed"})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Dir != "runs/b" {
		t.Errorf("status filter broken: %+v", failed)
	}
}

func TestDryAndRealPathsKeepIdenticalBookkeeping(t *testing.T) {
	// A cooperative real executor and the dry path must produce ledgers with
	// the same record indices, so resume logic is testable without the
	// external dependency.
	cooperative := &mockExecutor{onExecute: func(prompt, logPath, workDir string) error {
		runDir := filepath.Dir(filepath.Dir(logPath))
		text, _ := os.ReadFile(filepath.Join(runDir, run.LedgerFileName))
		next := ledger.LastLoggedIndex(string(text)) + 1
		return ledger.AppendRecord(filepath.Join(runDir, run.LedgerFileName), next, "real work")
	}}
	svc, _, _ := newTestService(cooperative)
	ctx := context.Background()

	real, err := svc.StartRun(ctx, primary.StartRunRequest{
		Task: "compare", Target: 3, Workflow: run.WorkflowLinear, RunsBase: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("real StartRun failed: %v", err)
	}
	dry, err := svc.StartRun(ctx, primary.StartRunRequest{
		Task: "compare", Target: 3, Workflow: run.WorkflowLinear, RunsBase: t.TempDir(), Dry: true,
	})
	if err != nil {
		t.Fatalf("dry StartRun failed: %v", err)
	}

	realText := readLedger(t, real.Dir)
	dryText := readLedger(t, dry.Dir)
	if ledger.LastLoggedIndex(realText) != ledger.LastLoggedIndex(dryText) {
		t.Errorf("real and dry ledgers diverge: last %d vs %d",
			ledger.LastLoggedIndex(realText), ledger.LastLoggedIndex(dryText))
	}
}
