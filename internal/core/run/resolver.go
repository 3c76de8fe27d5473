package run

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/loom/internal/core/ledger"
)

// FreshSpec carries everything needed to create a new run.
type FreshSpec struct {
	RunsBase string
	Task     string
	Target   int
	Workflow string
	Branches int
	// Reference is optional pre-rendered material (e.g. a codebase snapshot)
	// appended to the task artifact. The artifact is written once and treated
	// as immutable requirements thereafter.
	Reference string
}

// Create generates a unique run directory, writes the task artifact and a
// fresh ledger, and returns a Run positioned at iteration 1.
func Create(spec FreshSpec) (*Run, error) {
	if strings.TrimSpace(spec.Task) == "" {
		return nil, fmt.Errorf("task text is required for a fresh run")
	}
	if spec.Target < 1 {
		return nil, fmt.Errorf("target iterations must be at least 1, got %d", spec.Target)
	}

	now := time.Now()
	dir := filepath.Join(spec.RunsBase, now.Format("20060102-150405")+"-"+Slugify(spec.Task))
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("run directory already exists: %s", dir)
	}
	if err := os.MkdirAll(filepath.Join(dir, IterationsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	var task strings.Builder
	task.WriteString("# Task\n\n")
	task.WriteString(strings.TrimRight(spec.Task, "\n"))
	task.WriteString("\n")
	if spec.Reference != "" {
		task.WriteString("\n## Reference material\n\n")
		task.WriteString(strings.TrimRight(spec.Reference, "\n"))
		task.WriteString("\n")
	}
	taskPath := filepath.Join(dir, TaskFileName)
	if err := os.WriteFile(taskPath, []byte(task.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write task artifact: %w", err)
	}

	meta := ledger.Metadata{
		StartedAt: now,
		Target:    spec.Target,
		Workflow:  spec.Workflow,
		TaskFile:  TaskFileName,
		Summary:   firstLine(spec.Task),
	}
	if err := ledger.Init(filepath.Join(dir, LedgerFileName), meta); err != nil {
		return nil, err
	}

	return &Run{
		Dir:      dir,
		Target:   spec.Target,
		Workflow: spec.Workflow,
		Branches: spec.Branches,
		Summary:  firstLine(spec.Task),
		Start:    1,
	}, nil
}

// ResumeSpec carries resume parameters. TargetOverride is only honored when
// HasOverride is set, so that an explicit zero can never sneak in as "no
// target".
type ResumeSpec struct {
	Dir            string
	TargetOverride int
	HasOverride    bool
}

// Resume reads an existing run's ledger and computes where work continues.
// The returned Run may already be Complete(); that is the expected terminal
// state of a finished run, not an error.
func Resume(spec ResumeSpec) (*Run, error) {
	ledgerPath := filepath.Join(spec.Dir, LedgerFileName)
	data, err := os.ReadFile(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger (is %s a run directory?): %w", spec.Dir, err)
	}
	text := string(data)

	declared, hasDeclared := ledger.ParseTarget(text)

	var target int
	switch {
	case spec.HasOverride:
		if spec.TargetOverride < 1 {
			return nil, fmt.Errorf("target iterations must be at least 1, got %d", spec.TargetOverride)
		}
		target = spec.TargetOverride
		// Sticky override: persist so the next resume inherits the new value
		// instead of re-litigating it.
		if !hasDeclared || declared != target {
			if err := ledger.SyncTarget(ledgerPath, target); err != nil {
				return nil, err
			}
		}
	case hasDeclared:
		target = declared
	default:
		return nil, fmt.Errorf("ledger declares no target iterations; pass --target explicitly")
	}

	last := ledger.LastLoggedIndex(text)
	if last > target {
		return nil, fmt.Errorf("ledger already logs iteration %d but target is %d; raise the target or accept the existing history", last, target)
	}

	workflow, ok := ledger.ParseWorkflow(text)
	if !ok {
		workflow = WorkflowLinear
	}
	summary, _ := ledger.ParseSummary(text)

	return &Run{
		Dir:      spec.Dir,
		Target:   target,
		Workflow: workflow,
		Summary:  summary,
		Start:    last + 1,
	}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
