package app

import (
	"fmt"
	"path/filepath"

	"github.com/example/loom/internal/core/run"
	"github.com/example/loom/internal/templates"
)

// Candidate-count bounds for the branch workflow. The evaluation stage sees
// every candidate at once, so the set has to stay small enough to judge as a
// whole.
const (
	MinBranches     = 5
	MaxBranches     = 10
	defaultBranches = 5
)

// Stage describes one executor invocation within a workflow shape.
type Stage struct {
	// Name appears in ledger notes and error messages.
	Name string
	// Role is the rendered per-stage instruction text.
	Role string
	// Inputs are run-relative paths from earlier stages the executor must read.
	Inputs []string
	// OutputFile is the run-relative path the stage writes, empty if the
	// stage's work lands directly in the workspace.
	OutputFile string
}

// TargetFor computes the total iteration count for a workflow shape.
func TargetFor(workflow string, iterations, rounds int) (int, error) {
	switch workflow {
	case run.WorkflowLinear:
		if iterations < 1 {
			return 0, fmt.Errorf("linear workflow needs at least 1 iteration, got %d", iterations)
		}
		return iterations, nil
	case run.WorkflowReview:
		if rounds < 1 {
			return 0, fmt.Errorf("review workflow needs at least 1 round, got %d", rounds)
		}
		return 2 * rounds, nil
	case run.WorkflowBranch:
		return 3, nil
	default:
		return 0, fmt.Errorf("unknown workflow %q (expected %s, %s, or %s)",
			workflow, run.WorkflowLinear, run.WorkflowReview, run.WorkflowBranch)
	}
}

// stageFor maps an iteration index to its stage definition for the run's
// workflow shape. Indices are 1-based; index 0 is the session-init marker
// and never reaches here.
func stageFor(r *run.Run, index int) (*Stage, error) {
	switch r.Workflow {
	case run.WorkflowLinear:
		return linearStage(index)
	case run.WorkflowReview:
		return reviewStage(index)
	case run.WorkflowBranch:
		return branchStage(r, index)
	default:
		return nil, fmt.Errorf("unknown workflow %q", r.Workflow)
	}
}

func linearStage(index int) (*Stage, error) {
	var prev string
	if index > 1 {
		prev = filepath.Join(run.IterationsDir, fmt.Sprintf("%03d-output.log", index-1))
	}
	role, err := templates.Render("linear.tmpl", struct{ PrevOutput string }{prev})
	if err != nil {
		return nil, err
	}
	stage := &Stage{Name: "advance", Role: role}
	if prev != "" {
		stage.Inputs = []string{prev}
	}
	return stage, nil
}

// Review alternates critique and revise: odd indices critique the current
// artifact, even indices produce the next version. Each round's files are
// distinct and never overwritten, so the full history stays inspectable.
func reviewStage(index int) (*Stage, error) {
	round := (index + 1) / 2
	prevDraft := run.TaskFileName
	if round > 1 {
		prevDraft = reviewDraft(round - 1)
	}

	if index%2 == 1 {
		role, err := templates.Render("critique.tmpl", struct {
			Round int
			Draft string
		}{round, prevDraft})
		if err != nil {
			return nil, err
		}
		return &Stage{
			Name:       "critique",
			Role:       role,
			Inputs:     []string{prevDraft},
			OutputFile: reviewCritique(round),
		}, nil
	}

	role, err := templates.Render("revise.tmpl", struct {
		Round    int
		Draft    string
		Critique string
	}{round, prevDraft, reviewCritique(round)})
	if err != nil {
		return nil, err
	}
	return &Stage{
		Name:       "revise",
		Role:       role,
		Inputs:     []string{prevDraft, reviewCritique(round)},
		OutputFile: reviewDraft(round),
	}, nil
}

const (
	candidatesFile     = "candidates.md"
	selectionFile      = "selection.md"
	implementationFile = "implementation.md"
)

func branchStage(r *run.Run, index int) (*Stage, error) {
	branches := r.Branches
	if branches == 0 {
		branches = defaultBranches
	}

	switch index {
	case 1:
		role, err := templates.Render("brainstorm.tmpl", struct{ Branches int }{branches})
		if err != nil {
			return nil, err
		}
		return &Stage{Name: "brainstorm", Role: role, OutputFile: candidatesFile}, nil
	case 2:
		role, err := templates.Render("evaluate.tmpl", struct{ Candidates string }{candidatesFile})
		if err != nil {
			return nil, err
		}
		return &Stage{
			Name:       "evaluate",
			Role:       role,
			Inputs:     []string{candidatesFile},
			OutputFile: selectionFile,
		}, nil
	case 3:
		role, err := templates.Render("implement.tmpl", struct {
			Selection  string
			Candidates string
		}{selectionFile, candidatesFile})
		if err != nil {
			return nil, err
		}
		return &Stage{
			Name:       "implement",
			Role:       role,
			Inputs:     []string{selectionFile, candidatesFile},
			OutputFile: implementationFile,
		}, nil
	default:
		return nil, fmt.Errorf("branch workflow has 3 stages, got index %d", index)
	}
}

func reviewDraft(round int) string {
	return filepath.Join("reviews", fmt.Sprintf("round-%d-draft.md", round))
}

func reviewCritique(round int) string {
	return filepath.Join("reviews", fmt.Sprintf("round-%d-critique.md", round))
}

// payloadFor renders the full instruction payload: stage role text, run
// metadata, and the enumerated mandatory rules.
func payloadFor(r *run.Run, index int, stage *Stage) (string, error) {
	data := struct {
		Role       string
		Index      int
		Target     int
		TaskFile   string
		LedgerFile string
		Inputs     []string
		OutputFile string
	}{
		Role:       stage.Role,
		Index:      index,
		Target:     r.Target,
		TaskFile:   run.TaskFileName,
		LedgerFile: run.LedgerFileName,
		Inputs:     stage.Inputs,
		OutputFile: stage.OutputFile,
	}
	return templates.Render("stage.tmpl", data)
}
