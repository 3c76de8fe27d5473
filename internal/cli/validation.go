package cli

import (
	"fmt"

	"github.com/example/loom/internal/app"
	"github.com/example/loom/internal/core/run"
)

// validWorkflows enumerates the workflow shapes the pipeline driver knows.
var validWorkflows = map[string]bool{
	run.WorkflowLinear: true,
	run.WorkflowReview: true,
	run.WorkflowBranch: true,
}

// validateWorkflow checks a workflow shape name before any side effect.
func validateWorkflow(name string) error {
	if validWorkflows[name] {
		return nil
	}
	return fmt.Errorf("invalid workflow %q. Expected one of: %s, %s, %s",
		name, run.WorkflowLinear, run.WorkflowReview, run.WorkflowBranch)
}

// validateBranches checks the branch candidate count when explicitly set.
func validateBranches(n int) error {
	if n >= app.MinBranches && n <= app.MaxBranches {
		return nil
	}
	return fmt.Errorf("invalid branch count %d. The evaluation stage judges all candidates at once; use %d-%d",
		n, app.MinBranches, app.MaxBranches)
}
