package executor

import (
	"context"
	"fmt"
	"os"
)

// DryExecutor skips real invocation. Ledger bookkeeping for dry stages is
// handled by the caller and is indistinguishable from the real path, so
// resume logic can be exercised without the external dependency.
type DryExecutor struct{}

// NewDryExecutor creates a dry executor adapter.
func NewDryExecutor() *DryExecutor {
	return &DryExecutor{}
}

// Dry reports true.
func (e *DryExecutor) Dry() bool {
	return true
}

// ExecuteStage writes a marker to the output log and returns immediately.
func (e *DryExecutor) ExecuteStage(ctx context.Context, prompt, logPath, workDir string) error {
	if err := os.WriteFile(logPath, []byte("execution skipped (dry mode)\n"), 0644); err != nil {
		return fmt.Errorf("failed to write dry output log: %w", err)
	}
	return nil
}
