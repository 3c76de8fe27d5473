// Package executor contains adapters for the external task executor.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandExecutor invokes a configured external command (e.g. `claude -p`)
// once per stage, feeding the instruction payload on stdin and capturing
// combined output to a per-iteration log file.
type CommandExecutor struct {
	command string
	args    []string
}

// NewCommandExecutor creates an executor adapter for the given command line.
func NewCommandExecutor(command string, args ...string) *CommandExecutor {
	return &CommandExecutor{command: command, args: args}
}

// Dry reports false: this adapter performs real invocations.
func (e *CommandExecutor) Dry() bool {
	return false
}

// ExecuteStage runs the executor exactly once. The call blocks until the
// executor exits; a non-zero exit is returned as an error and never retried
// here, because the executor's side effects are not transactional.
func (e *CommandExecutor) ExecuteStage(ctx context.Context, prompt, logPath, workDir string) error {
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create output log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Dir = workDir
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("executor %s failed: %w", e.command, err)
	}
	return nil
}
