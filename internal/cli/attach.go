package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/loom/internal/core/run"
	"github.com/example/loom/internal/wire"
)

// AttachCmd returns the attach command
func AttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach [run-dir]",
		Short: "Open a tmux session following a run's ledger",
		Long: `Create or attach to a tmux session whose pane follows the run's ledger
with tail -F, so the progress records can be watched live while the
orchestrator works in another terminal.

Examples:
  loom attach runs/20260824-101500-refactor-the-config-loader`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			dir := args[0]

			r := run.Run{Dir: dir}
			if _, err := os.Stat(r.LedgerPath()); err != nil {
				return fmt.Errorf("no ledger found (is %s a run directory?): %w", dir, err)
			}

			sessionName := "loom-" + run.Slugify(filepath.Base(dir))

			tmuxAdapter, err := wire.TMuxAdapter()
			if err != nil {
				return err
			}

			if !tmuxAdapter.SessionExists(ctx, sessionName) {
				if err := tmuxAdapter.CreateTailSession(ctx, sessionName, dir, run.LedgerFileName); err != nil {
					return err
				}
				fmt.Printf("✓ Created session: %s\n", sessionName)
			} else {
				fmt.Printf("✓ Attaching to existing session: %s\n", sessionName)
			}

			tmuxPath, err := exec.LookPath("tmux")
			if err != nil {
				return fmt.Errorf("tmux not found in PATH: %w", err)
			}

			// Replace current process with tmux attach so the transition is
			// seamless - the user runs 'loom attach' and ends up in tmux.
			execArgs := []string{"tmux", "attach", "-t", sessionName}
			if err := syscall.Exec(tmuxPath, execArgs, os.Environ()); err != nil {
				return fmt.Errorf("failed to exec tmux attach: %w", err)
			}

			// This line never executes if exec succeeds
			return nil
		},
	}
}
