package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/wire"
)

// ResumeCmd returns the resume command
func ResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [run-dir]",
		Short: "Resume an existing run from its last logged iteration",
		Long: `Resume an existing run. The starting point is re-derived purely from the
run's ledger, never from in-memory state; a run whose logged history already
reaches the target exits successfully with nothing to do.

Creation-time options (task text, --runs-dir, --snapshot-limit) are not
accepted here: they only make sense when a run is created, and silently
ignoring them would mask intent.

An explicit --target override is sticky: it is written back to the ledger so
later resumes inherit it.

Examples:
  loom resume runs/20260824-101500-refactor-the-config-loader
  loom resume runs/20260824-101500-refactor-the-config-loader --target 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			target, _ := cmd.Flags().GetInt("target")
			dry, _ := cmd.Flags().GetBool("dry")

			cfg, err := config.LoadOrDefault(".")
			if err != nil {
				return err
			}

			workDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			resp, err := wire.RunService(cfg).ResumeRun(context.Background(), primary.ResumeRunRequest{
				Dir:       dir,
				Target:    target,
				HasTarget: cmd.Flags().Changed("target"),
				WorkDir:   workDir,
				Dry:       dry,
			})
			if err != nil {
				return err
			}

			if resp.NothingToDo {
				fmt.Printf("No remaining iterations - run is complete (%d of %d logged)\n", resp.Target, resp.Target)
				return nil
			}

			fmt.Printf("✓ Run complete: %s\n", resp.Dir)
			fmt.Printf("  %d stage(s) executed this invocation (target %d, %s workflow)\n", resp.Executed, resp.Target, resp.Workflow)
			return nil
		},
	}

	cmd.Flags().Int("target", 0, "override the ledger's target iteration count (persists for later resumes)")
	cmd.Flags().Bool("dry", false, "skip executor invocation; record bookkeeping only")

	return cmd
}
