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

// StartCmd returns the start command
func StartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [task text]",
		Short: "Start a fresh run from a task description",
		Long: `Start a fresh run: create a unique run directory, write the immutable
task artifact and the progress ledger, then drive every stage in order.

The run directory name is derived from the current timestamp and a slug of
the task text, so runs sort chronologically and stay greppable.

Examples:
  loom start "refactor the config loader" --iterations 3
  loom start "design a cache layer" --workflow branch --branches 7
  loom start "write the migration RFC" --workflow review --rounds 2
  loom start "exercise the bookkeeping" --dry`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := args[0]
			iterations, _ := cmd.Flags().GetInt("iterations")
			workflow, _ := cmd.Flags().GetString("workflow")
			rounds, _ := cmd.Flags().GetInt("rounds")
			branches, _ := cmd.Flags().GetInt("branches")
			runsDir, _ := cmd.Flags().GetString("runs-dir")
			snapshotLimit, _ := cmd.Flags().GetInt("snapshot-limit")
			dry, _ := cmd.Flags().GetBool("dry")

			cfg, err := config.LoadOrDefault(".")
			if err != nil {
				return err
			}
			if workflow == "" {
				workflow = cfg.Workflow
			}
			if runsDir == "" {
				runsDir = cfg.RunsDir
			}

			// All validation happens before any directory is created.
			if err := validateWorkflow(workflow); err != nil {
				return err
			}
			if cmd.Flags().Changed("branches") {
				if err := validateBranches(branches); err != nil {
					return err
				}
			}

			workDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			resp, err := wire.RunService(cfg).StartRun(context.Background(), primary.StartRunRequest{
				Task:          task,
				Target:        iterations,
				Workflow:      workflow,
				Rounds:        rounds,
				Branches:      branches,
				RunsBase:      runsDir,
				SnapshotLimit: snapshotLimit,
				WorkDir:       workDir,
				Dry:           dry,
			})
			if err != nil {
				return err
			}

			fmt.Printf("✓ Run complete: %s\n", resp.Dir)
			fmt.Printf("  %d of %d stage(s) executed (%s workflow)\n", resp.Executed, resp.Target, resp.Workflow)
			return nil
		},
	}

	cmd.Flags().Int("iterations", 3, "target iteration count (linear workflow)")
	cmd.Flags().String("workflow", "", "workflow shape: linear, review, or branch")
	cmd.Flags().Int("rounds", 2, "critique/revise round count (review workflow)")
	cmd.Flags().Int("branches", 0, "candidate count (branch workflow, 5-10)")
	cmd.Flags().String("runs-dir", "", "base directory for run directories")
	cmd.Flags().Int("snapshot-limit", 0, "embed a codebase file listing capped at N files into the task artifact")
	cmd.Flags().Bool("dry", false, "skip executor invocation; record bookkeeping only")

	return cmd
}
