package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/loom/internal/config"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .loom/config.json in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			executor, _ := cmd.Flags().GetString("executor")
			runsDir, _ := cmd.Flags().GetString("runs-dir")

			path := filepath.Join(".loom", "config.json")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}

			cfg := &config.Config{
				Version:  "1",
				Executor: executor,
				RunsDir:  runsDir,
				Workflow: config.DefaultWorkflow,
			}
			if err := config.SaveConfig(".", cfg); err != nil {
				return err
			}

			fmt.Printf("✓ Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().String("executor", config.DefaultExecutor, "external task executor command")
	cmd.Flags().String("runs-dir", config.DefaultRunsDir, "base directory for run directories")

	return cmd
}
