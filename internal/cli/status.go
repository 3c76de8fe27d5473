package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/core/run"
	"github.com/example/loom/internal/wire"
)

// tailRecords is how many trailing ledger lines status shows.
const tailRecords = 5

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [run-dir]",
		Short: "Show run details and recent ledger records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			cfg, err := config.LoadOrDefault(".")
			if err != nil {
				return err
			}

			st, err := wire.RunService(cfg).GetRun(context.Background(), dir)
			if err != nil {
				return fmt.Errorf("run not found in registry: %w", err)
			}

			fmt.Printf("\nRun:      %s\n", st.Dir)
			fmt.Printf("Task:     %s\n", st.Summary)
			fmt.Printf("Workflow: %s\n", st.Workflow)
			fmt.Printf("Progress: %d/%d\n", st.LastIndex, st.Target)
			fmt.Printf("Status:   %s\n", statusColor(st.Status).Sprint(st.Status))
			fmt.Printf("Created:  %s\n", st.CreatedAt)
			fmt.Printf("Updated:  %s\n", st.UpdatedAt)

			// The ledger, not the registry, is the source of truth; show its tail.
			r := run.Run{Dir: dir}
			data, err := os.ReadFile(r.LedgerPath())
			if err == nil {
				var records []string
				for _, line := range strings.Split(string(data), "\n") {
					if strings.HasPrefix(line, "- [") {
						records = append(records, line)
					}
				}
				if len(records) > tailRecords {
					records = records[len(records)-tailRecords:]
				}
				if len(records) > 0 {
					fmt.Println("\nRecent ledger records:")
					for _, rec := range records {
						fmt.Printf("  %s\n", rec)
					}
				}
			}
			fmt.Println()
			return nil
		},
	}
}
