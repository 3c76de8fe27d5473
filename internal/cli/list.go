package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/wire"
)

// ListCmd returns the list command
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known runs",
		Long:  `List all runs recorded in the registry, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			workflow, _ := cmd.Flags().GetString("workflow")

			cfg, err := config.LoadOrDefault(".")
			if err != nil {
				return err
			}

			runs, err := wire.RunService(cfg).ListRuns(context.Background(), primary.RunFilters{
				Status:   status,
				Workflow: workflow,
			})
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				fmt.Println()
				fmt.Println("Start your first run:")
				fmt.Println("  loom start \"describe the task\" --iterations 3")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "DIR\tWORKFLOW\tPROGRESS\tSTATUS\tTASK")
			fmt.Fprintln(w, "---\t--------\t--------\t------\t----")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
					r.Dir,
					r.Workflow,
					r.LastIndex,
					r.Target,
					statusColor(r.Status).Sprint(r.Status),
					r.Summary,
				)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().String("status", "", "filter by status (running, completed, failed)")
	cmd.Flags().String("workflow", "", "filter by workflow (linear, review, branch)")

	return cmd
}

// statusColor maps a registry status to its display color.
func statusColor(status string) *color.Color {
	switch status {
	case "completed":
		return color.New(color.FgGreen)
	case "failed":
		return color.New(color.FgRed)
	case "running":
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}
