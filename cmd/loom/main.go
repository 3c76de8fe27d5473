package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/loom/internal/cli"
	"github.com/example/loom/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "loom",
		Short:   "loom - orchestrator for resumable multi-stage generative workflows",
		Version: version.String(),
		Long: `loom drives long-running, multi-stage generative workflows through an
external task executor, one blocking call at a time. Every outcome is
persisted to a per-run ledger before the next stage begins, so interrupted
runs resume exactly where they left off.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.StartCmd())
	rootCmd.AddCommand(cli.ResumeCmd())
	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.AttachCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
