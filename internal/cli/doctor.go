package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/db"
)

// DoctorCmd returns the doctor command
func DoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment loom depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(".")
			if err != nil {
				return err
			}

			ok := true

			// Executor binary
			if path, err := exec.LookPath(cfg.Executor); err == nil {
				pass("executor %q found at %s", cfg.Executor, path)
			} else {
				ok = false
				fail("executor %q not found in PATH (dry mode still works: --dry)", cfg.Executor)
			}

			// tmux (only needed for `loom attach`)
			if _, err := exec.LookPath("tmux"); err == nil {
				pass("tmux found")
			} else {
				warn("tmux not found ('loom attach' unavailable)")
			}

			// Registry database
			if database, err := db.GetDB(); err == nil {
				if err := database.Ping(); err == nil {
					pass("registry database reachable")
				} else {
					ok = false
					fail("registry database ping failed: %v", err)
				}
			} else {
				ok = false
				fail("registry database unavailable: %v", err)
			}

			// Runs directory
			if err := os.MkdirAll(cfg.RunsDir, 0755); err == nil {
				pass("runs directory %q writable", cfg.RunsDir)
			} else {
				ok = false
				fail("runs directory %q not writable: %v", cfg.RunsDir, err)
			}

			if !ok {
				return fmt.Errorf("environment checks failed")
			}
			fmt.Println("\nAll checks passed.")
			return nil
		},
	}
}

func pass(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", color.New(color.FgGreen).Sprint("✓"), fmt.Sprintf(format, a...))
}

func warn(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", color.New(color.FgYellow).Sprint("!"), fmt.Sprintf(format, a...))
}

func fail(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("✗"), fmt.Sprintf(format, a...))
}
