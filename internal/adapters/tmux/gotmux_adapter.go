// Package tmux contains the gotmux-backed TMux adapter.
package tmux

import (
	"context"
	"fmt"
	"strings"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// GotmuxAdapter wraps the gotmux library for session lifecycle management.
type GotmuxAdapter struct {
	tmux *gotmux.Tmux
}

// NewGotmuxAdapter creates a new gotmux adapter.
func NewGotmuxAdapter() (*GotmuxAdapter, error) {
	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to create tmux client: %w", err)
	}
	return &GotmuxAdapter{tmux: tmux}, nil
}

// escapeShellCommand works around a gotmux quoting bug where ShellCommand is
// wrapped in single quotes (e.g. 'tail -F ledger.md'). The shell interprets
// that as a single token, so multi-word commands fail with status 127. By
// replacing spaces with ' ' (close-quote, space, open-quote), gotmux's
// wrapping produces 'tail' '-F' 'ledger.md' which the shell parses as
// separate words.
func escapeShellCommand(cmd string) string {
	return strings.ReplaceAll(cmd, " ", "' '")
}

// SessionExists checks whether a tmux session with the given name exists.
func (g *GotmuxAdapter) SessionExists(ctx context.Context, name string) bool {
	session, err := g.tmux.GetSessionByName(name)
	return err == nil && session != nil
}

// CreateTailSession creates a detached session in dir whose first pane
// follows file with tail -F, so an operator can watch the ledger grow while
// the orchestrator works.
func (g *GotmuxAdapter) CreateTailSession(ctx context.Context, name, dir, file string) error {
	_, err := g.tmux.NewSession(&gotmux.SessionOptions{
		Name:           name,
		StartDirectory: dir,
		ShellCommand:   escapeShellCommand(fmt.Sprintf("tail -F -n +1 %s", file)),
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}
