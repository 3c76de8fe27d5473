package secondary

import "context"

// TMuxAdapter defines the secondary port for tmux session management, used
// to watch a run's ledger while the orchestrator works.
type TMuxAdapter interface {
	// SessionExists checks whether a tmux session with the given name exists.
	SessionExists(ctx context.Context, name string) bool

	// CreateTailSession creates a detached session in dir whose first pane
	// follows the given file.
	CreateTailSession(ctx context.Context, name, dir, file string) error
}
