package secondary

import "context"

// WorkspaceAdapter defines the secondary port for workspace inspection.
type WorkspaceAdapter interface {
	// Snapshot returns a bounded file listing of dir for embedding into a
	// task artifact. limit caps the number of listed files.
	Snapshot(ctx context.Context, dir string, limit int) (string, error)
}
