// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// skipDirs are directories excluded from codebase snapshots.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// WorkspaceAdapter implements secondary.WorkspaceAdapter over the local
// filesystem.
type WorkspaceAdapter struct{}

// NewWorkspaceAdapter creates a new filesystem workspace adapter.
func NewWorkspaceAdapter() *WorkspaceAdapter {
	return &WorkspaceAdapter{}
}

// Snapshot walks dir and returns a newline-separated listing of up to limit
// file paths (relative to dir), for embedding into a task artifact. The
// listing is informational reference material: it is written once at run
// creation and never refreshed.
func (a *WorkspaceAdapter) Snapshot(ctx context.Context, dir string, limit int) (string, error) {
	if limit <= 0 {
		return "", nil
	}

	var b strings.Builder
	count := 0
	truncated := false

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if count >= limit {
			truncated = true
			return filepath.SkipAll
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		b.WriteString(rel)
		b.WriteString("\n")
		count++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to snapshot %s: %w", dir, err)
	}

	if truncated {
		fmt.Fprintf(&b, "... (listing truncated at %d files)\n", limit)
	}
	return b.String(), nil
}
