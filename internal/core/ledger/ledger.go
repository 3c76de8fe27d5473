// Package ledger implements the flat-text progress ledger that is the sole
// source of truth for a run's state. The format is line-oriented on purpose:
// the file is read and appended to by the external executor, so it has to
// stay trivially editable by hand and by agent alike.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Metadata is the header block written once at session creation.
type Metadata struct {
	StartedAt time.Time
	Target    int
	Workflow  string
	TaskFile  string
	Summary   string
}

var (
	targetLine   = regexp.MustCompile(`^target iterations:\s*(\d+)\s*$`)
	workflowLine = regexp.MustCompile(`^workflow:\s*([a-z]+)\s*$`)
	summaryLine  = regexp.MustCompile(`^task:\s*(.*)$`)
	sessionLine  = regexp.MustCompile(`^session started:`)
	recordLine   = regexp.MustCompile(`^- \[(\d+)\]`)
)

// Init writes a fresh ledger: metadata header plus the index-0
// "session initialized" record. Fails if the file already exists.
func Init(path string, meta Metadata) error {
	var b strings.Builder
	b.WriteString("# loom session\n")
	fmt.Fprintf(&b, "session started: %s\n", meta.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "target iterations: %d\n", meta.Target)
	fmt.Fprintf(&b, "workflow: %s\n", meta.Workflow)
	fmt.Fprintf(&b, "task file: %s\n", meta.TaskFile)
	fmt.Fprintf(&b, "task: %s\n", meta.Summary)
	b.WriteString("\n")
	fmt.Fprintf(&b, "- [0] session initialized at %s\n", meta.StartedAt.Format(time.RFC3339))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	return nil
}

// ParseTarget extracts the declared target iteration count from ledger text.
// Returns false when the field is absent or malformed; that is an expected
// state for hand-authored or partially-written ledgers, not an error.
func ParseTarget(text string) (int, bool) {
	for _, line := range strings.Split(text, "\n") {
		m := targetLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ParseWorkflow extracts the declared workflow shape from ledger text.
// Returns false when the field is absent so that callers can fall back to
// their own default.
func ParseWorkflow(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if m := workflowLine.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ParseSummary extracts the free-text task summary from ledger text.
func ParseSummary(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if m := summaryLine.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// LastLoggedIndex returns the maximum iteration index recorded in the ledger,
// or 0 when only the "session initialized" marker exists. Record notes that
// merely mention bracketed numbers do not match: only lines with the leading
// `- [N]` form count.
func LastLoggedIndex(text string) int {
	max := 0
	for _, line := range strings.Split(text, "\n") {
		m := recordLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}

// AppendRecord appends a single iteration record line. Append-only: prior
// lines are never rewritten here (SyncTarget is the one sanctioned rewrite).
func AppendRecord(path string, index int, note string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger for append: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "- [%d] %s\n", index, note); err != nil {
		return fmt.Errorf("failed to append ledger record: %w", err)
	}
	return nil
}

// SyncTarget rewrites the target-iterations metadata field in place, or
// inserts it immediately after the session-start line when absent. The write
// goes through a temp file and rename so an interrupted sync can never leave
// a truncated ledger behind.
func SyncTarget(path string, target int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	replaced := false
	for i, line := range lines {
		if targetLine.MatchString(line) {
			lines[i] = fmt.Sprintf("target iterations: %d", target)
			replaced = true
			break
		}
	}
	if !replaced {
		inserted := false
		for i, line := range lines {
			if sessionLine.MatchString(line) {
				rest := append([]string{fmt.Sprintf("target iterations: %d", target)}, lines[i+1:]...)
				lines = append(lines[:i+1], rest...)
				inserted = true
				break
			}
		}
		if !inserted {
			// No session-start line either; prepend so the field is findable.
			lines = append([]string{fmt.Sprintf("target iterations: %d", target)}, lines...)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(strings.Join(lines, "\n")); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
