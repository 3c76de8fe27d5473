package secondary

import "context"

// StageExecutor defines the secondary port for the external task executor.
// The executor is a black box: it reads the task artifact and the ledger,
// does real work, and appends exactly one record to the ledger before
// returning. Whether it honored that contract is judged by the caller via
// ledger fingerprints, never by the executor's self-report.
type StageExecutor interface {
	// ExecuteStage invokes the executor exactly once with the rendered
	// prompt, capturing combined stdout/stderr to logPath. A non-zero exit
	// is returned as an error; there are no retries at this layer.
	ExecuteStage(ctx context.Context, prompt, logPath, workDir string) error

	// Dry reports whether this executor skips real invocation. Callers use
	// this to keep ledger bookkeeping identical across modes.
	Dry() bool
}
