// Package wire provides dependency injection for the loom application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"github.com/example/loom/internal/adapters/executor"
	"github.com/example/loom/internal/adapters/filesystem"
	"github.com/example/loom/internal/adapters/sqlite"
	"github.com/example/loom/internal/adapters/tmux"
	"github.com/example/loom/internal/app"
	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/db"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/ports/secondary"
)

var (
	runService primary.RunService
	once       sync.Once
)

// RunService returns the singleton RunService instance.
func RunService(cfg *config.Config) primary.RunService {
	once.Do(func() { initServices(cfg) })
	return runService
}

// TMuxAdapter returns a new gotmux-backed TMux adapter.
// Each call creates a new adapter (adapters are stateless translators).
func TMuxAdapter() (secondary.TMuxAdapter, error) {
	return tmux.NewGotmuxAdapter()
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices(cfg *config.Config) {
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Secondary adapters with injected DB
	runRepo := sqlite.NewRunRepository(database)
	logWriter := sqlite.NewLogWriterAdapter(database)
	workspace := filesystem.NewWorkspaceAdapter()

	// Both executors are wired up front; the per-request Dry flag selects.
	cmdExecutor := executor.NewCommandExecutor(cfg.Executor, cfg.ExecutorArgs...)
	dryExecutor := executor.NewDryExecutor()

	runService = app.NewRunService(runRepo, logWriter, workspace, cmdExecutor, dryExecutor)
}
