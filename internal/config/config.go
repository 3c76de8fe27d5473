// Package config loads and saves the loom configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults applied when the config file omits a field.
const (
	DefaultExecutor = "claude"
	DefaultWorkflow = "linear"
	DefaultRunsDir  = "runs"
)

// Config represents the flat loom configuration.
type Config struct {
	Version string `json:"version"`
	// Executor is the external task executor command.
	Executor string `json:"executor,omitempty"`
	// ExecutorArgs are fixed arguments passed on every invocation.
	ExecutorArgs []string `json:"executor_args,omitempty"`
	// RunsDir is the base directory for run directories.
	RunsDir string `json:"runs_dir,omitempty"`
	// Workflow is the default workflow shape for fresh runs.
	Workflow string `json:"workflow,omitempty"`
}

// LoadConfig reads .loom/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".loom", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault reads the config, falling back to pure defaults when the
// file is absent. Malformed JSON is still an error: silently ignoring a
// broken config would mask user intent.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := LoadConfig(dir)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		cfg := &Config{Version: "1"}
		cfg.applyDefaults()
		return cfg, nil
	}
	return nil, err
}

// SaveConfig writes config.json to directory.
func SaveConfig(dir string, cfg *Config) error {
	loomDir := filepath.Join(dir, ".loom")
	if err := os.MkdirAll(loomDir, 0755); err != nil {
		return fmt.Errorf("failed to create .loom dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(loomDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Executor == "" {
		c.Executor = DefaultExecutor
	}
	if c.RunsDir == "" {
		c.RunsDir = DefaultRunsDir
	}
	if c.Workflow == "" {
		c.Workflow = DefaultWorkflow
	}
}
