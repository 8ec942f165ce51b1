package testsupport

import (
	"path/filepath"
	"testing"

	"shortfilm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Retry and timeout settings are tightened so failure-path tests run fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Backend.APIKey = "test"
	cfg.Workflow.RetryAttempts = 2
	cfg.Workflow.RetryBaseDelaySeconds = 0
	cfg.Workflow.RetryMaxDelaySeconds = 0
	cfg.Workflow.StageTimeoutSeconds = 30
	cfg.Backend.TimeoutSeconds = 5
	cfg.Backend.PollIntervalSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithMaxParallel sets the orchestrator batch width on the test config.
func WithMaxParallel(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxParallel = n
	}
}

// WithStagePolicy overrides one stage's failure policy on the test config.
func WithStagePolicy(stage, policy string) ConfigOption {
	return func(cfg *config.Config) {
		if cfg.Stages == nil {
			cfg.Stages = map[string]string{}
		}
		cfg.Stages[stage] = policy
	}
}
