package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shortfilm/internal/config"
)

func TestLoadDefaultConfigUsesEnvAPIKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("SHORTFILM_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "shortfilm", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "shortfilm") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Backend.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Backend.APIKey)
	}
	if cfg.Backend.BaseURL != config.Default().Backend.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.Backend.BaseURL)
	}
	if cfg.Workflow.MaxParallel != config.Default().Workflow.MaxParallel {
		t.Fatalf("unexpected max parallel: %d", cfg.Workflow.MaxParallel)
	}
	if cfg.Output.Resolution != "1920x1080" || cfg.Output.Format != "mp4" {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if len(cfg.Stages) != 0 {
		t.Fatalf("expected no stage overrides by default, got %v", cfg.Stages)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shortfilm.toml")

	type payload struct {
		Backend struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"backend"`
		Workflow struct {
			MaxParallel   int `toml:"max_parallel"`
			RetryAttempts int `toml:"retry_attempts"`
		} `toml:"workflow"`
		Stages map[string]string `toml:"stages"`
	}
	custom := payload{Stages: map[string]string{"Visual": " Fatal "}}
	custom.Backend.APIKey = "abc123"
	custom.Backend.BaseURL = "https://example.com/generate/"
	custom.Workflow.MaxParallel = 4
	custom.Workflow.RetryAttempts = 5
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Backend.APIKey != "abc123" {
		t.Fatalf("expected API key from file, got %q", cfg.Backend.APIKey)
	}
	if cfg.Backend.BaseURL != "https://example.com/generate" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Workflow.MaxParallel != 4 || cfg.Workflow.RetryAttempts != 5 {
		t.Fatalf("unexpected workflow overrides: %+v", cfg.Workflow)
	}
	if cfg.Stages["visual"] != "fatal" {
		t.Fatalf("expected stage override normalized, got %v", cfg.Stages)
	}
}

func TestFileAPIKeyWinsOverEnv(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shortfilm.toml")
	content := "[backend]\napi_key = \"file-key\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SHORTFILM_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.APIKey != "file-key" {
		t.Fatalf("expected file key to win, got %q", cfg.Backend.APIKey)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("SHORTFILM_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "backend.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown stage policy",
			mutate: func(c *config.Config) { c.Stages = map[string]string{"audio": "optional"} },
			want:   "unknown failure policy",
		},
		{
			name:   "bad resolution",
			mutate: func(c *config.Config) { c.Output.Resolution = "widescreen" },
			want:   "output.resolution",
		},
		{
			name:   "bad output format",
			mutate: func(c *config.Config) { c.Output.Format = "avi" },
			want:   "output.format",
		},
		{
			name:   "zero max parallel",
			mutate: func(c *config.Config) { c.Workflow.MaxParallel = 0 },
			want:   "workflow.max_parallel",
		},
		{
			name:   "zero retry attempts",
			mutate: func(c *config.Config) { c.Workflow.RetryAttempts = 0 },
			want:   "workflow.retry_attempts",
		},
		{
			name: "retry max below base",
			mutate: func(c *config.Config) {
				c.Workflow.RetryBaseDelaySeconds = 10
				c.Workflow.RetryMaxDelaySeconds = 5
			},
			want: "retry_max_delay_seconds",
		},
		{
			name:   "zero poll interval",
			mutate: func(c *config.Config) { c.Backend.PollIntervalSeconds = 0 },
			want:   "poll_interval_seconds",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Backend.APIKey = "test"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[backend]") {
		t.Fatal("sample config missing backend section")
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when file already exists")
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/films")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "films") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
