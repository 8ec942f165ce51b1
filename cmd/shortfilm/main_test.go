package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCLIConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
output_dir = %q

[backend]
api_key = "test"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "output"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIRunsEmpty(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet") {
		t.Fatalf("unexpected runs output: %q", out)
	}
}

func TestCLIStatusWithoutRuns(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet") {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestCLIRunRequiresStoryIdea(t *testing.T) {
	configPath := writeCLIConfig(t)

	_, _, err := runCLI(t, configPath, "run")
	if err == nil {
		t.Fatal("expected error for run without a story idea")
	}
	if !strings.Contains(err.Error(), "story idea") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIRunRejectsInvalidBriefFile(t *testing.T) {
	configPath := writeCLIConfig(t)
	briefPath := filepath.Join(t.TempDir(), "brief.json")
	if err := os.WriteFile(briefPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write brief: %v", err)
	}

	_, _, err := runCLI(t, configPath, "run", "--brief", briefPath)
	if err == nil {
		t.Fatal("expected error for malformed brief file")
	}
	if !strings.Contains(err.Error(), "parse brief file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestCLIResumeUnknownRun(t *testing.T) {
	configPath := writeCLIConfig(t)

	_, _, err := runCLI(t, configPath, "resume", "does-not-exist")
	if err == nil {
		t.Fatal("expected error resuming unknown run")
	}
}
