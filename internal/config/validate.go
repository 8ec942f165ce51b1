package config

import (
	"errors"
	"fmt"
	"regexp"
)

var resolutionPattern = regexp.MustCompile(`^\d{3,4}x\d{3,4}$`)

var knownPolicies = map[string]struct{}{
	"fatal":     {},
	"skippable": {},
	"retryable": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shortfilm/config.toml"
		}
		return fmt.Errorf("backend.api_key is required. Set SHORTFILM_API_KEY env var or edit %s (create with 'shortfilm config init')", defaultPath)
	}
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url must be set")
	}
	if c.Backend.ChatModel == "" {
		return errors.New("backend.chat_model must be set")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return errors.New("backend.timeout_seconds must be positive")
	}
	if c.Backend.PollIntervalSeconds <= 0 {
		return errors.New("backend.poll_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxParallel < 1 {
		return errors.New("workflow.max_parallel must be at least 1")
	}
	if c.Workflow.StageTimeoutSeconds <= 0 {
		return errors.New("workflow.stage_timeout_seconds must be positive")
	}
	if c.Workflow.RetryAttempts < 1 {
		return errors.New("workflow.retry_attempts must be at least 1")
	}
	if c.Workflow.RetryBaseDelaySeconds < 0 || c.Workflow.RetryMaxDelaySeconds < 0 {
		return errors.New("workflow retry delays must not be negative")
	}
	if c.Workflow.RetryMaxDelaySeconds < c.Workflow.RetryBaseDelaySeconds {
		return errors.New("workflow.retry_max_delay_seconds must not be below retry_base_delay_seconds")
	}
	return nil
}

func (c *Config) validateStages() error {
	for name, policy := range c.Stages {
		if _, ok := knownPolicies[policy]; !ok {
			return fmt.Errorf("stages.%s: unknown failure policy %q (expected fatal, skippable, or retryable)", name, policy)
		}
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !resolutionPattern.MatchString(c.Output.Resolution) {
		return fmt.Errorf("output.resolution %q must look like 1920x1080", c.Output.Resolution)
	}
	switch c.Output.Format {
	case "mp4", "mov", "webm":
		return nil
	default:
		return fmt.Errorf("output.format %q is not supported (expected mp4, mov, or webm)", c.Output.Format)
	}
}
