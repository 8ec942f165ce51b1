package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shortfilm/internal/artifact"
	"shortfilm/internal/checkpoint"
	"shortfilm/internal/config"
	"shortfilm/internal/logging"
	"shortfilm/internal/pipeline"
	"shortfilm/internal/services/generative"
	"shortfilm/internal/stage"
	"shortfilm/internal/stages"
	"shortfilm/internal/workflow"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, logErr := logging.NewFromConfig(cfg)
		if logErr != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger, nil
}

// withSupervisor opens the checkpoint store, wires the generative backend
// into the stage factory, and hands the supervisor to fn. The store is
// closed when fn returns.
func (c *commandContext) withSupervisor(fn func(*workflow.Supervisor) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	store, err := checkpoint.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	backend := generative.NewFromConfig(cfg)

	factory := func(brief artifact.UserBrief) ([]pipeline.Descriptor, map[string]stage.Handler) {
		set := stages.Definitions(cfg, backend, brief)
		return set.Descriptors, set.Handlers
	}

	supervisor, err := workflow.NewSupervisor(cfg, store, factory, logger)
	if err != nil {
		return err
	}
	return fn(supervisor)
}

// withCheckpoints opens just the checkpoint store for read-only commands.
func (c *commandContext) withCheckpoints(fn func(*checkpoint.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := checkpoint.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
