package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"shortfilm/internal/artifact"
	"shortfilm/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		title        string
		genre        string
		style        string
		requirements string
		briefPath    string
		duration     int
	)

	cmd := &cobra.Command{
		Use:   "run [story idea]",
		Short: "Generate a short film from a story idea",
		Long: "Run the full pipeline for a story idea: script, characters, visuals, audio, and final video.\n" +
			"Press Ctrl-C once to suspend at the next stage boundary; press it again to force stop.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			brief, err := buildBrief(args, briefPath, genre, duration, style, requirements)
			if err != nil {
				return err
			}
			return ctx.withSupervisor(func(sup *workflow.Supervisor) error {
				return executeRun(cmd, func(runCtx context.Context) (*workflow.RunHandle, error) {
					return sup.Start(runCtx, title, brief)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Working title for the run")
	cmd.Flags().StringVarP(&genre, "genre", "g", "drama", "Film genre")
	cmd.Flags().IntVarP(&duration, "duration", "d", 60, "Target duration in seconds")
	cmd.Flags().StringVarP(&style, "style", "s", "cinematic", "Visual style")
	cmd.Flags().StringVarP(&requirements, "requirements", "r", "", "Special requirements for the film")
	cmd.Flags().StringVar(&briefPath, "brief", "", "Path to a JSON brief file (overrides the other brief flags)")

	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume [run-id]",
		Short: "Resume a suspended run from its last checkpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var runID string
			if len(args) == 1 {
				runID = strings.TrimSpace(args[0])
			}
			return ctx.withSupervisor(func(sup *workflow.Supervisor) error {
				return executeRun(cmd, func(runCtx context.Context) (*workflow.RunHandle, error) {
					return sup.Resume(runCtx, runID)
				})
			})
		},
	}
}

func buildBrief(args []string, briefPath, genre string, duration int, style, requirements string) (artifact.UserBrief, error) {
	var brief artifact.UserBrief

	if strings.TrimSpace(briefPath) != "" {
		payload, err := os.ReadFile(briefPath)
		if err != nil {
			return brief, fmt.Errorf("read brief file: %w", err)
		}
		if err := json.Unmarshal(payload, &brief); err != nil {
			return brief, fmt.Errorf("parse brief file: %w", err)
		}
	} else {
		if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
			return brief, errors.New("a story idea argument or --brief file is required")
		}
		brief = artifact.UserBrief{
			StoryIdea:           strings.TrimSpace(args[0]),
			Genre:               genre,
			DurationSeconds:     duration,
			VisualStyle:         style,
			SpecialRequirements: requirements,
		}
	}

	if strings.TrimSpace(brief.StoryIdea) == "" {
		return brief, errors.New("brief is missing a story idea")
	}
	if brief.DurationSeconds <= 0 {
		return brief, fmt.Errorf("invalid duration: %d", brief.DurationSeconds)
	}
	return brief, nil
}

// executeRun launches a run, wires interrupt handling, waits for the outcome,
// and renders the result. The first interrupt requests a boundary suspension;
// the second cancels outright.
func executeRun(cmd *cobra.Command, launch func(context.Context) (*workflow.RunHandle, error)) error {
	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	handle, err := launch(runCtx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s started\n", handle.RunID())

	go func() {
		<-sigCh
		fmt.Fprintln(out, "Interrupt received; suspending at the next stage boundary (Ctrl-C again to force stop)")
		handle.Cancel()
		<-sigCh
		fmt.Fprintln(out, "Forcing stop")
		cancel()
	}()

	waitErr := handle.Wait()
	state := handle.State()
	renderRunReport(out, state, handle.Artifacts(), shouldColorize(out))

	switch {
	case waitErr == nil:
		return nil
	case errors.Is(waitErr, workflow.ErrSuspended):
		fmt.Fprintf(out, "Resume with: shortfilm resume %s\n", handle.RunID())
		return nil
	default:
		return waitErr
	}
}
