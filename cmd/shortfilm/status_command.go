package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortfilm/internal/checkpoint"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show the stage-by-stage state of a run",
		Long:  "Show the stage outcomes of a run. Without a run id the most recent run is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var runID string
			if len(args) == 1 {
				runID = strings.TrimSpace(args[0])
			}
			return ctx.withCheckpoints(func(store *checkpoint.Store) error {
				cmdCtx := cmd.Context()
				if runID == "" {
					latest, err := store.LatestRunID(cmdCtx)
					if err != nil {
						if errors.Is(err, checkpoint.ErrNotFound) {
							fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
							return nil
						}
						return err
					}
					runID = latest
				}
				state, artifacts, err := store.Load(cmdCtx, runID)
				if err != nil {
					return err
				}
				renderRunReport(cmd.OutOrStdout(), state, artifacts, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCheckpoints(func(store *checkpoint.Store) error {
				summaries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(summaries))
				for _, summary := range summaries {
					rows = append(rows, []string{
						summary.RunID,
						summary.Title,
						colorizeStatus(string(summary.Status), statusColor(summary.Status), colorize),
						fmt.Sprintf("%d", summary.ErrorCount),
						summary.UpdatedAt.Local().Format(time.RFC3339),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Title", "Status", "Errors", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}
