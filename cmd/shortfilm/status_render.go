package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shortfilm/internal/artifact"
	"shortfilm/internal/checkpoint"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var titleCaser = cases.Title(language.Und)

// renderRunReport prints the per-stage outcome table for a run followed by
// the final video location when one was produced.
func renderRunReport(out io.Writer, state *checkpoint.RunState, artifacts map[artifact.ID]artifact.Artifact, colorize bool) {
	if state == nil {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run:    %s\n", state.RunID)
	if strings.TrimSpace(state.Title) != "" {
		fmt.Fprintf(out, "Title:  %s\n", state.Title)
	}
	fmt.Fprintf(out, "Status: %s\n", colorizeStatus(string(state.Status), statusColor(state.Status), colorize))

	rows := make([][]string, 0, len(state.Outcomes))
	for _, stageID := range sortedStageIDs(state) {
		outcome := state.Outcomes[stageID]
		detail := ""
		for _, stageErr := range state.Errors {
			if stageErr.Stage == stageID {
				detail = stageErr.Message
			}
		}
		rows = append(rows, []string{
			titleCaser.String(stageID),
			colorizeStatus(string(outcome), outcomeColor(outcome), colorize),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Stage", "Outcome", "Detail"}, rows, nil))

	if video, ok := artifacts[artifact.VideoOutputID].(artifact.VideoOutput); ok {
		fmt.Fprintf(out, "Video:  %s (%s, %ds)\n", video.URL, video.Resolution, video.DurationSeconds)
	}
}

// sortedStageIDs lists stages with completed ones first in completion order,
// then the rest alphabetically.
func sortedStageIDs(state *checkpoint.RunState) []string {
	seen := make(map[string]struct{}, len(state.Completed))
	ids := make([]string, 0, len(state.Outcomes))
	for _, id := range state.Completed {
		if _, ok := state.Outcomes[id]; ok {
			ids = append(ids, id)
			seen[id] = struct{}{}
		}
	}
	rest := make([]string, 0, len(state.Outcomes))
	for id := range state.Outcomes {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

func colorizeStatus(label, color string, colorize bool) string {
	if !colorize || color == "" {
		return label
	}
	return color + label + ansiReset
}

func statusColor(status checkpoint.RunStatus) string {
	switch status {
	case checkpoint.RunCompleted:
		return ansiGreen
	case checkpoint.RunAborted:
		return ansiRed
	case checkpoint.RunSuspended:
		return ansiYellow
	default:
		return ansiBlue
	}
}

func outcomeColor(outcome checkpoint.Outcome) string {
	switch outcome {
	case checkpoint.OutcomeSucceeded:
		return ansiGreen
	case checkpoint.OutcomeFailed:
		return ansiRed
	case checkpoint.OutcomeSkipped:
		return ansiYellow
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
