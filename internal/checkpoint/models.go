package checkpoint

import (
	"strings"
	"time"

	"shortfilm/internal/artifact"
)

// RunStatus represents the lifecycle of a pipeline run.
type RunStatus string

const (
	RunNotStarted RunStatus = "not_started"
	RunRunning    RunStatus = "running"
	RunCompleted  RunStatus = "completed"
	RunAborted    RunStatus = "aborted"
	RunSuspended  RunStatus = "suspended"
)

// Terminal reports whether the run can make no further progress without a
// fresh start. Suspended runs are resumable and therefore not terminal.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunAborted
}

// ParseRunStatus converts a string into a known RunStatus.
func ParseRunStatus(value string) (RunStatus, bool) {
	normalized := RunStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case RunNotStarted, RunRunning, RunCompleted, RunAborted, RunSuspended:
		return normalized, true
	default:
		return "", false
	}
}

// Outcome records how a single stage ended.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// StageError is one recorded stage failure.
type StageError struct {
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	Attempts   int       `json:"attempts"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RunState is the mutable record of a pipeline execution. It is created at
// run start, mutated exclusively by the orchestrator, persisted here at stage
// boundaries, and kept as the run archive after completion.
type RunState struct {
	RunID        string             `json:"run_id"`
	Title        string             `json:"title,omitempty"`
	Status       RunStatus          `json:"status"`
	CurrentStage string             `json:"current_stage,omitempty"`
	Completed    []string           `json:"completed"`
	Outcomes     map[string]Outcome `json:"outcomes"`
	Errors       []StageError       `json:"errors"`
	Brief        artifact.UserBrief `json:"brief"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewRunState constructs the initial state for a run over the given stages.
func NewRunState(runID string, brief artifact.UserBrief, stageIDs []string) *RunState {
	now := time.Now().UTC()
	outcomes := make(map[string]Outcome, len(stageIDs))
	for _, id := range stageIDs {
		outcomes[id] = OutcomePending
	}
	return &RunState{
		RunID:     runID,
		Status:    RunNotStarted,
		Completed: []string{},
		Outcomes:  outcomes,
		Errors:    []StageError{},
		Brief:     brief,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (rs *RunState) Clone() *RunState {
	if rs == nil {
		return nil
	}
	cp := *rs
	cp.Completed = append([]string(nil), rs.Completed...)
	cp.Errors = append([]StageError(nil), rs.Errors...)
	cp.Outcomes = make(map[string]Outcome, len(rs.Outcomes))
	for id, outcome := range rs.Outcomes {
		cp.Outcomes[id] = outcome
	}
	return &cp
}

// MarkSucceeded records a successful stage and appends it to the completed list.
func (rs *RunState) MarkSucceeded(stageID string) {
	rs.Outcomes[stageID] = OutcomeSucceeded
	rs.Completed = append(rs.Completed, stageID)
	rs.touch()
}

// MarkSkipped records a skipped stage, optionally with the error that caused it.
func (rs *RunState) MarkSkipped(stageID, message string, attempts int) {
	rs.Outcomes[stageID] = OutcomeSkipped
	if message != "" {
		rs.appendError(stageID, message, attempts)
	}
	rs.touch()
}

// MarkFailed records a failed stage.
func (rs *RunState) MarkFailed(stageID, message string, attempts int) {
	rs.Outcomes[stageID] = OutcomeFailed
	rs.appendError(stageID, message, attempts)
	rs.touch()
}

func (rs *RunState) appendError(stageID, message string, attempts int) {
	rs.Errors = append(rs.Errors, StageError{
		Stage:      stageID,
		Message:    message,
		Attempts:   attempts,
		OccurredAt: time.Now().UTC(),
	})
}

func (rs *RunState) touch() {
	rs.UpdatedAt = time.Now().UTC()
}

// SetStatus transitions the run status.
func (rs *RunState) SetStatus(status RunStatus) {
	rs.Status = status
	rs.touch()
}

// SetCurrentStage records the stage the orchestrator is about to dispatch.
func (rs *RunState) SetCurrentStage(stageID string) {
	rs.CurrentStage = stageID
	rs.touch()
}

// FinishedSet returns the stages that no longer block scheduling: succeeded
// and skipped stages alike.
func (rs *RunState) FinishedSet() map[string]struct{} {
	finished := make(map[string]struct{}, len(rs.Outcomes))
	for id, outcome := range rs.Outcomes {
		if outcome == OutcomeSucceeded || outcome == OutcomeSkipped {
			finished[id] = struct{}{}
		}
	}
	return finished
}

// Pending reports how many stages have not reached an outcome yet.
func (rs *RunState) Pending() int {
	count := 0
	for _, outcome := range rs.Outcomes {
		if outcome == OutcomePending {
			count++
		}
	}
	return count
}

// SkippedStages returns skipped stage identifiers in no particular order.
func (rs *RunState) SkippedStages() []string {
	skipped := make([]string, 0)
	for id, outcome := range rs.Outcomes {
		if outcome == OutcomeSkipped {
			skipped = append(skipped, id)
		}
	}
	return skipped
}

// RunSummary is the lightweight listing row for archived and active runs.
type RunSummary struct {
	RunID        string
	Title        string
	Status       RunStatus
	CurrentStage string
	ErrorCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
