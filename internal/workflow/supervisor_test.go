package workflow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"shortfilm/internal/artifact"
	"shortfilm/internal/checkpoint"
	"shortfilm/internal/pipeline"
	"shortfilm/internal/stage"
	"shortfilm/internal/testsupport"
	"shortfilm/internal/workflow"
)

func staticFactory(handlers map[string]stage.Handler) workflow.StageSetFactory {
	return func(artifact.UserBrief) ([]pipeline.Descriptor, map[string]stage.Handler) {
		return filmGraph(nil), handlers
	}
}

func TestSupervisorStartRunsToCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sup, err := workflow.NewSupervisor(cfg, store, staticFactory(filmHandlers()), nil)
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}

	handle, err := sup.Start(context.Background(), "Test Film", artifact.UserBrief{StoryIdea: "idea", DurationSeconds: 30})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := handle.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	state, err := sup.Status(context.Background(), handle.RunID())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.Status != checkpoint.RunCompleted {
		t.Fatalf("status = %s", state.Status)
	}
	if state.Title != "Test Film" {
		t.Fatalf("title = %q", state.Title)
	}

	summaries, err := sup.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 || summaries[0].RunID != handle.RunID() {
		t.Fatalf("summaries = %+v", summaries)
	}
}

func TestSupervisorCancelAndResume(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxParallel(1))
	store := testsupport.MustOpenStore(t, cfg)

	var scriptCalls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	handlers := filmHandlers()
	handlers["script"] = stage.HandlerFunc(func(context.Context, stage.Inputs) (artifact.Artifact, error) {
		scriptCalls.Add(1)
		close(started)
		<-release
		return artifact.Script{Title: "Resumable"}, nil
	})

	sup, err := workflow.NewSupervisor(cfg, store, staticFactory(handlers), nil)
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}

	handle, err := sup.Start(context.Background(), "", artifact.UserBrief{StoryIdea: "idea", DurationSeconds: 30})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-started
	if !sup.Cancel() {
		t.Fatal("Cancel found no live run")
	}
	close(release)

	if err := handle.Wait(); !errors.Is(err, workflow.ErrSuspended) {
		t.Fatalf("Wait after cancel: %v", err)
	}

	// Resuming must pick up after the checkpointed script stage, not rerun it.
	handlers["script"] = stage.HandlerFunc(func(context.Context, stage.Inputs) (artifact.Artifact, error) {
		scriptCalls.Add(1)
		return artifact.Script{}, nil
	})

	resumed, err := sup.Resume(context.Background(), "")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.RunID() != handle.RunID() {
		t.Fatalf("resumed run %s, want %s", resumed.RunID(), handle.RunID())
	}
	if err := resumed.Wait(); err != nil {
		t.Fatalf("Wait after resume: %v", err)
	}
	if scriptCalls.Load() != 1 {
		t.Fatalf("script executed %d times", scriptCalls.Load())
	}

	state := resumed.State()
	if state.Status != checkpoint.RunCompleted {
		t.Fatalf("status = %s", state.Status)
	}
	for id, outcome := range state.Outcomes {
		if outcome != checkpoint.OutcomeSucceeded {
			t.Fatalf("stage %s outcome = %s", id, outcome)
		}
	}
}

func TestSupervisorRejectsConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	release := make(chan struct{})
	started := make(chan struct{})
	handlers := filmHandlers()
	handlers["script"] = stage.HandlerFunc(func(context.Context, stage.Inputs) (artifact.Artifact, error) {
		close(started)
		<-release
		return artifact.Script{}, nil
	})

	sup, err := workflow.NewSupervisor(cfg, store, staticFactory(handlers), nil)
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}

	handle, err := sup.Start(context.Background(), "", artifact.UserBrief{StoryIdea: "idea", DurationSeconds: 30})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started

	if _, err := sup.Start(context.Background(), "", artifact.UserBrief{StoryIdea: "other", DurationSeconds: 30}); !errors.Is(err, workflow.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(release)
	if err := handle.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSupervisorResumeRejectsTerminalRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sup, err := workflow.NewSupervisor(cfg, store, staticFactory(filmHandlers()), nil)
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}

	handle, err := sup.Start(context.Background(), "", artifact.UserBrief{StoryIdea: "idea", DurationSeconds: 30})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := handle.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if _, err := sup.Resume(context.Background(), handle.RunID()); !errors.Is(err, workflow.ErrRunFinished) {
		t.Fatalf("expected ErrRunFinished, got %v", err)
	}
}

func TestSupervisorResumeUnknownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sup, err := workflow.NewSupervisor(cfg, store, staticFactory(filmHandlers()), nil)
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}

	if _, err := sup.Resume(context.Background(), "missing"); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
