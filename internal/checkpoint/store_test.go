package checkpoint_test

import (
	"context"
	"errors"
	"testing"

	"shortfilm/internal/artifact"
	"shortfilm/internal/checkpoint"
	"shortfilm/internal/testsupport"
)

var filmStages = []string{"script", "characters", "visual", "audio", "video"}

func sampleBrief() artifact.UserBrief {
	return artifact.UserBrief{
		StoryIdea:       "a lighthouse keeper finds a message in a bottle",
		Genre:           "drama",
		DurationSeconds: 60,
		VisualStyle:     "cinematic",
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	state := checkpoint.NewRunState("run-1", sampleBrief(), filmStages)
	state.Title = "Message in a Bottle"
	state.SetStatus(checkpoint.RunRunning)
	state.MarkSucceeded("script")
	state.MarkSucceeded("characters")
	state.MarkSkipped("visual", "image backend unavailable", 3)
	state.SetCurrentStage("audio")

	script := artifact.Script{Title: "Message in a Bottle", Genre: "drama"}
	characters := artifact.CharacterSet{Characters: []artifact.CharacterProfile{{Name: "Keeper"}}}
	if err := store.Save(ctx, state, []artifact.Artifact{script, characters}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, artifacts, err := store.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Title != "Message in a Bottle" || loaded.Status != checkpoint.RunRunning {
		t.Fatalf("loaded state mismatch: %+v", loaded)
	}
	if loaded.Outcomes["script"] != checkpoint.OutcomeSucceeded {
		t.Fatalf("script outcome = %s", loaded.Outcomes["script"])
	}
	if loaded.Outcomes["visual"] != checkpoint.OutcomeSkipped {
		t.Fatalf("visual outcome = %s", loaded.Outcomes["visual"])
	}
	if len(loaded.Errors) != 1 || loaded.Errors[0].Attempts != 3 {
		t.Fatalf("loaded errors = %+v", loaded.Errors)
	}
	if loaded.CurrentStage != "audio" {
		t.Fatalf("current stage = %q", loaded.CurrentStage)
	}
	if loaded.Brief.StoryIdea != sampleBrief().StoryIdea {
		t.Fatalf("brief mismatch: %+v", loaded.Brief)
	}

	if len(artifacts) != 2 {
		t.Fatalf("loaded %d artifacts", len(artifacts))
	}
	gotScript, ok := artifacts[artifact.ScriptID].(artifact.Script)
	if !ok || gotScript.Title != "Message in a Bottle" {
		t.Fatalf("script artifact mismatch: %+v", artifacts[artifact.ScriptID])
	}
	if _, ok := artifacts[artifact.CharacterSetID].(artifact.CharacterSet); !ok {
		t.Fatalf("characters artifact mismatch: %+v", artifacts[artifact.CharacterSetID])
	}
}

func TestSaveIsIdempotentForArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	state := checkpoint.NewRunState("run-1", sampleBrief(), filmStages)
	script := artifact.Script{Title: "First"}
	if err := store.Save(ctx, state, []artifact.Artifact{script}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	// A replayed save must not overwrite the original artifact row.
	if err := store.Save(ctx, state, []artifact.Artifact{artifact.Script{Title: "Second"}}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	_, artifacts, err := store.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, _ := artifacts[artifact.ScriptID].(artifact.Script)
	if got.Title != "First" {
		t.Fatalf("artifact overwritten: %+v", got)
	}
}

func TestLoadUnknownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, _, err := store.Load(context.Background(), "missing")
	if !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndLatest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.LatestRunID(ctx); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatal("expected ErrNotFound on empty store")
	}

	first := checkpoint.NewRunState("run-1", sampleBrief(), filmStages)
	first.SetStatus(checkpoint.RunCompleted)
	if err := store.Save(ctx, first, nil); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := checkpoint.NewRunState("run-2", sampleBrief(), filmStages)
	second.SetStatus(checkpoint.RunSuspended)
	second.SetCurrentStage("visual")
	if err := store.Save(ctx, second, nil); err != nil {
		t.Fatalf("save second: %v", err)
	}

	latest, err := store.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	if latest != "run-2" {
		t.Fatalf("latest = %q", latest)
	}

	summaries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List returned %d summaries", len(summaries))
	}
	if summaries[0].RunID != "run-2" || summaries[0].Status != checkpoint.RunSuspended {
		t.Fatalf("unexpected first summary: %+v", summaries[0])
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := checkpoint.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	state := checkpoint.NewRunState("run-1", sampleBrief(), filmStages)
	state.MarkSucceeded("script")
	if err := store.Save(ctx, state, []artifact.Artifact{artifact.Script{Title: "Persisted"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	loaded, artifacts, err := reopened.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if loaded.Outcomes["script"] != checkpoint.OutcomeSucceeded {
		t.Fatalf("script outcome after reopen = %s", loaded.Outcomes["script"])
	}
	if _, ok := artifacts[artifact.ScriptID]; !ok {
		t.Fatal("script artifact missing after reopen")
	}
}
