package stages

import (
	"shortfilm/internal/artifact"
	"shortfilm/internal/config"
	"shortfilm/internal/pipeline"
	"shortfilm/internal/stage"
)

// Stage identifiers for the film pipeline.
const (
	StageScript     = "script"
	StageCharacters = "characters"
	StageVisual     = "visual"
	StageAudio      = "audio"
	StageVideo      = "video"
)

// StageSet pairs pipeline descriptors with the handlers that execute them.
type StageSet struct {
	Descriptors []pipeline.Descriptor
	Handlers    map[string]stage.Handler
}

// Definitions builds the standard short-film pipeline: the script stage feeds
// characters, visual, and audio; video composes the final film from the rest.
// Failure policies come from the configuration, falling back to the defaults
// declared here.
func Definitions(cfg *config.Config, backend Backend, brief artifact.UserBrief) StageSet {
	descriptors := []pipeline.Descriptor{
		{
			ID:       StageScript,
			Produces: artifact.ScriptID,
			Policy:   policyFor(cfg, StageScript, pipeline.PolicyFatal),
		},
		{
			ID:       StageCharacters,
			Produces: artifact.CharacterSetID,
			Requires: []artifact.ID{artifact.ScriptID},
			Policy:   policyFor(cfg, StageCharacters, pipeline.PolicySkippable),
		},
		{
			ID:       StageVisual,
			Produces: artifact.VisualScriptID,
			Requires: []artifact.ID{artifact.ScriptID},
			Optional: []artifact.ID{artifact.CharacterSetID},
			Policy:   policyFor(cfg, StageVisual, pipeline.PolicyRetryable),
		},
		{
			ID:       StageAudio,
			Produces: artifact.AudioScriptID,
			Requires: []artifact.ID{artifact.ScriptID},
			Optional: []artifact.ID{artifact.CharacterSetID},
			Policy:   policyFor(cfg, StageAudio, pipeline.PolicyRetryable),
		},
		{
			ID:       StageVideo,
			Produces: artifact.VideoOutputID,
			Requires: []artifact.ID{artifact.ScriptID, artifact.VisualScriptID, artifact.AudioScriptID},
			Policy:   policyFor(cfg, StageVideo, pipeline.PolicyFatal),
		},
	}

	handlers := map[string]stage.Handler{
		StageScript:     NewScriptStage(backend, brief),
		StageCharacters: NewCharactersStage(backend),
		StageVisual:     NewVisualStage(backend, cfg.Output.Resolution),
		StageAudio:      NewAudioStage(backend),
		StageVideo:      NewVideoStage(backend, cfg.Output.Resolution, cfg.Output.Format),
	}

	return StageSet{Descriptors: descriptors, Handlers: handlers}
}

func policyFor(cfg *config.Config, name string, fallback pipeline.Policy) pipeline.Policy {
	if cfg == nil {
		return fallback
	}
	raw, ok := cfg.Stages[name]
	if !ok {
		return fallback
	}
	policy, ok := pipeline.ParsePolicy(raw)
	if !ok {
		return fallback
	}
	return policy
}
