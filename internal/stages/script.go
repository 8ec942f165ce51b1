package stages

import (
	"context"
	"fmt"
	"strings"

	"shortfilm/internal/artifact"
	"shortfilm/internal/services"
	"shortfilm/internal/services/generative"
	"shortfilm/internal/stage"
)

// ScriptStage turns the user brief into a screenplay. It first elaborates the
// brief into a story concept, then writes the full script from that concept.
type ScriptStage struct {
	backend Backend
	brief   artifact.UserBrief
}

// NewScriptStage constructs the script-writing stage.
func NewScriptStage(backend Backend, brief artifact.UserBrief) *ScriptStage {
	return &ScriptStage{backend: backend, brief: brief}
}

func (s *ScriptStage) Execute(ctx context.Context, _ stage.Inputs) (artifact.Artifact, error) {
	concept, err := s.developConcept(ctx)
	if err != nil {
		return nil, err
	}

	script, err := s.writeScript(ctx, concept)
	if err != nil {
		return nil, err
	}
	return script, nil
}

func (s *ScriptStage) developConcept(ctx context.Context) (artifact.StoryConcept, error) {
	var concept artifact.StoryConcept

	prompt := fmt.Sprintf(
		"Develop a story concept for a short film.\nIdea: %s\nGenre: %s\nTarget duration: %d seconds\nVisual style: %s\nSpecial requirements: %s",
		s.brief.StoryIdea,
		s.brief.Genre,
		s.brief.DurationSeconds,
		s.brief.VisualStyle,
		orNone(s.brief.SpecialRequirements),
	)

	content, err := s.backend.ChatJSON(ctx, conceptSystemPrompt, prompt)
	if err != nil {
		return concept, services.Wrap(services.ErrExternalTool, "script", "develop concept", "", err)
	}
	if err := generative.DecodeModelJSON(content, &concept); err != nil {
		return concept, services.Wrap(services.ErrValidation, "script", "develop concept", "malformed concept payload", err)
	}
	if strings.TrimSpace(concept.Title) == "" {
		return concept, services.Wrap(services.ErrValidation, "script", "develop concept", "concept missing title", nil)
	}
	return concept, nil
}

func (s *ScriptStage) writeScript(ctx context.Context, concept artifact.StoryConcept) (artifact.Script, error) {
	var script artifact.Script

	prompt := fmt.Sprintf(
		"Write a complete short film script.\nTitle: %s\nCore conflict: %s\nMain characters: %s\nEmotional tone: %s\nGenre: %s\nTotal duration: %d seconds\nVisual style: %s",
		concept.Title,
		concept.CoreConflict,
		strings.Join(concept.MainCharacters, ", "),
		concept.EmotionalTone,
		s.brief.Genre,
		s.brief.DurationSeconds,
		s.brief.VisualStyle,
	)

	content, err := s.backend.ChatJSON(ctx, scriptSystemPrompt, prompt)
	if err != nil {
		return script, services.Wrap(services.ErrExternalTool, "script", "write script", "", err)
	}
	if err := generative.DecodeModelJSON(content, &script); err != nil {
		return script, services.Wrap(services.ErrValidation, "script", "write script", "malformed script payload", err)
	}
	if len(script.Scenes) == 0 {
		return script, services.Wrap(services.ErrValidation, "script", "write script", "script has no scenes", nil)
	}
	if strings.TrimSpace(script.Title) == "" {
		script.Title = concept.Title
	}
	if strings.TrimSpace(script.Genre) == "" {
		script.Genre = s.brief.Genre
	}
	if script.DurationSeconds == 0 {
		script.DurationSeconds = s.brief.DurationSeconds
	}
	if strings.TrimSpace(script.VisualStyle) == "" {
		script.VisualStyle = s.brief.VisualStyle
	}
	return script, nil
}

func orNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "none"
	}
	return value
}
