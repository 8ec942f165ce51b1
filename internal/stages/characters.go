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

const portraitSize = "1024x1024"

// CharactersStage enriches the script's character profiles and generates a
// portrait for each. A script without named characters yields an empty set
// rather than an error.
type CharactersStage struct {
	backend Backend
}

// NewCharactersStage constructs the character-elaboration stage.
func NewCharactersStage(backend Backend) *CharactersStage {
	return &CharactersStage{backend: backend}
}

func (s *CharactersStage) Execute(ctx context.Context, in stage.Inputs) (artifact.Artifact, error) {
	script, ok := in.Script()
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "characters", "inputs", "script artifact missing", nil)
	}

	if len(script.Characters) == 0 {
		return artifact.CharacterSet{Characters: []artifact.CharacterProfile{}}, nil
	}

	enriched := make([]artifact.CharacterProfile, 0, len(script.Characters))
	for _, profile := range script.Characters {
		full, err := s.enrich(ctx, script, profile)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, full)
	}
	return artifact.CharacterSet{Characters: enriched}, nil
}

func (s *CharactersStage) enrich(ctx context.Context, script artifact.Script, profile artifact.CharacterProfile) (artifact.CharacterProfile, error) {
	prompt := fmt.Sprintf(
		"Expand this character for the film %q (%s, tone: %s).\nName: %s\nAge: %d\nTraits: %s\nBackground: %s",
		script.Title,
		script.Genre,
		script.EmotionalTone,
		profile.Name,
		profile.Age,
		strings.Join(profile.PersonalityTraits, ", "),
		profile.BackgroundStory,
	)

	content, err := s.backend.ChatJSON(ctx, characterSystemPrompt, prompt)
	if err != nil {
		return profile, services.Wrap(services.ErrExternalTool, "characters", "enrich "+profile.Name, "", err)
	}

	var full artifact.CharacterProfile
	if err := generative.DecodeModelJSON(content, &full); err != nil {
		return profile, services.Wrap(services.ErrValidation, "characters", "enrich "+profile.Name, "malformed profile payload", err)
	}
	if strings.TrimSpace(full.Name) == "" {
		full.Name = profile.Name
	}

	if desc := strings.TrimSpace(full.VisualDescription); desc != "" {
		portrait, err := s.backend.GenerateImage(ctx, desc, portraitSize)
		if err != nil {
			return full, services.Wrap(services.ErrExternalTool, "characters", "portrait "+full.Name, "", err)
		}
		full.PortraitURL = portrait.URL
	}
	return full, nil
}
