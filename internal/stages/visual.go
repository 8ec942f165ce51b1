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

// VisualStage turns the script into a storyboard: one described and rendered
// frame per scene. Character profiles are an optional input; when present
// their visual descriptions anchor the frame prompts.
type VisualStage struct {
	backend    Backend
	resolution string
}

// NewVisualStage constructs the visual-generation stage.
func NewVisualStage(backend Backend, resolution string) *VisualStage {
	return &VisualStage{backend: backend, resolution: resolution}
}

func (s *VisualStage) Execute(ctx context.Context, in stage.Inputs) (artifact.Artifact, error) {
	script, ok := in.Script()
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "visual", "inputs", "script artifact missing", nil)
	}
	characters, _ := in.Characters()

	visuals := make([]artifact.SceneVisual, 0, len(script.Scenes))
	for _, scene := range script.Scenes {
		visual, err := s.renderScene(ctx, script, characters, scene)
		if err != nil {
			return nil, err
		}
		visuals = append(visuals, visual)
	}

	return artifact.VisualScript{
		Scenes:          visuals,
		StyleReferences: styleReferences(script),
	}, nil
}

func (s *VisualStage) renderScene(ctx context.Context, script artifact.Script, characters artifact.CharacterSet, scene artifact.Scene) (artifact.SceneVisual, error) {
	var visual artifact.SceneVisual

	op := fmt.Sprintf("scene %d", scene.Number)
	prompt := fmt.Sprintf(
		"Describe one storyboard frame.\nFilm: %s (%s, style: %s)\nScene %d at %s, %s.\nCharacters present: %s\nActions: %s%s",
		script.Title,
		script.Genre,
		script.VisualStyle,
		scene.Number,
		scene.Location,
		scene.Time,
		strings.Join(scene.Characters, ", "),
		strings.Join(scene.Actions, "; "),
		characterAppearances(characters, scene),
	)

	content, err := s.backend.ChatJSON(ctx, sceneVisualSystemPrompt, prompt)
	if err != nil {
		return visual, services.Wrap(services.ErrExternalTool, "visual", op, "", err)
	}

	var described struct {
		Description string `json:"description"`
		CameraAngle string `json:"camera_angle"`
	}
	if err := generative.DecodeModelJSON(content, &described); err != nil {
		return visual, services.Wrap(services.ErrValidation, "visual", op, "malformed frame payload", err)
	}
	if strings.TrimSpace(described.Description) == "" {
		return visual, services.Wrap(services.ErrValidation, "visual", op, "empty frame description", nil)
	}

	frame, err := s.backend.GenerateImage(ctx, described.Description, s.resolution)
	if err != nil {
		return visual, services.Wrap(services.ErrExternalTool, "visual", op, "", err)
	}

	return artifact.SceneVisual{
		SceneNumber: scene.Number,
		Description: described.Description,
		CameraAngle: described.CameraAngle,
		FrameURL:    frame.URL,
	}, nil
}

func characterAppearances(characters artifact.CharacterSet, scene artifact.Scene) string {
	if len(characters.Characters) == 0 {
		return ""
	}
	inScene := make(map[string]struct{}, len(scene.Characters))
	for _, name := range scene.Characters {
		inScene[name] = struct{}{}
	}
	lines := make([]string, 0, len(scene.Characters))
	for _, profile := range characters.Characters {
		if _, ok := inScene[profile.Name]; !ok {
			continue
		}
		if desc := strings.TrimSpace(profile.VisualDescription); desc != "" {
			lines = append(lines, fmt.Sprintf("%s looks like: %s", profile.Name, desc))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n")
}

func styleReferences(script artifact.Script) []string {
	refs := make([]string, 0, 2)
	if style := strings.TrimSpace(script.VisualStyle); style != "" {
		refs = append(refs, style)
	}
	if tone := strings.TrimSpace(script.EmotionalTone); tone != "" {
		refs = append(refs, tone)
	}
	return refs
}
