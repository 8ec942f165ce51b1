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

// AudioStage synthesizes one voice clip per dialogue line and drafts the
// soundscape (music cues and effects) for the film. Character profiles are
// optional; when present their voice characteristics select the voice.
type AudioStage struct {
	backend Backend
}

// NewAudioStage constructs the audio-generation stage.
func NewAudioStage(backend Backend) *AudioStage {
	return &AudioStage{backend: backend}
}

func (s *AudioStage) Execute(ctx context.Context, in stage.Inputs) (artifact.Artifact, error) {
	script, ok := in.Script()
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "audio", "inputs", "script artifact missing", nil)
	}
	characters, _ := in.Characters()
	voices := voiceIndex(characters)

	var lines []artifact.VoiceLine
	for _, scene := range script.Scenes {
		for _, dialogue := range scene.Dialogue {
			line, err := s.synthesizeLine(ctx, scene.Number, dialogue, voices[dialogue.Character])
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}

	soundscape, err := s.draftSoundscape(ctx, script)
	if err != nil {
		return nil, err
	}

	return artifact.AudioScript{
		BackgroundMusic: soundscape.BackgroundMusic,
		SoundEffects:    soundscape.SoundEffects,
		VoiceLines:      lines,
	}, nil
}

func (s *AudioStage) synthesizeLine(ctx context.Context, sceneNumber int, dialogue artifact.DialogueLine, voice string) (artifact.VoiceLine, error) {
	var line artifact.VoiceLine

	text := strings.TrimSpace(dialogue.Line)
	if text == "" {
		return line, services.Wrap(services.ErrValidation, "audio", fmt.Sprintf("scene %d", sceneNumber), "empty dialogue line", nil)
	}

	speech, err := s.backend.SynthesizeSpeech(ctx, generative.SpeechRequest{Text: text, Voice: voice})
	if err != nil {
		return line, services.Wrap(services.ErrExternalTool, "audio", fmt.Sprintf("scene %d speech", sceneNumber), "", err)
	}

	return artifact.VoiceLine{
		Character: dialogue.Character,
		Line:      text,
		AudioURL:  speech.URL,
		Duration:  speech.DurationSeconds,
	}, nil
}

type soundscape struct {
	BackgroundMusic []string `json:"background_music"`
	SoundEffects    []string `json:"sound_effects"`
}

func (s *AudioStage) draftSoundscape(ctx context.Context, script artifact.Script) (soundscape, error) {
	var plan soundscape

	locations := make([]string, 0, len(script.Scenes))
	for _, scene := range script.Scenes {
		locations = append(locations, fmt.Sprintf("scene %d: %s, %s", scene.Number, scene.Location, scene.Time))
	}
	prompt := fmt.Sprintf(
		"Plan the soundscape for a %s short film titled %q with tone %q.\nScenes:\n%s",
		script.Genre,
		script.Title,
		script.EmotionalTone,
		strings.Join(locations, "\n"),
	)

	content, err := s.backend.ChatJSON(ctx, soundscapeSystemPrompt, prompt)
	if err != nil {
		return plan, services.Wrap(services.ErrExternalTool, "audio", "soundscape", "", err)
	}
	if err := generative.DecodeModelJSON(content, &plan); err != nil {
		return plan, services.Wrap(services.ErrValidation, "audio", "soundscape", "malformed soundscape payload", err)
	}
	return plan, nil
}

// voiceIndex maps character names to a voice hint derived from their voice
// characteristics. Characters without traits fall back to the backend default.
func voiceIndex(characters artifact.CharacterSet) map[string]string {
	index := make(map[string]string, len(characters.Characters))
	for _, profile := range characters.Characters {
		if len(profile.VoiceTraits) == 0 {
			continue
		}
		if voice, ok := profile.VoiceTraits["voice"]; ok && strings.TrimSpace(voice) != "" {
			index[profile.Name] = strings.TrimSpace(voice)
			continue
		}
		traits := make([]string, 0, len(profile.VoiceTraits))
		for _, value := range profile.VoiceTraits {
			if v := strings.TrimSpace(value); v != "" {
				traits = append(traits, v)
			}
		}
		if len(traits) > 0 {
			index[profile.Name] = strings.Join(traits, ", ")
		}
	}
	return index
}
