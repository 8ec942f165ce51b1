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

// VideoStage composes the final film from the script, the storyboard frames,
// and the soundtrack. All three inputs are required.
type VideoStage struct {
	backend    Backend
	resolution string
	format     string
}

// NewVideoStage constructs the video-synthesis stage.
func NewVideoStage(backend Backend, resolution, format string) *VideoStage {
	return &VideoStage{backend: backend, resolution: resolution, format: format}
}

func (s *VideoStage) Execute(ctx context.Context, in stage.Inputs) (artifact.Artifact, error) {
	script, ok := in.Script()
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "video", "inputs", "script artifact missing", nil)
	}
	visual, ok := in.VisualScript()
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "video", "inputs", "visual script artifact missing", nil)
	}
	audio, ok := in.AudioScript()
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "video", "inputs", "audio script artifact missing", nil)
	}

	req := generative.VideoRequest{
		Prompt:     synthesisPrompt(script, visual),
		FrameURLs:  frameURLs(visual),
		AudioURLs:  audioURLs(audio),
		Duration:   script.DurationSeconds,
		Resolution: s.resolution,
		Format:     s.format,
	}

	video, err := s.backend.SynthesizeVideo(ctx, req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "video", "synthesis", "", err)
	}
	if strings.TrimSpace(video.URL) == "" {
		return nil, services.Wrap(services.ErrValidation, "video", "synthesis", "synthesis returned no output url", nil)
	}

	return artifact.VideoOutput{
		URL:             video.URL,
		DurationSeconds: video.DurationSeconds,
		Resolution:      video.Resolution,
		SizeBytes:       video.SizeBytes,
		QualityScore:    video.QualityScore,
	}, nil
}

func synthesisPrompt(script artifact.Script, visual artifact.VisualScript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. A %s short film", script.Title, script.Genre)
	if tone := strings.TrimSpace(script.EmotionalTone); tone != "" {
		fmt.Fprintf(&b, " with a %s tone", tone)
	}
	b.WriteString(".")
	for _, scene := range visual.Scenes {
		fmt.Fprintf(&b, "\nScene %d: %s", scene.SceneNumber, scene.Description)
		if angle := strings.TrimSpace(scene.CameraAngle); angle != "" {
			fmt.Fprintf(&b, " (%s)", angle)
		}
	}
	return b.String()
}

func frameURLs(visual artifact.VisualScript) []string {
	urls := make([]string, 0, len(visual.Scenes))
	for _, scene := range visual.Scenes {
		if url := strings.TrimSpace(scene.FrameURL); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

func audioURLs(audio artifact.AudioScript) []string {
	urls := make([]string, 0, len(audio.VoiceLines))
	for _, line := range audio.VoiceLines {
		if url := strings.TrimSpace(line.AudioURL); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}
