package stages

import (
	"context"

	"shortfilm/internal/services/generative"
)

// Backend is the slice of the generative client the stages consume.
// *generative.Client satisfies it; tests substitute a stub.
type Backend interface {
	ChatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateImage(ctx context.Context, prompt, size string) (generative.Image, error)
	SynthesizeSpeech(ctx context.Context, req generative.SpeechRequest) (generative.Speech, error)
	SynthesizeVideo(ctx context.Context, req generative.VideoRequest) (generative.Video, error)
}

var _ Backend = (*generative.Client)(nil)
