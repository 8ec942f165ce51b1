package stage

import (
	"context"

	"shortfilm/internal/artifact"
)

// Inputs carries the dependency artifacts for one stage invocation. The
// orchestrator guarantees every required artifact is present; optional
// dependencies may be absent.
type Inputs map[artifact.ID]artifact.Artifact

// Script returns the script input when present.
func (in Inputs) Script() (artifact.Script, bool) {
	v, ok := in[artifact.ScriptID].(artifact.Script)
	return v, ok
}

// Characters returns the character set input when present.
func (in Inputs) Characters() (artifact.CharacterSet, bool) {
	v, ok := in[artifact.CharacterSetID].(artifact.CharacterSet)
	return v, ok
}

// VisualScript returns the visual script input when present.
func (in Inputs) VisualScript() (artifact.VisualScript, bool) {
	v, ok := in[artifact.VisualScriptID].(artifact.VisualScript)
	return v, ok
}

// AudioScript returns the audio script input when present.
func (in Inputs) AudioScript() (artifact.AudioScript, bool) {
	v, ok := in[artifact.AudioScriptID].(artifact.AudioScript)
	return v, ok
}

// Handler describes the contract the orchestrator needs from each stage.
type Handler interface {
	Execute(ctx context.Context, in Inputs) (artifact.Artifact, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, in Inputs) (artifact.Artifact, error)

func (f HandlerFunc) Execute(ctx context.Context, in Inputs) (artifact.Artifact, error) {
	return f(ctx, in)
}
