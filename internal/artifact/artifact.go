package artifact

import (
	"encoding/json"
	"fmt"
)

// ID identifies a stage output. Each ID is produced by exactly one stage and
// carries exactly one payload type.
type ID string

const (
	ScriptID       ID = "script"
	CharacterSetID ID = "characters"
	VisualScriptID ID = "visual_script"
	AudioScriptID  ID = "audio_script"
	VideoOutputID  ID = "video_output"
)

// Artifact is a typed, immutable stage output.
type Artifact interface {
	ArtifactID() ID
}

func (Script) ArtifactID() ID       { return ScriptID }
func (CharacterSet) ArtifactID() ID { return CharacterSetID }
func (VisualScript) ArtifactID() ID { return VisualScriptID }
func (AudioScript) ArtifactID() ID  { return AudioScriptID }
func (VideoOutput) ArtifactID() ID  { return VideoOutputID }

// Encode serializes an artifact payload for checkpoint persistence.
func Encode(a Artifact) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("encode artifact: nil artifact")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode artifact %s: %w", a.ArtifactID(), err)
	}
	return data, nil
}

// Decode reconstructs an artifact from its identifier and serialized payload.
func Decode(id ID, payload []byte) (Artifact, error) {
	var (
		a   Artifact
		err error
	)
	switch id {
	case ScriptID:
		var v Script
		err = json.Unmarshal(payload, &v)
		a = v
	case CharacterSetID:
		var v CharacterSet
		err = json.Unmarshal(payload, &v)
		a = v
	case VisualScriptID:
		var v VisualScript
		err = json.Unmarshal(payload, &v)
		a = v
	case AudioScriptID:
		var v AudioScript
		err = json.Unmarshal(payload, &v)
		a = v
	case VideoOutputID:
		var v VideoOutput
		err = json.Unmarshal(payload, &v)
		a = v
	default:
		return nil, fmt.Errorf("decode artifact: unknown identifier %q", id)
	}
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", id, err)
	}
	return a, nil
}
