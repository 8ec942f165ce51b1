package artifact

// UserBrief captures the creative request a run starts from. It is part of the
// run record rather than a stage output, so it is not an Artifact itself.
type UserBrief struct {
	StoryIdea           string `json:"story_idea"`
	Genre               string `json:"genre"`
	DurationSeconds     int    `json:"duration_seconds"`
	VisualStyle         string `json:"visual_style"`
	SpecialRequirements string `json:"special_requirements,omitempty"`
}

// StoryConcept is the elaborated premise the script is written from.
type StoryConcept struct {
	Title            string   `json:"title"`
	CoreConflict     string   `json:"core_conflict"`
	MainCharacters   []string `json:"main_characters"`
	EmotionalTone    string   `json:"emotional_tone"`
	AudienceAnalysis string   `json:"audience_analysis"`
	FeasibilityScore float64  `json:"feasibility_score"`
}

// DialogueLine is a single spoken line attributed to a character.
type DialogueLine struct {
	Character string `json:"character"`
	Line      string `json:"line"`
}

// Scene describes one scene of the script.
type Scene struct {
	Number          int            `json:"scene_number"`
	Location        string         `json:"location"`
	Time            string         `json:"time"`
	Characters      []string       `json:"characters"`
	Dialogue        []DialogueLine `json:"dialogue"`
	Actions         []string       `json:"actions"`
	DurationSeconds int            `json:"duration_seconds"`
	Narration       string         `json:"narration,omitempty"`
}

// CharacterProfile describes one character of the script.
type CharacterProfile struct {
	Name              string            `json:"name"`
	Age               int               `json:"age"`
	PersonalityTraits []string          `json:"personality_traits"`
	BackgroundStory   string            `json:"background_story"`
	VoiceTraits       map[string]string `json:"voice_characteristics,omitempty"`
	Motivations       []string          `json:"motivations,omitempty"`
	Fears             []string          `json:"fears,omitempty"`
	CharacterArc      string            `json:"character_arc,omitempty"`
	VisualDescription string            `json:"visual_description,omitempty"`
	PortraitURL       string            `json:"portrait_url,omitempty"`
}

// Script is the screenplay produced by the script stage.
type Script struct {
	Title           string             `json:"title"`
	Genre           string             `json:"genre"`
	DurationSeconds int                `json:"total_duration_seconds"`
	Scenes          []Scene            `json:"scenes"`
	Characters      []CharacterProfile `json:"characters"`
	EmotionalTone   string             `json:"emotional_tone,omitempty"`
	VisualStyle     string             `json:"visual_style,omitempty"`
}

// CharacterSet carries the enriched character profiles produced by the
// characters stage. It may be empty when the script has no named characters.
type CharacterSet struct {
	Characters []CharacterProfile `json:"characters"`
}

// SceneVisual pairs a scene with its generated frame.
type SceneVisual struct {
	SceneNumber int    `json:"scene_number"`
	Description string `json:"description"`
	CameraAngle string `json:"camera_angle"`
	FrameURL    string `json:"frame_url"`
}

// VisualScript is the storyboard produced by the visual stage.
type VisualScript struct {
	Scenes          []SceneVisual `json:"scenes"`
	VisualEffects   []string      `json:"visual_effects,omitempty"`
	StyleReferences []string      `json:"style_references,omitempty"`
}

// VoiceLine is a synthesized spoken line.
type VoiceLine struct {
	Character string  `json:"character"`
	Line      string  `json:"line"`
	AudioURL  string  `json:"audio_url"`
	Duration  float64 `json:"duration_seconds"`
}

// AudioScript is the soundtrack plan produced by the audio stage.
type AudioScript struct {
	BackgroundMusic []string    `json:"background_music"`
	SoundEffects    []string    `json:"sound_effects"`
	VoiceLines      []VoiceLine `json:"voice_lines"`
}

// VideoOutput describes the synthesized film.
type VideoOutput struct {
	URL             string  `json:"url"`
	DurationSeconds int     `json:"duration_seconds"`
	Resolution      string  `json:"resolution"`
	SizeBytes       int64   `json:"size_bytes,omitempty"`
	QualityScore    float64 `json:"quality_score,omitempty"`
}
