// Package stages implements the concrete pipeline stages: script writing,
// character elaboration, visual and audio asset generation, and video
// synthesis. Each stage is a thin collaborator over the generative backend
// client and stays entirely behind the stage.Handler seam.
//
// Definitions wires the stages into descriptors with their failure-policy
// tags, applying per-stage overrides from configuration.
package stages
