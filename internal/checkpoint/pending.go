package checkpoint

import (
	"sync"

	"shortfilm/internal/artifact"
)

// Pending buffers artifacts produced since the last checkpoint. The artifact
// store mirrors every Put here; the orchestrator drains the buffer into Save
// at each stage boundary.
type Pending struct {
	mu        sync.Mutex
	artifacts []artifact.Artifact
}

// NewPending constructs an empty buffer.
func NewPending() *Pending {
	return &Pending{}
}

// Record implements artifact.Mirror.
func (p *Pending) Record(a artifact.Artifact) {
	if a == nil {
		return
	}
	p.mu.Lock()
	p.artifacts = append(p.artifacts, a)
	p.mu.Unlock()
}

// Drain returns the buffered artifacts and resets the buffer.
func (p *Pending) Drain() []artifact.Artifact {
	p.mu.Lock()
	defer p.mu.Unlock()
	drained := p.artifacts
	p.artifacts = nil
	return drained
}

// Requeue puts artifacts back after a failed save so the next checkpoint
// attempt persists them.
func (p *Pending) Requeue(artifacts []artifact.Artifact) {
	if len(artifacts) == 0 {
		return
	}
	p.mu.Lock()
	p.artifacts = append(artifacts, p.artifacts...)
	p.mu.Unlock()
}
