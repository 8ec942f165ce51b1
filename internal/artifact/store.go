package artifact

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicate reports a second Put for the same identifier within a run.
	ErrDuplicate = errors.New("artifact already present")
	// ErrMissing reports a lookup for an artifact that was never stored.
	ErrMissing = errors.New("artifact not found")
)

// Mirror receives every artifact written to a Store. The checkpoint manager
// registers its pending snapshot buffer here so new artifacts are queued for
// the next checkpoint without the store knowing about persistence.
type Mirror interface {
	Record(Artifact)
}

// Store holds one artifact per identifier for the lifetime of a run. It is
// safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	artifacts map[ID]Artifact
	mirror    Mirror
}

// StoreOption configures optional Store behavior.
type StoreOption func(*Store)

// WithMirror attaches a mirror that observes every successful Put.
func WithMirror(m Mirror) StoreOption {
	return func(s *Store) {
		s.mirror = m
	}
}

// NewStore constructs an empty artifact store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{artifacts: make(map[ID]Artifact)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores an artifact. Artifacts are write-once per run: storing a second
// artifact under the same identifier fails with ErrDuplicate.
func (s *Store) Put(a Artifact) error {
	if a == nil {
		return errors.New("put artifact: nil artifact")
	}
	id := a.ArtifactID()

	s.mu.Lock()
	if _, exists := s.artifacts[id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	s.artifacts[id] = a
	mirror := s.mirror
	s.mu.Unlock()

	if mirror != nil {
		mirror.Record(a)
	}
	return nil
}

// Get returns the artifact stored under id, or ErrMissing.
func (s *Store) Get(id ID) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissing, id)
	}
	return a, nil
}

// Has reports whether an artifact is stored under id.
func (s *Store) Has(id ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[id]
	return ok
}

// HasAll reports whether every identifier in ids has a stored artifact.
func (s *Store) HasAll(ids ...ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.artifacts[id]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() map[ID]Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[ID]Artifact, len(s.artifacts))
	for id, a := range s.artifacts {
		cp[id] = a
	}
	return cp
}

// Seed loads restored artifacts into an empty store during resumption. Unlike
// Put it bypasses the mirror, since restored artifacts are already persisted.
func (s *Store) Seed(artifacts map[ID]Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range artifacts {
		if a == nil {
			return fmt.Errorf("seed artifact %s: nil artifact", id)
		}
		if _, exists := s.artifacts[id]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		s.artifacts[id] = a
	}
	return nil
}
