package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"shortfilm/internal/artifact"
	"shortfilm/internal/checkpoint"
	"shortfilm/internal/config"
	"shortfilm/internal/logging"
	"shortfilm/internal/pipeline"
	"shortfilm/internal/stage"
)

// StageSetFactory builds the stage descriptors and handlers for a brief.
// The factory runs once per start or resume so handlers can capture the brief.
type StageSetFactory func(brief artifact.UserBrief) ([]pipeline.Descriptor, map[string]stage.Handler)

// Supervisor owns run lifecycle: it creates orchestrators for new runs,
// rebuilds them from checkpoints for resumed runs, and enforces that only one
// run executes at a time via a file lock in the data directory.
type Supervisor struct {
	cfg         *config.Config
	checkpoints *checkpoint.Store
	factory     StageSetFactory
	logger      *slog.Logger

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	current *RunHandle
}

// RunHandle tracks one executing run.
type RunHandle struct {
	runID string
	orch  *Orchestrator
	done  chan struct{}
	err   error
}

// RunID returns the run identifier.
func (h *RunHandle) RunID() string { return h.runID }

// State returns a snapshot of the run state.
func (h *RunHandle) State() *checkpoint.RunState { return h.orch.State() }

// Artifacts returns a snapshot of the artifacts produced so far.
func (h *RunHandle) Artifacts() map[artifact.ID]artifact.Artifact { return h.orch.Artifacts() }

// Cancel asks the run to suspend at the next stage boundary.
func (h *RunHandle) Cancel() { h.orch.RequestCancel() }

// Wait blocks until the run finishes and returns its outcome: nil on
// completion, ErrSuspended on suspension, the fatal error on abort.
func (h *RunHandle) Wait() error {
	<-h.done
	return h.err
}

// NewSupervisor constructs a supervisor with initialized dependencies.
func NewSupervisor(cfg *config.Config, checkpoints *checkpoint.Store, factory StageSetFactory, logger *slog.Logger) (*Supervisor, error) {
	if cfg == nil || checkpoints == nil || factory == nil {
		return nil, errors.New("workflow: supervisor requires config, checkpoint store, and stage factory")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "shortfilm.lock")
	return &Supervisor{
		cfg:         cfg,
		checkpoints: checkpoints,
		factory:     factory,
		logger:      logger,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}, nil
}

// LockPath returns the path of the single-instance lock file.
func (s *Supervisor) LockPath() string { return s.lockPath }

// Start begins a new run from the given brief.
func (s *Supervisor) Start(ctx context.Context, title string, brief artifact.UserBrief) (*RunHandle, error) {
	descriptors, handlers := s.factory(brief)

	runID := uuid.NewString()
	state := checkpoint.NewRunState(runID, brief, descriptorIDs(descriptors))
	state.Title = title

	orch, err := NewOrchestrator(s.cfg, descriptors, handlers, state, s.checkpoints, s.logger)
	if err != nil {
		return nil, err
	}
	return s.launch(ctx, orch)
}

// Resume continues a previously suspended run. An empty runID resumes the
// most recent run. Completed and aborted runs cannot be resumed.
func (s *Supervisor) Resume(ctx context.Context, runID string) (*RunHandle, error) {
	if runID == "" {
		latest, err := s.checkpoints.LatestRunID(ctx)
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	state, artifacts, err := s.checkpoints.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if state.Status.Terminal() {
		return nil, fmt.Errorf("%w: run %s is %s", ErrRunFinished, runID, state.Status)
	}

	descriptors, handlers := s.factory(state.Brief)
	orch, err := NewOrchestrator(s.cfg, descriptors, handlers, state, s.checkpoints, s.logger,
		WithSeedArtifacts(artifacts))
	if err != nil {
		return nil, err
	}
	return s.launch(ctx, orch)
}

// Status reports the state of a run. An empty runID selects the most recent
// run. A live run is reported from memory, otherwise from the checkpoint.
func (s *Supervisor) Status(ctx context.Context, runID string) (*checkpoint.RunState, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if runID == "" {
		if current != nil {
			return current.State(), nil
		}
		latest, err := s.checkpoints.LatestRunID(ctx)
		if err != nil {
			return nil, err
		}
		runID = latest
	}
	if current != nil && current.RunID() == runID {
		return current.State(), nil
	}

	state, _, err := s.checkpoints.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// List returns summaries of all recorded runs, newest first.
func (s *Supervisor) List(ctx context.Context) ([]checkpoint.RunSummary, error) {
	return s.checkpoints.List(ctx)
}

// Cancel asks the live run, if any, to suspend at the next stage boundary.
func (s *Supervisor) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	s.current.Cancel()
	return true
}

func (s *Supervisor) launch(ctx context.Context, orch *Orchestrator) (*RunHandle, error) {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.mu.Unlock()

	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	handle := &RunHandle{
		runID: orch.RunID(),
		orch:  orch,
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	s.current = handle
	s.mu.Unlock()

	go func() {
		handle.err = orch.Run(ctx)
		if unlockErr := s.lock.Unlock(); unlockErr != nil {
			s.logger.Warn("failed to release run lock", logging.Error(unlockErr))
		}
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		close(handle.done)
	}()

	return handle, nil
}

func descriptorIDs(descriptors []pipeline.Descriptor) []string {
	ids := make([]string, len(descriptors))
	for i, desc := range descriptors {
		ids[i] = desc.ID
	}
	return ids
}
