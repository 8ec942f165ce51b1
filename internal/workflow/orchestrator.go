package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shortfilm/internal/artifact"
	"shortfilm/internal/checkpoint"
	"shortfilm/internal/config"
	"shortfilm/internal/logging"
	"shortfilm/internal/pipeline"
	"shortfilm/internal/services"
	"shortfilm/internal/stage"
)

// Orchestrator drives a single run: it repeatedly dispatches the stages whose
// dependencies are satisfied, applies failure policies, and checkpoints state
// and new artifacts at every stage boundary. Cancellation and suspension take
// effect only at boundaries; a dispatched batch always finishes.
type Orchestrator struct {
	graph       *pipeline.Graph
	handlers    map[string]stage.Handler
	artifacts   *artifact.Store
	pending     *checkpoint.Pending
	checkpoints *checkpoint.Store
	logger      *slog.Logger

	maxParallel   int
	stageTimeout  time.Duration
	retryAttempts int
	retryBase     time.Duration
	retryMax      time.Duration
	sleep         func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	state *checkpoint.RunState

	seed map[artifact.ID]artifact.Artifact

	cancelRequested atomic.Bool
}

// Option customizes orchestrator construction.
type Option func(*Orchestrator)

// WithSleeper overrides the retry backoff sleep. Tests inject an instant
// sleeper here.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithSeedArtifacts preloads previously persisted artifacts into the store.
// Seeded artifacts are not re-persisted at the next checkpoint. Seeding is
// applied during construction so collisions fail NewOrchestrator.
func WithSeedArtifacts(seed map[artifact.ID]artifact.Artifact) Option {
	return func(o *Orchestrator) {
		if o.seed == nil {
			o.seed = make(map[artifact.ID]artifact.Artifact, len(seed))
		}
		for id, art := range seed {
			o.seed[id] = art
		}
	}
}

// NewOrchestrator builds an orchestrator over the given stage set. The state
// may be freshly created or loaded from a checkpoint; completed stages are
// never re-executed.
func NewOrchestrator(
	cfg *config.Config,
	descriptors []pipeline.Descriptor,
	handlers map[string]stage.Handler,
	state *checkpoint.RunState,
	checkpoints *checkpoint.Store,
	logger *slog.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	if cfg == nil || state == nil || checkpoints == nil {
		return nil, fmt.Errorf("workflow: orchestrator requires config, state, and checkpoint store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	graph, err := pipeline.Build(descriptors)
	if err != nil {
		return nil, err
	}
	for _, desc := range graph.Stages() {
		if _, ok := handlers[desc.ID]; !ok {
			return nil, fmt.Errorf("workflow: stage %q has no handler", desc.ID)
		}
	}

	pending := checkpoint.NewPending()
	o := &Orchestrator{
		graph:         graph,
		handlers:      handlers,
		artifacts:     artifact.NewStore(artifact.WithMirror(pending)),
		pending:       pending,
		checkpoints:   checkpoints,
		logger:        logging.NewComponentLogger(logger, "orchestrator"),
		maxParallel:   cfg.Workflow.MaxParallel,
		stageTimeout:  time.Duration(cfg.Workflow.StageTimeoutSeconds) * time.Second,
		retryAttempts: cfg.Workflow.RetryAttempts,
		retryBase:     time.Duration(cfg.Workflow.RetryBaseDelaySeconds) * time.Second,
		retryMax:      time.Duration(cfg.Workflow.RetryMaxDelaySeconds) * time.Second,
		sleep:         sleepContext,
		state:         state,
	}
	if o.maxParallel < 1 {
		o.maxParallel = 1
	}
	if o.retryAttempts < 1 {
		o.retryAttempts = 1
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.seed) > 0 {
		if err := o.artifacts.Seed(o.seed); err != nil {
			return nil, fmt.Errorf("workflow: seed artifacts: %w", err)
		}
		o.seed = nil
	}
	return o, nil
}

// RunID returns the identifier of the run this orchestrator drives.
func (o *Orchestrator) RunID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.RunID
}

// State returns a snapshot of the run state safe for concurrent readers.
func (o *Orchestrator) State() *checkpoint.RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Artifacts returns a snapshot of the artifacts produced so far.
func (o *Orchestrator) Artifacts() map[artifact.ID]artifact.Artifact {
	return o.artifacts.Snapshot()
}

// RequestCancel asks the run to stop at the next stage boundary. Stages
// already dispatched run to completion and their results are checkpointed
// before the run suspends.
func (o *Orchestrator) RequestCancel() {
	o.cancelRequested.Store(true)
}

// Run executes the pipeline until it completes, aborts, or suspends. It
// returns nil on completion, ErrSuspended when stopped at a boundary, and the
// fatal stage error when the run aborts.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.state.Status.Terminal() {
		o.mu.Unlock()
		return ErrRunFinished
	}
	o.state.SetStatus(checkpoint.RunRunning)
	runID := o.state.RunID
	o.mu.Unlock()

	ctx = services.WithRunID(ctx, runID)
	log := logging.WithContext(ctx, o.logger)

	if err := o.saveCheckpoint(ctx); err != nil {
		return o.abort(ctx, log, fmt.Errorf("persist initial checkpoint: %w", err))
	}
	log.Info("run started", logging.String(logging.FieldEventType, "run_started"))

	for {
		if ctx.Err() != nil || o.cancelRequested.Load() {
			return o.suspend(ctx, log)
		}

		o.mu.Lock()
		finished := o.state.FinishedSet()
		remaining := o.state.Pending()
		o.mu.Unlock()

		if remaining == 0 {
			return o.complete(ctx, log)
		}

		ready := o.graph.Ready(finished)
		runnable, skipped := o.partition(ready)
		if len(skipped) > 0 {
			o.mu.Lock()
			for _, skip := range skipped {
				o.state.MarkSkipped(skip.id, skip.reason, 0)
			}
			o.mu.Unlock()
			for _, skip := range skipped {
				log.Warn("stage skipped",
					logging.String(logging.FieldEventType, "stage_skipped"),
					logging.String(logging.FieldStage, skip.id),
					logging.String("reason", skip.reason))
			}
			if err := o.saveCheckpoint(ctx); err != nil {
				return o.abort(ctx, log, fmt.Errorf("persist checkpoint: %w", err))
			}
			continue
		}
		if len(runnable) == 0 {
			return o.abort(ctx, log, fmt.Errorf("%w: %d stages pending with none ready", pipeline.ErrDeadlock, remaining))
		}

		if len(runnable) > o.maxParallel {
			runnable = runnable[:o.maxParallel]
		}
		o.setCurrentStage(stageIDs(runnable))

		results := o.executeBatch(ctx, log, runnable)

		o.mu.Lock()
		var fatal error
		for _, res := range results {
			switch {
			case res.err == nil:
				o.state.MarkSucceeded(res.desc.ID)
			case res.fatal():
				o.state.MarkFailed(res.desc.ID, res.err.Error(), res.attempts)
				if fatal == nil {
					fatal = stage.Fail(res.desc.ID, res.err)
				}
			default:
				o.state.MarkSkipped(res.desc.ID, res.err.Error(), res.attempts)
			}
		}
		o.state.SetCurrentStage("")
		o.mu.Unlock()

		for _, res := range results {
			o.logResult(log, res)
		}

		if fatal != nil {
			if err := o.saveCheckpoint(ctx); err != nil {
				log.Error("checkpoint save failed during abort", logging.Error(err))
			}
			return o.abort(ctx, log, fatal)
		}
		if err := o.saveCheckpoint(ctx); err != nil {
			return o.abort(ctx, log, fmt.Errorf("persist checkpoint: %w", err))
		}
	}
}

type cascadeSkip struct {
	id     string
	reason string
}

// partition splits the ready set into stages whose required artifacts are all
// present and stages that must be skipped because an upstream stage was
// skipped and its artifact never materialized.
func (o *Orchestrator) partition(ready []pipeline.Descriptor) ([]pipeline.Descriptor, []cascadeSkip) {
	runnable := make([]pipeline.Descriptor, 0, len(ready))
	var skipped []cascadeSkip
	for _, desc := range ready {
		missing := o.missingRequired(desc)
		if len(missing) == 0 {
			runnable = append(runnable, desc)
			continue
		}
		skipped = append(skipped, cascadeSkip{
			id:     desc.ID,
			reason: fmt.Sprintf("required artifacts unavailable: %s", strings.Join(missing, ", ")),
		})
	}
	return runnable, skipped
}

func (o *Orchestrator) missingRequired(desc pipeline.Descriptor) []string {
	var missing []string
	for _, id := range desc.Requires {
		if !o.artifacts.Has(id) {
			missing = append(missing, string(id))
		}
	}
	return missing
}

type stageResult struct {
	desc     pipeline.Descriptor
	attempts int
	err      error
}

// fatal reports whether the result error must abort the run. A write-once
// violation in the artifact store is a contract breach and aborts even on
// stages whose policy would otherwise skip.
func (r stageResult) fatal() bool {
	if r.err == nil {
		return false
	}
	return r.desc.Policy == pipeline.PolicyFatal || errors.Is(r.err, artifact.ErrDuplicate)
}

func (o *Orchestrator) executeBatch(ctx context.Context, log *slog.Logger, batch []pipeline.Descriptor) []stageResult {
	results := make([]stageResult, len(batch))
	var wg sync.WaitGroup
	for i, desc := range batch {
		wg.Add(1)
		go func(i int, desc pipeline.Descriptor) {
			defer wg.Done()
			results[i] = o.executeStage(ctx, log, desc)
		}(i, desc)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) executeStage(ctx context.Context, log *slog.Logger, desc pipeline.Descriptor) stageResult {
	handler := o.handlers[desc.ID]
	inputs := o.collectInputs(desc)
	maxAttempts := 1
	if desc.Policy == pipeline.PolicyRetryable {
		maxAttempts = o.retryAttempts
	}

	log.Info("stage started",
		logging.String(logging.FieldEventType, "stage_started"),
		logging.String(logging.FieldStage, desc.ID),
		logging.String("policy", string(desc.Policy)))

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		art, err := o.invoke(ctx, desc, handler, inputs)
		if err == nil {
			if putErr := o.artifacts.Put(art); putErr != nil {
				return stageResult{desc: desc, attempts: attempts, err: putErr}
			}
			return stageResult{desc: desc, attempts: attempts}
		}
		lastErr = err
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		delay := o.backoffDelay(attempt)
		log.Warn("stage attempt failed, retrying",
			logging.String(logging.FieldStage, desc.ID),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := o.sleep(ctx, delay); err != nil {
			break
		}
	}
	return stageResult{desc: desc, attempts: attempts, err: lastErr}
}

func (o *Orchestrator) invoke(ctx context.Context, desc pipeline.Descriptor, handler stage.Handler, inputs stage.Inputs) (artifact.Artifact, error) {
	stageCtx := services.WithStage(ctx, desc.ID)
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, o.stageTimeout)
		defer cancel()
	}

	art, err := handler.Execute(stageCtx, inputs)
	if err != nil {
		return nil, err
	}
	if art == nil {
		return nil, fmt.Errorf("stage %q returned no artifact", desc.ID)
	}
	if art.ArtifactID() != desc.Produces {
		return nil, fmt.Errorf("stage %q produced %q, declared %q", desc.ID, art.ArtifactID(), desc.Produces)
	}
	return art, nil
}

func (o *Orchestrator) collectInputs(desc pipeline.Descriptor) stage.Inputs {
	inputs := make(stage.Inputs, len(desc.Requires)+len(desc.Optional))
	for _, id := range desc.Dependencies() {
		if art, err := o.artifacts.Get(id); err == nil {
			inputs[id] = art
		}
	}
	return inputs
}

func (o *Orchestrator) backoffDelay(attempt int) time.Duration {
	delay := o.retryBase
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if o.retryMax > 0 && delay >= o.retryMax {
			return o.retryMax
		}
	}
	if o.retryMax > 0 && delay > o.retryMax {
		delay = o.retryMax
	}
	return delay
}

func (o *Orchestrator) setCurrentStage(ids []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.SetCurrentStage(strings.Join(ids, ","))
}

// saveCheckpoint persists the current state plus all artifacts produced since
// the previous save in one transaction. On failure the artifacts are requeued
// so a later save can retry them.
func (o *Orchestrator) saveCheckpoint(ctx context.Context) error {
	o.mu.Lock()
	snapshot := o.state.Clone()
	o.mu.Unlock()

	batch := o.pending.Drain()
	if err := o.checkpoints.Save(context.WithoutCancel(ctx), snapshot, batch); err != nil {
		o.pending.Requeue(batch)
		return err
	}
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, log *slog.Logger) error {
	o.mu.Lock()
	o.state.SetStatus(checkpoint.RunCompleted)
	o.state.SetCurrentStage("")
	skipped := o.state.SkippedStages()
	o.mu.Unlock()

	if err := o.saveCheckpoint(ctx); err != nil {
		return fmt.Errorf("persist final checkpoint: %w", err)
	}
	log.Info("run completed",
		logging.String(logging.FieldEventType, "run_completed"),
		logging.Int("skipped_stages", len(skipped)))
	return nil
}

func (o *Orchestrator) suspend(ctx context.Context, log *slog.Logger) error {
	o.mu.Lock()
	o.state.SetStatus(checkpoint.RunSuspended)
	o.state.SetCurrentStage("")
	o.mu.Unlock()

	if err := o.saveCheckpoint(ctx); err != nil {
		return fmt.Errorf("persist suspension checkpoint: %w", err)
	}
	log.Info("run suspended", logging.String(logging.FieldEventType, "run_suspended"))
	return ErrSuspended
}

func (o *Orchestrator) abort(ctx context.Context, log *slog.Logger, cause error) error {
	o.mu.Lock()
	o.state.SetStatus(checkpoint.RunAborted)
	o.state.SetCurrentStage("")
	o.mu.Unlock()

	if err := o.saveCheckpoint(ctx); err != nil {
		log.Error("checkpoint save failed during abort", logging.Error(err))
	}
	log.Error("run aborted",
		logging.String(logging.FieldEventType, "run_aborted"),
		logging.Error(cause))
	return cause
}

func (o *Orchestrator) logResult(log *slog.Logger, res stageResult) {
	switch {
	case res.err == nil:
		log.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_completed"),
			logging.String(logging.FieldStage, res.desc.ID),
			logging.Int("attempts", res.attempts))
	case res.fatal():
		log.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failed"),
			logging.String(logging.FieldStage, res.desc.ID),
			logging.Int("attempts", res.attempts),
			logging.Error(res.err))
	default:
		log.Warn("stage skipped after failure",
			logging.String(logging.FieldEventType, "stage_skipped"),
			logging.String(logging.FieldStage, res.desc.ID),
			logging.Int("attempts", res.attempts),
			logging.Error(res.err))
	}
}

func stageIDs(descriptors []pipeline.Descriptor) []string {
	ids := make([]string, len(descriptors))
	for i, desc := range descriptors {
		ids[i] = desc.ID
	}
	return ids
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
