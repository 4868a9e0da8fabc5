// Package orchestrator is the composition root of the coco pipeline: it
// wires the phase machine, checkpoint store, quality convergence loop,
// regression detector, and metrics collector, and drives a session
// through converge -> orchestrate -> complete -> output.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mklein/coco/internal/checkpoint"
	"github.com/mklein/coco/internal/fsio"
	"github.com/mklein/coco/internal/logger"
	"github.com/mklein/coco/internal/metrics"
	"github.com/mklein/coco/internal/models"
	"github.com/mklein/coco/internal/phase"
	"github.com/mklein/coco/internal/quality"
)

// PhaseRunner executes the work of one phase. Runners are supplied by
// the caller; the orchestrator only sequences them, checkpoints between
// them, and records their outcomes.
//
// The state argument is a point-in-time snapshot: runners read it
// freely but mutations must go through the orchestrator's Update so
// they stay synchronized with the auto-checkpoint timer.
type PhaseRunner interface {
	Run(ctx context.Context, state *models.OrchestratorState) error
}

// PhaseRunnerFunc adapts a function to the PhaseRunner interface.
type PhaseRunnerFunc func(ctx context.Context, state *models.OrchestratorState) error

// Run implements PhaseRunner.
func (f PhaseRunnerFunc) Run(ctx context.Context, state *models.OrchestratorState) error {
	return f(ctx, state)
}

// Options configures an Orchestrator. Loop, Detector, and History are
// optional; Logger defaults to a no-op and FS to the local filesystem.
type Options struct {
	Loop      *quality.Loop
	Detector  *quality.Detector
	Collector *metrics.Collector
	History   *metrics.HistoryStore
	Logger    logger.Logger
	FS        fsio.FS

	// AutoCheckpoint starts the periodic save timer for the duration of
	// Run and installs the interrupt handler.
	AutoCheckpoint bool
}

// Orchestrator owns the session state. All mutations go through mu so
// the auto-checkpoint timer and the interrupt handler can snapshot the
// state mid-phase without racing the main control flow.
type Orchestrator struct {
	mu        sync.Mutex
	state     *models.OrchestratorState
	machine   *phase.Machine
	store     *checkpoint.Store
	loop      *quality.Loop
	detector  *quality.Detector
	collector *metrics.Collector
	history   *metrics.HistoryStore
	log       logger.Logger
	fs        fsio.FS
	autoCkpt  bool
	runners   map[models.Phase]PhaseRunner
}

// New creates an Orchestrator around an existing session state (fresh or
// resumed from a checkpoint).
func New(state *models.OrchestratorState, store *checkpoint.Store, opts Options) *Orchestrator {
	if state == nil {
		panic("orchestrator requires a non-nil state")
	}
	if store == nil {
		panic("orchestrator requires a checkpoint store")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	collector := opts.Collector
	if collector == nil {
		collector = metrics.NewCollector()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = fsio.NewOSFS()
	}
	return &Orchestrator{
		state:     state,
		machine:   phase.NewMachine(state),
		store:     store,
		loop:      opts.Loop,
		detector:  opts.Detector,
		collector: collector,
		history:   opts.History,
		log:       log,
		fs:        fsys,
		autoCkpt:  opts.AutoCheckpoint,
		runners:   make(map[models.Phase]PhaseRunner),
	}
}

// State returns the live session state. Only safe to touch while Run is
// not executing; concurrent readers use Snapshot instead.
func (o *Orchestrator) State() *models.OrchestratorState { return o.state }

// Snapshot returns a deep copy of the session state taken under the
// state lock. Safe to call from any goroutine at any time.
func (o *Orchestrator) Snapshot() *models.OrchestratorState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Update applies fn to the session state under the state lock. Phase
// runners use it for all state mutation.
func (o *Orchestrator) Update(fn func(state *models.OrchestratorState)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.state)
}

// Suggestion returns the human-readable next action for the session.
func (o *Orchestrator) Suggestion(sctx phase.SuggestionContext) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.Suggestion(sctx)
}

// Register installs the runner for a phase. A phase without a runner is
// completed immediately when reached.
func (o *Orchestrator) Register(p models.Phase, runner PhaseRunner) {
	o.runners[p] = runner
}

// Run drives the pipeline from the current phase to the terminal phase,
// checkpointing after every phase. A runner error stops the pipeline
// after a final checkpoint so the session can be resumed.
//
// Every save, including the periodic timer's and the interrupt
// finalizer's, serializes a snapshot rather than the live state, so a
// checkpoint written mid-phase is always internally consistent.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.autoCkpt {
		o.store.StartAutoCheckpoint(o.Snapshot)
		defer o.store.StopAutoCheckpoint()

		unregister := o.store.RegisterInterruptHandler(func() error {
			return o.store.Save(o.Snapshot())
		})
		defer unregister()
	}

	for {
		if err := ctx.Err(); err != nil {
			o.checkpointBestEffort()
			return err
		}

		o.mu.Lock()
		current := o.machine.Current()
		if o.machine.IsCompleted(current) {
			// Terminal phase already done: nothing left to run.
			if current.IsTerminal() {
				o.mu.Unlock()
				return nil
			}
			next, _ := current.Next()
			o.machine.UpdatePhase(next)
			o.mu.Unlock()
			continue
		}
		o.mu.Unlock()

		if err := o.runPhase(ctx, current); err != nil {
			o.checkpointBestEffort()
			return fmt.Errorf("phase %s failed: %w", current, err)
		}

		o.mu.Lock()
		o.machine.CompletePhase(current)
		o.mu.Unlock()
		if err := o.store.Save(o.Snapshot()); err != nil {
			return fmt.Errorf("checkpoint after phase %s failed: %w", current, err)
		}

		if current.IsTerminal() {
			return nil
		}
	}
}

// runPhase executes one phase's runner and records its metrics.
func (o *Orchestrator) runPhase(ctx context.Context, p models.Phase) error {
	runner, ok := o.runners[p]
	if !ok {
		o.log.Debugf("no runner for phase %s, completing immediately", p)
		return nil
	}

	snap := o.Snapshot()

	o.log.Infof("phase %s starting", p)
	start := time.Now()
	err := runner.Run(ctx, snap)
	duration := time.Since(start)

	o.collector.RecordPhase(p, duration, err == nil)
	if o.history != nil {
		if recErr := o.history.Record(ctx, snap.SessionID, p, duration, err == nil); recErr != nil {
			o.log.Warnf("failed to persist phase metric: %v", recErr)
		}
	}

	if err != nil {
		o.log.Errorf("phase %s failed after %s: %v", p, duration.Round(time.Millisecond), err)
		return err
	}
	o.log.Infof("phase %s complete (%s)", p, duration.Round(time.Millisecond))
	return nil
}

// checkpointBestEffort saves the state, logging rather than returning a
// failure; used on error paths where the original error matters more.
func (o *Orchestrator) checkpointBestEffort() {
	if err := o.store.Save(o.Snapshot()); err != nil {
		o.log.Warnf("best-effort checkpoint failed: %v", err)
	}
}
