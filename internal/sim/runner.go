package sim

import (
	"context"
	"sync"
	"time"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/platform/logger"
	"github.com/dmaslov/temporal-maze/internal/platform/metrics"
)

// DefaultTickRate is the real-time pacing of the simulation when the config
// does not override it.
const DefaultTickRate = 200 * time.Millisecond

// Command is an input queued between ticks and applied on the next tick
// boundary, keeping the session itself strictly synchronous.
type Command struct {
	Kind      CommandKind
	Move      grid.Direction
	StepsBack int
}

// CommandKind discriminates queued inputs.
type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandClone
	CommandReset
)

// Runner owns the real-time tick loop. The session it drives performs no
// pacing of its own; skipping or merging ticks would desynchronize clone
// replay from the history that produced it, so every tick runs exactly once.
type Runner struct {
	mu      sync.Mutex
	session *Session
	pending []Command

	tickRate time.Duration
	logger   *logger.Logger
	stopChan chan struct{}
}

// NewRunner creates a runner for the given session.
func NewRunner(session *Session, tickRate time.Duration, log *logger.Logger) *Runner {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Runner{
		session:  session,
		tickRate: tickRate,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Enqueue queues a command for the next tick boundary.
func (r *Runner) Enqueue(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, cmd)
}

// Start begins the tick loop. Call in a goroutine.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Simulation runner started.")

	ticker := time.NewTicker(r.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Simulation runner stopped by context.")
			return
		case <-r.stopChan:
			r.logger.Info("Simulation runner stopped manually.")
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// Stop gracefully stops the runner.
func (r *Runner) Stop() {
	close(r.stopChan)
}

// tick applies queued commands, then advances the session one step. At most
// one move is consumed per tick; extra moves stay queued so that input
// bursts never merge into a single tick.
func (r *Runner) tick() {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	move := grid.Stay
	moveTaken := false
	rest := r.pending[:0]
	for _, cmd := range r.pending {
		switch cmd.Kind {
		case CommandMove:
			if moveTaken {
				rest = append(rest, cmd)
				continue
			}
			move = cmd.Move
			moveTaken = true
		case CommandClone:
			if err := r.session.CreateClone(cmd.StepsBack); err == nil {
				metrics.Get().RecordCloneCreated()
			}
		case CommandReset:
			r.session.Reset()
		}
	}
	r.pending = rest

	before := r.session.Outcome()
	r.session.Step(move)
	if after := r.session.Outcome(); before == OutcomeRunning && after != before {
		switch after {
		case OutcomeCaptured:
			metrics.Get().RecordCapture()
		case OutcomeCompleted:
			metrics.Get().RecordCompletion()
		}
	}
	metrics.Get().RecordTick(time.Since(start))
	metrics.Get().SetActiveClones(int64(r.session.ActiveCloneCount()))
}

// Snapshot returns the current session snapshot, serialized with ticks.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Snapshot()
}
