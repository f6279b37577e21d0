package timetravel

import (
	"errors"
	"fmt"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/world"
)

// MaxClones bounds how many clones may replay at once.
const MaxClones = 3

// Clone creation failures. Both are recoverable: the call mutates nothing.
var (
	ErrCapacityExceeded = errors.New("timetravel: active clone limit reached")
	ErrInvalidLookback  = errors.New("timetravel: lookback outside recorded history")
)

// Manager owns the player's position history and the arena of active clones,
// indexed by creation order.
type Manager struct {
	history   []grid.Position
	clones    []*Clone
	spawned   int
	tickCount int
	mode      world.EffectsMode
}

// NewManager creates an empty manager. The effects mode decides how much of
// the tile-entry protocol clones run during replay.
func NewManager(mode world.EffectsMode) *Manager {
	return &Manager{mode: mode}
}

// Record appends the player's position for this tick. Called exactly once
// per tick, for the player only.
func (m *Manager) Record(p grid.Position) {
	m.history = append(m.history, p)
}

// HistoryLen returns how many ticks of history have been recorded.
func (m *Manager) HistoryLen() int { return len(m.history) }

// TickCount returns how many Update passes have run since the last reset.
func (m *Manager) TickCount() int { return m.tickCount }

// CreateClone spawns a clone whose path is the history suffix starting
// stepsBack ticks ago. On any failure no partial clone exists and no state
// changes.
func (m *Manager) CreateClone(stepsBack int) (*Clone, error) {
	if len(m.clones) >= MaxClones {
		return nil, ErrCapacityExceeded
	}
	if stepsBack <= 0 || stepsBack > len(m.history) {
		return nil, ErrInvalidLookback
	}
	m.spawned++
	c := newClone(fmt.Sprintf("CLONE_%d", m.spawned), m.history[len(m.history)-stepsBack:])
	m.clones = append(m.clones, c)
	return c, nil
}

// CloneMove pairs a clone with the side effects of its step this tick.
type CloneMove struct {
	ID      string
	Outcome world.MoveOutcome
}

// UpdateReport summarizes one clone pass for the caller to translate into
// events.
type UpdateReport struct {
	AnyActive bool
	Moves     []CloneMove
	Expired   []string
}

// Update advances every clone one step in creation order, applying the
// tile-entry protocol at each replayed position, then removes finished
// clones in descending index order so pending removals never shift.
func (m *Manager) Update(w *world.World) UpdateReport {
	m.tickCount++

	var report UpdateReport
	var finished []int
	for i, c := range m.clones {
		out, ok := c.advance(w, m.mode)
		if !ok {
			finished = append(finished, i)
			report.Expired = append(report.Expired, c.id)
			continue
		}
		report.Moves = append(report.Moves, CloneMove{ID: c.id, Outcome: out})
	}
	for i := len(finished) - 1; i >= 0; i-- {
		idx := finished[i]
		m.clones = append(m.clones[:idx], m.clones[idx+1:]...)
	}

	report.AnyActive = len(m.clones) > 0
	return report
}

// Positions returns the current positions of all active clones in creation
// order, for the renderer and HUD. Clone positions never take part in
// exit-reached checks; reaching the exit is defined only for the live player.
func (m *Manager) Positions() []grid.Position {
	out := make([]grid.Position, 0, len(m.clones))
	for _, c := range m.clones {
		out = append(out, c.pos)
	}
	return out
}

// ActiveCloneCount returns the number of clones still replaying.
func (m *Manager) ActiveCloneCount() int { return len(m.clones) }

// Spawned returns how many clones have ever been created since the last
// reset, including expired ones.
func (m *Manager) Spawned() int { return m.spawned }

// Reset drops all clones, the recorded history and the tick counter.
// Called on level (re)start.
func (m *Manager) Reset() {
	m.clones = nil
	m.history = nil
	m.spawned = 0
	m.tickCount = 0
}
