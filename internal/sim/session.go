// Package sim wires the world, the time-travel engine and the guards into
// one synchronous, deterministic, tick-driven session.
//
// ARCHITECTURAL RULE: the Session never blocks and never paces itself.
// Pacing and input collection belong to the Runner; rendering belongs to
// whoever consumes snapshots.
package sim

import (
	"time"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
	"github.com/dmaslov/temporal-maze/internal/events"
	"github.com/dmaslov/temporal-maze/internal/platform/logger"
	"github.com/dmaslov/temporal-maze/internal/sim/guard"
	"github.com/dmaslov/temporal-maze/internal/sim/timetravel"
	"github.com/dmaslov/temporal-maze/internal/world"
)

// Outcome is the session's terminal state, if any.
type Outcome string

const (
	OutcomeRunning   Outcome = "RUNNING"
	OutcomeCaptured  Outcome = "CAPTURED"
	OutcomeCompleted Outcome = "COMPLETED"
)

// Config carries the tunables the session core accepts from outside.
type Config struct {
	// CloneEffects decides whether replay clones run the full tile-entry
	// protocol or only re-press switches.
	CloneEffects world.EffectsMode
	// GuardRadius and GuardCooldown apply to every guard in the level.
	GuardRadius   int
	GuardCooldown int
}

// Session is one play-through of one level. All mutation happens inside
// Step, CreateClone and Reset, called from a single goroutine.
type Session struct {
	desc   *level.Descriptor
	world  *world.World
	tm     *timetravel.Manager
	guards []*guard.Guard

	playerPos grid.Position
	tick      int
	outcome   Outcome

	cfg      Config
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewSession builds a session from a validated level descriptor.
func NewSession(desc *level.Descriptor, cfg Config, eventLog *events.EventLog, log *logger.Logger) *Session {
	s := &Session{
		desc:     desc,
		cfg:      cfg,
		eventLog: eventLog,
		logger:   log,
	}
	s.initFromDescriptor()
	s.emit(events.EventTypeLevelLoaded, events.ActorSystem, LevelLoadedPayload{Level: desc.Name})
	return s
}

func (s *Session) initFromDescriptor() {
	s.world = world.New(s.desc)
	s.tm = timetravel.NewManager(s.cfg.CloneEffects)
	s.guards = make([]*guard.Guard, 0, len(s.desc.Guards))
	for _, spec := range s.desc.Guards {
		s.guards = append(s.guards, guard.New(spec.Start, spec.PatrolRoute, s.cfg.GuardRadius, s.cfg.GuardCooldown))
	}
	s.playerPos = s.world.PlayerStart()
	s.tick = 0
	s.outcome = OutcomeRunning
}

// World exposes the world's query operations for drawing and debugging.
func (s *Session) World() *world.World { return s.world }

// Outcome returns the session's current terminal state.
func (s *Session) Outcome() Outcome { return s.outcome }

// Tick returns the number of completed simulation steps.
func (s *Session) Tick() int { return s.tick }

// PlayerPosition returns where the player currently stands.
func (s *Session) PlayerPosition() grid.Position { return s.playerPos }

// ClonePositions returns the active clones' positions in creation order.
func (s *Session) ClonePositions() []grid.Position { return s.tm.Positions() }

// ActiveCloneCount returns how many clones are still replaying.
func (s *Session) ActiveCloneCount() int { return s.tm.ActiveCloneCount() }

// ClonesSpawned returns how many clones this run has created in total.
func (s *Session) ClonesSpawned() int { return s.tm.Spawned() }

// HistoryLen returns how many ticks of player history are recorded.
func (s *Session) HistoryLen() int { return s.tm.HistoryLen() }

// Step advances the simulation exactly one tick in the load-bearing fixed
// order: (1) resolve the player's move under the full tile-entry protocol
// and record the resulting position, (2) resolve guard moves and mode transitions, (3) advance
// clones, (4) resolve the capture check once for all guards, (5) resolve the
// exit-reached check for the player only. Once the session has a terminal
// outcome, Step is a no-op.
func (s *Session) Step(move grid.Direction) {
	if s.outcome != OutcomeRunning {
		return
	}
	s.tick++

	// Phase 1: player. The resulting position is what history records, so a
	// clone with a lookback of one replays the tile the player just reached.
	out := s.world.Step(s.playerPos, move, world.EffectsFull)
	if out.Moved {
		s.playerPos = out.To
		// Terminals show their message on every entry, never while idling.
		if msg, ok := s.world.Annotation(s.playerPos.X, s.playerPos.Y); ok {
			s.emit(events.EventTypeAnnotationRead, events.ActorPlayer, AnnotationPayload{
				Position: s.playerPos,
				Text:     msg,
			})
		}
	}
	s.tm.Record(s.playerPos)
	s.emitMoveEffects(events.ActorPlayer, out)

	// Phase 2: guards.
	for _, g := range s.guards {
		g.Update(s.world, s.playerPos)
	}

	// Phase 3: clones.
	report := s.tm.Update(s.world)
	for _, cm := range report.Moves {
		s.emitMoveEffects(cm.ID, cm.Outcome)
	}
	for _, id := range report.Expired {
		s.emit(events.EventTypeCloneExpired, id, nil)
	}

	// Phase 4: capture. One check per tick, after all movement, so two
	// guards on the same tile still signal a single capture.
	for _, g := range s.guards {
		if g.Position() == s.playerPos {
			s.outcome = OutcomeCaptured
			s.emit(events.EventTypeCapture, events.ActorSystem, s.playerPos)
			break
		}
	}

	// Phase 5: exit. Defined for the live player only, never a clone.
	if s.outcome == OutcomeRunning && s.world.IsExit(s.playerPos.X, s.playerPos.Y) {
		s.outcome = OutcomeCompleted
		s.emit(events.EventTypeExitReached, events.ActorPlayer, s.playerPos)
	}

	s.emit(events.EventTypeTick, events.ActorSystem, TickPayload{
		Tick:       s.tick,
		Player:     s.playerPos,
		CloneCount: s.tm.ActiveCloneCount(),
		Outcome:    s.outcome,
	})
}

// TickPayload is the data attached to each TICK event.
type TickPayload struct {
	Tick       int           `json:"tick"`
	Player     grid.Position `json:"player"`
	CloneCount int           `json:"clone_count"`
	Outcome    Outcome       `json:"outcome"`
}

// LevelLoadedPayload is the data attached to each LEVEL_LOADED event.
type LevelLoadedPayload struct {
	Level string `json:"level"`
}

// AnnotationPayload is the terminal message shown when the player enters an
// annotation tile.
type AnnotationPayload struct {
	Position grid.Position `json:"position"`
	Text     string        `json:"text"`
}

// CloneFailurePayload names why a clone request was rejected.
type CloneFailurePayload struct {
	Reason    string `json:"reason"`
	StepsBack int    `json:"steps_back"`
}

// CreateClone spawns a replay clone stepsBack ticks into the past. Failures
// are reported as events and returned; no state changes on failure.
func (s *Session) CreateClone(stepsBack int) error {
	c, err := s.tm.CreateClone(stepsBack)
	if err != nil {
		reason := "INVALID_LOOKBACK"
		if err == timetravel.ErrCapacityExceeded {
			reason = "CAPACITY_EXCEEDED"
		}
		s.emit(events.EventTypeCloneCreationFailed, events.ActorPlayer, CloneFailurePayload{
			Reason:    reason,
			StepsBack: stepsBack,
		})
		return err
	}
	s.logger.Event(string(events.EventTypeCloneCreated), c.ID(), "replaying last positions")
	s.emit(events.EventTypeCloneCreated, c.ID(), c.Position())
	return nil
}

// Reset restores the session to the level-authored initial state: overlays,
// history, clones, guards and the player all return to their defaults.
func (s *Session) Reset() {
	s.initFromDescriptor()
	s.emit(events.EventTypeSessionReset, events.ActorSystem, nil)
}

func (s *Session) emitMoveEffects(actor string, out world.MoveOutcome) {
	if out.ReleasedSwitch != nil {
		s.emit(events.EventTypeSwitchReleased, actor, *out.ReleasedSwitch)
	}
	if out.PressedSwitch != nil {
		s.emit(events.EventTypeSwitchPressed, actor, *out.PressedSwitch)
	}
	if out.CollectedKey != nil {
		s.emit(events.EventTypeKeyCollected, actor, *out.CollectedKey)
	}
	if out.UnlockedDoor != nil {
		s.emit(events.EventTypeDoorUnlocked, actor, *out.UnlockedDoor)
	}
	if out.TeleportedFrom != nil {
		s.emit(events.EventTypeTeleported, actor, *out.TeleportedFrom)
	}
}

func (s *Session) emit(t events.EventType, actor string, payload interface{}) {
	if s.eventLog == nil {
		return
	}
	s.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      t,
		ActorID:   actor,
		Tick:      s.tick,
		Payload:   payload,
	})
}

// GuardState is the renderer-facing view of one guard.
type GuardState struct {
	Position grid.Position `json:"position"`
	Mode     string        `json:"mode"`
}

// Snapshot is the full renderer/HUD view of a session at one tick.
type Snapshot struct {
	Tick            int             `json:"tick"`
	Outcome         Outcome         `json:"outcome"`
	Player          grid.Position   `json:"player"`
	Clones          []grid.Position `json:"clones"`
	ActiveClones    int             `json:"active_clones"`
	ClonesSpawned   int             `json:"clones_spawned"`
	KeysCollected   int             `json:"keys_collected"`
	Guards          []GuardState    `json:"guards"`
	PressedSwitches []grid.Position `json:"pressed_switches"`
	OpenDoors       []grid.Position `json:"open_doors"`
}

// Snapshot captures the session state for broadcasting. Overlay listings are
// built in row-major scan order so identical states always serialize
// identically.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:          s.tick,
		Outcome:       s.outcome,
		Player:        s.playerPos,
		Clones:        s.tm.Positions(),
		ActiveClones:  s.tm.ActiveCloneCount(),
		ClonesSpawned: s.tm.Spawned(),
		KeysCollected: s.world.KeysCollected(),
	}
	for _, g := range s.guards {
		snap.Guards = append(snap.Guards, GuardState{Position: g.Position(), Mode: g.Mode().String()})
	}

	width, height := s.world.Dimensions()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if s.world.SwitchPressed(x, y) {
				snap.PressedSwitches = append(snap.PressedSwitches, grid.Position{X: x, Y: y})
			}
			if s.world.DoorOpen(x, y) {
				snap.OpenDoors = append(snap.OpenDoors, grid.Position{X: x, Y: y})
			}
		}
	}
	return snap
}
