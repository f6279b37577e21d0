// Package test - scenario.go
// Acceptance scenarios for the simulation core, run end to end against real
// sessions. The scenario runner binary executes these outside `go test` so
// they double as a smoke check on a built server.
package test

import (
	"encoding/json"
	"fmt"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
	"github.com/dmaslov/temporal-maze/internal/events"
	"github.com/dmaslov/temporal-maze/internal/platform/logger"
	"github.com/dmaslov/temporal-maze/internal/sim"
	"github.com/dmaslov/temporal-maze/internal/world"
)

// Result captures the outcome of each scenario.
type Result struct {
	ScenarioName string
	Passed       bool
	Reason       string
}

// Suite runs the acceptance scenarios and collects results.
type Suite struct {
	logger  *logger.Logger
	results []Result
}

// NewSuite creates the scenario suite.
func NewSuite() *Suite {
	return &Suite{
		logger:  logger.NewLogger(),
		results: make([]Result, 0),
	}
}

// Results returns the collected outcomes.
func (s *Suite) Results() []Result { return s.results }

// Run executes every scenario.
func (s *Suite) Run() {
	s.record("SwitchHold", s.runSwitchHold())
	s.record("LockedDoorKey", s.runLockedDoorKey())
	s.record("GuardPatrolLoop", s.runGuardPatrolLoop())
	s.record("GuardAlert", s.runGuardAlert())
	s.record("Determinism", s.runDeterminism())
}

func (s *Suite) record(name string, reason string) {
	s.results = append(s.results, Result{
		ScenarioName: name,
		Passed:       reason == "",
		Reason:       reason,
	})
}

// openRoom builds a wall-less room of floor tiles.
func openRoom(name string, width, height int, start grid.Position) *level.Descriptor {
	tiles := make([][]grid.TileType, height)
	for y := range tiles {
		tiles[y] = make([]grid.TileType, width)
		for x := range tiles[y] {
			tiles[y][x] = grid.TileFloor
		}
	}
	return &level.Descriptor{
		Name:        name,
		Width:       width,
		Height:      height,
		Tiles:       tiles,
		PlayerStart: start,
		SwitchDoors: map[grid.Position]grid.Position{},
		Annotations: map[grid.Position]string{},
	}
}

func newSession(desc *level.Descriptor, log *logger.Logger) (*sim.Session, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	cfg := sim.Config{CloneEffects: world.EffectsSwitchesOnly}
	return sim.NewSession(desc, cfg, events.NewEventLog(nil), log), nil
}

// runSwitchHold: a clone created one step back re-presses the switch the
// player just left, so the bound door stays open.
func (s *Suite) runSwitchHold() string {
	desc := openRoom("switch-hold", 5, 5, grid.Position{X: 1, Y: 0})
	desc.Tiles[1][1] = grid.TileSwitch
	desc.Tiles[3][3] = grid.TileDoor
	desc.SwitchDoors[grid.Position{X: 1, Y: 1}] = grid.Position{X: 3, Y: 3}

	sess, err := newSession(desc, s.logger)
	if err != nil {
		return "level invalid: " + err.Error()
	}

	sess.Step(grid.Down)
	if !sess.World().DoorOpen(3, 3) {
		return "door did not open when player pressed the switch"
	}
	if err := sess.CreateClone(1); err != nil {
		return "clone creation failed: " + err.Error()
	}

	sess.Step(grid.Up)
	clones := sess.ClonePositions()
	if len(clones) != 1 || clones[0] != (grid.Position{X: 1, Y: 1}) {
		return fmt.Sprintf("clone should occupy the switch, got %v", clones)
	}
	if !sess.World().DoorOpen(3, 3) {
		return "door closed even though the clone holds the switch"
	}
	return ""
}

// runLockedDoorKey: unlocking requires the key and is irreversible.
func (s *Suite) runLockedDoorKey() string {
	desc := openRoom("locked-door", 5, 5, grid.Position{X: 2, Y: 2})
	desc.Tiles[0][4] = grid.TileLockedDoor
	desc.Tiles[4][0] = grid.TileKey

	if err := desc.Validate(); err != nil {
		return "level invalid: " + err.Error()
	}
	w := world.New(desc)

	if w.UnlockDoor(4, 0) {
		return "locked door opened without the key"
	}
	if !w.CollectKey(0, 4) {
		return "key collection failed"
	}
	if !w.UnlockDoor(4, 0) {
		return "locked door stayed shut with every key collected"
	}
	if !w.DoorUnlocked(4, 0) {
		return "unlock did not stick"
	}
	return ""
}

// runGuardPatrolLoop: a 3-waypoint loop returns to waypoint 0 after exactly
// 3 ticks with the player far away.
func (s *Suite) runGuardPatrolLoop() string {
	desc := openRoom("patrol-loop", 9, 9, grid.Position{X: 8, Y: 8})
	w0 := grid.Position{X: 1, Y: 1}
	desc.Guards = []level.GuardSpec{{
		Start:       w0,
		PatrolRoute: []grid.Position{w0, {X: 2, Y: 1}, {X: 3, Y: 1}},
	}}

	sess, err := newSession(desc, s.logger)
	if err != nil {
		return "level invalid: " + err.Error()
	}

	for i := 0; i < 2; i++ {
		sess.Step(grid.Stay)
		if g := sess.Snapshot().Guards[0]; g.Position == w0 {
			return fmt.Sprintf("guard returned to waypoint 0 early, at tick %d", i+1)
		}
	}
	sess.Step(grid.Stay)
	if g := sess.Snapshot().Guards[0]; g.Position != w0 {
		return fmt.Sprintf("guard not back at waypoint 0 after 3 ticks, at %v", g.Position)
	}
	return ""
}

// runGuardAlert: a player inside the detection radius with clear line of
// sight flips the guard to ALERTED within one tick.
func (s *Suite) runGuardAlert() string {
	desc := openRoom("guard-alert", 9, 9, grid.Position{X: 1, Y: 4})
	desc.Guards = []level.GuardSpec{{
		Start:       grid.Position{X: 1, Y: 1},
		PatrolRoute: []grid.Position{{X: 1, Y: 1}},
	}}

	sess, err := newSession(desc, s.logger)
	if err != nil {
		return "level invalid: " + err.Error()
	}

	sess.Step(grid.Stay)
	g := sess.Snapshot().Guards[0]
	if g.Mode != "ALERTED" {
		return "guard did not alert with the player in line of sight"
	}
	if g.Position == (grid.Position{X: 1, Y: 1}) {
		return "alerted guard did not start closing distance"
	}
	return ""
}

// runDeterminism: two runs fed the identical move script produce identical
// snapshots at every tick.
func (s *Suite) runDeterminism() string {
	script := []grid.Direction{
		grid.Down, grid.Down, grid.Right, grid.Right, grid.Up,
		grid.Left, grid.Down, grid.Right, grid.Stay, grid.Up,
	}
	cloneAt := map[int]int{3: 2, 6: 1} // tick -> stepsBack

	run := func() ([]string, error) {
		desc := openRoom("determinism", 6, 6, grid.Position{X: 1, Y: 1})
		desc.Tiles[3][2] = grid.TileSwitch
		desc.Tiles[4][4] = grid.TileDoor
		desc.SwitchDoors[grid.Position{X: 2, Y: 3}] = grid.Position{X: 4, Y: 4}
		desc.Guards = []level.GuardSpec{{
			Start:       grid.Position{X: 5, Y: 5},
			PatrolRoute: []grid.Position{{X: 5, Y: 5}, {X: 4, Y: 5}},
		}}

		sess, err := newSession(desc, s.logger)
		if err != nil {
			return nil, err
		}

		var snaps []string
		for i, move := range script {
			if back, ok := cloneAt[i]; ok {
				_ = sess.CreateClone(back)
			}
			sess.Step(move)
			data, err := json.Marshal(sess.Snapshot())
			if err != nil {
				return nil, err
			}
			snaps = append(snaps, string(data))
		}
		return snaps, nil
	}

	first, err := run()
	if err != nil {
		return "first run failed: " + err.Error()
	}
	second, err := run()
	if err != nil {
		return "second run failed: " + err.Error()
	}
	for i := range first {
		if first[i] != second[i] {
			return fmt.Sprintf("snapshots diverged at tick %d", i+1)
		}
	}
	return ""
}
