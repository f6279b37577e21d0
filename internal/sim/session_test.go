package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
	"github.com/dmaslov/temporal-maze/internal/events"
	"github.com/dmaslov/temporal-maze/internal/platform/logger"
	"github.com/dmaslov/temporal-maze/internal/world"
)

func descFromRows(t *testing.T, rows []string, start grid.Position) *level.Descriptor {
	t.Helper()

	tiles := make([][]grid.TileType, len(rows))
	for y, row := range rows {
		tiles[y] = make([]grid.TileType, len(row))
		for x, r := range row {
			tt, ok := grid.ParseTile(r)
			require.True(t, ok, "bad tile %q", r)
			tiles[y][x] = tt
		}
	}
	return &level.Descriptor{
		Name:        "session-test",
		Width:       len(rows[0]),
		Height:      len(rows),
		Tiles:       tiles,
		PlayerStart: start,
		SwitchDoors: map[grid.Position]grid.Position{},
	}
}

func sessionConfig() Config {
	return Config{
		CloneEffects:  world.EffectsSwitchesOnly,
		GuardRadius:   5,
		GuardCooldown: 3,
	}
}

func startSession(t *testing.T, desc *level.Descriptor) (*Session, *events.EventLog) {
	t.Helper()
	return startSessionWith(t, desc, sessionConfig())
}

func startSessionWith(t *testing.T, desc *level.Descriptor, cfg Config) (*Session, *events.EventLog) {
	t.Helper()
	require.NoError(t, desc.Validate())
	log := events.NewEventLog(nil)
	return NewSession(desc, cfg, log, logger.NewLogger()), log
}

func TestStepRecordsReachedPosition(t *testing.T) {
	desc := descFromRows(t, []string{
		".....",
		".....",
		".....",
	}, grid.Position{X: 1, Y: 1})
	s, _ := startSession(t, desc)

	s.Step(grid.Right)
	require.Equal(t, grid.Position{X: 2, Y: 1}, s.PlayerPosition())
	require.Equal(t, 1, s.HistoryLen())

	// A lookback of one replays the tile the player just reached.
	require.NoError(t, s.CreateClone(1))
	clones := s.ClonePositions()
	require.Len(t, clones, 1)
	assert.Equal(t, grid.Position{X: 2, Y: 1}, clones[0])
}

func TestCloneHoldsSwitchForPlayer(t *testing.T) {
	desc := descFromRows(t, []string{
		".....",
		"..S..",
		".....",
		"...D.",
		".....",
	}, grid.Position{X: 2, Y: 0})
	sw := grid.Position{X: 2, Y: 1}
	door := grid.Position{X: 3, Y: 3}
	desc.SwitchDoors[sw] = door
	s, _ := startSession(t, desc)

	s.Step(grid.Down)
	require.Equal(t, sw, s.PlayerPosition())
	require.True(t, s.World().DoorOpen(door.X, door.Y))

	require.NoError(t, s.CreateClone(1))

	// Player leaves the switch; the clone re-presses it the same tick.
	s.Step(grid.Up)
	assert.Equal(t, grid.Position{X: 2, Y: 0}, s.PlayerPosition())
	assert.True(t, s.World().SwitchPressed(sw.X, sw.Y))
	assert.True(t, s.World().DoorOpen(door.X, door.Y))
}

func teleporterDesc(t *testing.T) *level.Descriptor {
	t.Helper()
	desc := descFromRows(t, []string{
		"A..B.",
		".....",
	}, grid.Position{X: 2, Y: 0})
	desc.TeleporterPairs = [][2]grid.Position{
		{{X: 0, Y: 0}, {X: 3, Y: 0}},
	}
	return desc
}

func TestIdleTicksKeepTeleportedPlayerInPlace(t *testing.T) {
	s, log := startSession(t, teleporterDesc(t))

	// Stepping onto a pad resolves the hop within the same tick.
	s.Step(grid.Right)
	require.Equal(t, grid.Position{X: 0, Y: 0}, s.PlayerPosition())

	// Waiting on the destination pad is not a new entry; the player must
	// not bounce back through the pair.
	for i := 0; i < 3; i++ {
		s.Step(grid.Stay)
		require.Equal(t, grid.Position{X: 0, Y: 0}, s.PlayerPosition(), "idle tick %d", i)
	}
	assert.Len(t, log.GetByType(events.EventTypeTeleported), 1)
}

func TestFullEffectsCloneStaysOnRecordedPath(t *testing.T) {
	cfg := sessionConfig()
	cfg.CloneEffects = world.EffectsFull
	s, _ := startSessionWith(t, teleporterDesc(t), cfg)

	// The history records where the player ended the tick, after the hop.
	s.Step(grid.Right)
	require.Equal(t, grid.Position{X: 0, Y: 0}, s.PlayerPosition())

	require.NoError(t, s.CreateClone(1))
	clones := s.ClonePositions()
	require.Len(t, clones, 1)
	assert.Equal(t, grid.Position{X: 0, Y: 0}, clones[0])

	// Replaying the recorded pad must not re-evaluate the pairing.
	s.Step(grid.Stay)
	clones = s.ClonePositions()
	require.Len(t, clones, 1)
	assert.Equal(t, grid.Position{X: 0, Y: 0}, clones[0])
}

func TestEnteringTerminalEmitsAnnotation(t *testing.T) {
	desc := descFromRows(t, []string{
		".T...",
		".....",
	}, grid.Position{X: 0, Y: 0})
	desc.Annotations = map[grid.Position]string{
		{X: 1, Y: 0}: "the lab log, entry 7",
	}
	s, log := startSession(t, desc)

	s.Step(grid.Right)
	reads := log.GetByType(events.EventTypeAnnotationRead)
	require.Len(t, reads, 1)
	payload, ok := reads[0].Payload.(AnnotationPayload)
	require.True(t, ok)
	assert.Equal(t, "the lab log, entry 7", payload.Text)
	assert.Equal(t, grid.Position{X: 1, Y: 0}, payload.Position)

	// Standing on the terminal does not repeat the message; re-entry does.
	s.Step(grid.Stay)
	assert.Len(t, log.GetByType(events.EventTypeAnnotationRead), 1)
	s.Step(grid.Left)
	s.Step(grid.Right)
	assert.Len(t, log.GetByType(events.EventTypeAnnotationRead), 2)
}

func TestCaptureEndsSession(t *testing.T) {
	desc := descFromRows(t, []string{
		".....",
		".....",
		".....",
		".....",
		".....",
	}, grid.Position{X: 2, Y: 2})
	desc.Guards = []level.GuardSpec{{
		Start:       grid.Position{X: 2, Y: 3},
		PatrolRoute: []grid.Position{{X: 2, Y: 3}},
	}}
	s, log := startSession(t, desc)

	s.Step(grid.Stay)
	require.Equal(t, OutcomeCaptured, s.Outcome())
	assert.Len(t, log.GetByType(events.EventTypeCapture), 1)

	// Terminal sessions ignore further input.
	tick := s.Tick()
	s.Step(grid.Up)
	assert.Equal(t, tick, s.Tick())
	assert.Equal(t, OutcomeCaptured, s.Outcome())
}

func TestExitCompletesSession(t *testing.T) {
	desc := descFromRows(t, []string{
		"...E.",
		".....",
	}, grid.Position{X: 2, Y: 0})
	s, log := startSession(t, desc)

	s.Step(grid.Right)
	assert.Equal(t, OutcomeCompleted, s.Outcome())
	assert.Len(t, log.GetByType(events.EventTypeExitReached), 1)
}

func TestCloneRequestFailuresAreEvents(t *testing.T) {
	desc := descFromRows(t, []string{
		".....",
		".....",
	}, grid.Position{X: 0, Y: 0})
	s, log := startSession(t, desc)

	require.Error(t, s.CreateClone(1), "no history yet")
	require.Error(t, s.CreateClone(0))

	for i := 0; i < 5; i++ {
		s.Step(grid.Right)
	}
	require.NoError(t, s.CreateClone(2))
	require.NoError(t, s.CreateClone(2))
	require.NoError(t, s.CreateClone(2))
	require.Error(t, s.CreateClone(2), "fourth concurrent clone exceeds capacity")

	failures := log.GetByType(events.EventTypeCloneCreationFailed)
	require.Len(t, failures, 3)
	assert.Len(t, log.GetByType(events.EventTypeCloneCreated), 3)
}

func TestResetRestoresInitialState(t *testing.T) {
	desc := descFromRows(t, []string{
		".S...",
		".....",
	}, grid.Position{X: 0, Y: 0})
	sw := grid.Position{X: 1, Y: 0}
	door := grid.Position{X: 4, Y: 1}
	desc.Tiles[1][4] = grid.TileDoor
	desc.SwitchDoors[sw] = door
	s, log := startSession(t, desc)

	s.Step(grid.Right)
	require.True(t, s.World().SwitchPressed(sw.X, sw.Y))
	require.NoError(t, s.CreateClone(1))

	s.Reset()

	assert.Equal(t, 0, s.Tick())
	assert.Equal(t, OutcomeRunning, s.Outcome())
	assert.Equal(t, desc.PlayerStart, s.PlayerPosition())
	assert.Equal(t, 0, s.ActiveCloneCount())
	assert.Equal(t, 0, s.HistoryLen())
	assert.False(t, s.World().SwitchPressed(sw.X, sw.Y))
	assert.Len(t, log.GetByType(events.EventTypeSessionReset), 1)
}

func TestDeterministicReplay(t *testing.T) {
	build := func() *Session {
		desc := descFromRows(t, []string{
			"........",
			"..S.....",
			"........",
			".....D..",
			"........",
			"........",
		}, grid.Position{X: 1, Y: 1})
		desc.SwitchDoors[grid.Position{X: 2, Y: 1}] = grid.Position{X: 5, Y: 3}
		desc.Guards = []level.GuardSpec{{
			Start:       grid.Position{X: 6, Y: 5},
			PatrolRoute: []grid.Position{{X: 6, Y: 5}, {X: 5, Y: 5}, {X: 6, Y: 5}, {X: 7, Y: 5}},
		}}
		s, _ := startSession(t, desc)
		return s
	}

	script := []grid.Direction{
		grid.Right, grid.Down, grid.Right, grid.Stay, grid.Down,
		grid.Left, grid.Up, grid.Right, grid.Down, grid.Stay,
	}
	cloneAt := map[int]int{3: 2, 6: 1}

	run := func(s *Session) []string {
		var snaps []string
		for i, move := range script {
			if steps, ok := cloneAt[i]; ok {
				_ = s.CreateClone(steps)
			}
			s.Step(move)
			b, err := json.Marshal(s.Snapshot())
			require.NoError(t, err)
			snaps = append(snaps, string(b))
		}
		return snaps
	}

	first := run(build())
	second := run(build())
	assert.Equal(t, first, second, "identical inputs must yield identical snapshots")
}
