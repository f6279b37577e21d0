package timetravel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
	"github.com/dmaslov/temporal-maze/internal/world"
)

func floorRoom(t *testing.T, size int) *world.World {
	t.Helper()

	tiles := make([][]grid.TileType, size)
	for y := range tiles {
		tiles[y] = make([]grid.TileType, size)
		for x := range tiles[y] {
			tiles[y][x] = grid.TileFloor
		}
	}
	desc := &level.Descriptor{
		Name:        "room",
		Width:       size,
		Height:      size,
		Tiles:       tiles,
		PlayerStart: grid.Position{X: 0, Y: 0},
		SwitchDoors: map[grid.Position]grid.Position{},
	}
	require.NoError(t, desc.Validate())
	return world.New(desc)
}

func recordWalk(m *Manager, positions ...grid.Position) {
	for _, p := range positions {
		m.Record(p)
	}
}

func TestCreateCloneLookbackBounds(t *testing.T) {
	m := NewManager(world.EffectsSwitchesOnly)
	recordWalk(m, grid.Position{X: 1, Y: 1}, grid.Position{X: 2, Y: 1})

	_, err := m.CreateClone(0)
	assert.ErrorIs(t, err, ErrInvalidLookback)

	_, err = m.CreateClone(3)
	assert.ErrorIs(t, err, ErrInvalidLookback)

	assert.Equal(t, 0, m.ActiveCloneCount(), "failed creation must not leave partial state")

	c, err := m.CreateClone(2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.PathLen())
	assert.Equal(t, grid.Position{X: 1, Y: 1}, c.Position())
}

func TestCreateCloneCapacity(t *testing.T) {
	m := NewManager(world.EffectsSwitchesOnly)
	recordWalk(m, grid.Position{X: 1, Y: 1}, grid.Position{X: 2, Y: 1}, grid.Position{X: 3, Y: 1})

	for i := 0; i < MaxClones; i++ {
		_, err := m.CreateClone(1)
		require.NoError(t, err)
	}

	_, err := m.CreateClone(1)
	assert.ErrorIs(t, err, ErrCapacityExceeded, "the 4th concurrent clone must be rejected")
	assert.Equal(t, MaxClones, m.ActiveCloneCount())
}

func TestClonePathImmutableUnderHistoryGrowth(t *testing.T) {
	m := NewManager(world.EffectsSwitchesOnly)
	recordWalk(m, grid.Position{X: 1, Y: 1}, grid.Position{X: 2, Y: 1})

	c, err := m.CreateClone(2)
	require.NoError(t, err)

	// Keep growing history well past the original backing array's capacity.
	for i := 0; i < 100; i++ {
		m.Record(grid.Position{X: 9, Y: 9})
	}

	w := floorRoom(t, 12)
	m.Update(w)
	assert.Equal(t, grid.Position{X: 1, Y: 1}, c.Position())
	m.Update(w)
	assert.Equal(t, grid.Position{X: 2, Y: 1}, c.Position())
}

func TestUpdateRemovesFinishedClonesSamePass(t *testing.T) {
	m := NewManager(world.EffectsSwitchesOnly)
	recordWalk(m, grid.Position{X: 1, Y: 1})

	c, err := m.CreateClone(1)
	require.NoError(t, err)

	w := floorRoom(t, 4)
	report := m.Update(w)
	assert.True(t, report.AnyActive)
	assert.Len(t, report.Moves, 1)

	report = m.Update(w)
	assert.False(t, report.AnyActive)
	assert.Equal(t, []string{c.ID()}, report.Expired)
	assert.Empty(t, m.Positions(), "a finished clone must be gone within the same update")
	assert.Equal(t, 0, m.ActiveCloneCount())
}

func TestUpdateAdvancesInCreationOrder(t *testing.T) {
	m := NewManager(world.EffectsSwitchesOnly)
	recordWalk(m,
		grid.Position{X: 1, Y: 1},
		grid.Position{X: 2, Y: 1},
		grid.Position{X: 3, Y: 1},
	)

	first, err := m.CreateClone(3)
	require.NoError(t, err)
	second, err := m.CreateClone(1)
	require.NoError(t, err)

	w := floorRoom(t, 6)
	report := m.Update(w)
	require.Len(t, report.Moves, 2)
	assert.Equal(t, first.ID(), report.Moves[0].ID)
	assert.Equal(t, second.ID(), report.Moves[1].ID)
	assert.Equal(t, []grid.Position{{X: 1, Y: 1}, {X: 3, Y: 1}}, m.Positions())
}

func TestResetClearsEverything(t *testing.T) {
	m := NewManager(world.EffectsSwitchesOnly)
	recordWalk(m, grid.Position{X: 1, Y: 1}, grid.Position{X: 2, Y: 1})

	_, err := m.CreateClone(1)
	require.NoError(t, err)

	m.Reset()
	assert.Equal(t, 0, m.ActiveCloneCount())
	assert.Equal(t, 0, m.HistoryLen())
	assert.Equal(t, 0, m.TickCount())
	assert.Equal(t, 0, m.Spawned())

	_, err = m.CreateClone(1)
	assert.ErrorIs(t, err, ErrInvalidLookback, "history must be empty after reset")
}
