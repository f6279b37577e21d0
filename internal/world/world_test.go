package world

import (
	"testing"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
)

// testLevel builds a small room exercising every overlay:
//
//	#####
//	#.SD#
//	#AKL#
//	#B.E#
//	#####
func testLevel(t *testing.T) *level.Descriptor {
	t.Helper()

	rows := []string{
		"#####",
		"#.SD#",
		"#AKL#",
		"#B.E#",
		"#####",
	}
	tiles := make([][]grid.TileType, len(rows))
	for y, row := range rows {
		tiles[y] = make([]grid.TileType, len(row))
		for x, r := range row {
			tt, ok := grid.ParseTile(r)
			if !ok {
				t.Fatalf("bad tile %q in test level", r)
			}
			tiles[y][x] = tt
		}
	}

	desc := &level.Descriptor{
		Name:        "overlays",
		Width:       5,
		Height:      5,
		Tiles:       tiles,
		PlayerStart: grid.Position{X: 1, Y: 1},
		SwitchDoors: map[grid.Position]grid.Position{
			{X: 2, Y: 1}: {X: 3, Y: 1},
		},
		TeleporterPairs: [][2]grid.Position{
			{{X: 1, Y: 2}, {X: 1, Y: 3}},
		},
		Annotations: map[grid.Position]string{},
	}
	if err := desc.Validate(); err != nil {
		t.Fatalf("test level failed validation: %v", err)
	}
	return desc
}

func TestCanMoveTo(t *testing.T) {
	w := New(testLevel(t))

	if w.CanMoveTo(0, 0) {
		t.Error("expected wall to block movement")
	}
	if w.CanMoveTo(-1, 2) {
		t.Error("expected out-of-bounds to block movement")
	}
	if !w.CanMoveTo(1, 1) {
		t.Error("expected floor to be walkable")
	}
	if w.CanMoveTo(3, 1) {
		t.Error("expected closed door to block movement")
	}
	if w.CanMoveTo(3, 2) {
		t.Error("expected locked door to block movement")
	}

	w.PressSwitch(2, 1)
	if !w.CanMoveTo(3, 1) {
		t.Error("expected open door to be walkable")
	}
}

func TestSwitchIdempotence(t *testing.T) {
	w := New(testLevel(t))

	if !w.PressSwitch(2, 1) {
		t.Fatal("press on a switch tile should succeed")
	}
	if !w.PressSwitch(2, 1) {
		t.Error("second press should be a no-op returning true")
	}
	if !w.DoorOpen(3, 1) {
		t.Error("door should be open after double press")
	}

	if !w.ReleaseSwitch(2, 1) {
		t.Fatal("release on a switch tile should succeed")
	}
	if !w.ReleaseSwitch(2, 1) {
		t.Error("second release should be a no-op returning true")
	}
	if w.DoorOpen(3, 1) {
		t.Error("door should be closed after release")
	}

	if w.PressSwitch(1, 1) {
		t.Error("press on a non-switch tile should return false")
	}
}

func TestTeleporterRoundTrip(t *testing.T) {
	w := New(testLevel(t))

	b, ok := w.Teleport(1, 2)
	if !ok || b != (grid.Position{X: 1, Y: 3}) {
		t.Errorf("teleport(A) should yield B, got %v ok=%v", b, ok)
	}
	a, ok := w.Teleport(1, 3)
	if !ok || a != (grid.Position{X: 1, Y: 2}) {
		t.Errorf("teleport(B) should yield A, got %v ok=%v", a, ok)
	}
	if _, ok := w.Teleport(1, 1); ok {
		t.Error("teleport on a non-teleporter tile should report no destination")
	}
}

func TestLockedDoorNeedsEveryKey(t *testing.T) {
	w := New(testLevel(t))

	if w.UnlockDoor(3, 2) {
		t.Fatal("locked door must not unlock before the keys are collected")
	}
	if !w.CollectKey(2, 2) {
		t.Fatal("collecting the key should succeed")
	}
	if w.CollectKey(2, 2) {
		t.Error("collecting the same key twice should fail")
	}
	if !w.AllKeysCollected() {
		t.Fatal("all keys should now be collected")
	}
	if !w.UnlockDoor(3, 2) {
		t.Error("unlock should succeed once every key is collected")
	}
	if w.UnlockDoor(3, 2) {
		t.Error("unlocking an already-unlocked door should return false")
	}
	if !w.DoorUnlocked(3, 2) {
		t.Error("unlock must be irreversible")
	}
	if !w.CanMoveTo(3, 2) {
		t.Error("unlocked door should be walkable")
	}
}

func TestQueriesOnWrongTiles(t *testing.T) {
	w := New(testLevel(t))

	if w.CollectKey(1, 1) {
		t.Error("collect_key on floor should return false")
	}
	if w.UnlockDoor(1, 1) {
		t.Error("unlock_door on floor should return false")
	}
	if w.SwitchPressed(1, 1) {
		t.Error("switch_pressed on floor should be false")
	}
}

func TestIsExit(t *testing.T) {
	w := New(testLevel(t))

	if !w.IsExit(3, 3) {
		t.Error("expected exit at (3,3)")
	}
	if w.IsExit(1, 1) {
		t.Error("floor must not be the exit")
	}
}

func TestResetRestoresOverlays(t *testing.T) {
	w := New(testLevel(t))

	w.PressSwitch(2, 1)
	w.CollectKey(2, 2)
	w.UnlockDoor(3, 2)

	w.Reset()

	if w.SwitchPressed(2, 1) || w.DoorOpen(3, 1) {
		t.Error("switch and door should reset to defaults")
	}
	if w.KeysCollected() != 0 {
		t.Error("keys should reset to uncollected")
	}
	if w.DoorUnlocked(3, 2) {
		t.Error("locked door should relock on reset")
	}
}
