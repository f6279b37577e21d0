// Package world owns the mutable simulation state layered over an immutable
// tile grid. Entities hold a reference to the World and act on it only
// through its operations; the World knows nothing about entity types.
package world

import (
	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
)

// World is the tile grid plus position-keyed overlays. The grid never
// mutates after construction; overlays mutate during play and reset to their
// level-authored defaults on Reset.
type World struct {
	width, height int
	tiles         [][]grid.TileType

	switches    map[grid.Position]bool          // switch position -> pressed
	doorOpen    map[grid.Position]bool          // door position -> open
	switchDoors map[grid.Position]grid.Position // switch -> the one door it controls
	lockedDoors map[grid.Position]bool          // locked door position -> unlocked
	keys        map[grid.Position]bool          // key position -> collected
	teleporters map[grid.Position]grid.Position // symmetric pairing, both directions present
	annotations map[grid.Position]string

	playerStart grid.Position
	exitPos     grid.Position
	hasExit     bool
	totalKeys   int
}

// New builds a World from a validated level descriptor. The tile grid is
// shared with the descriptor and treated as immutable by both.
func New(desc *level.Descriptor) *World {
	w := &World{
		width:       desc.Width,
		height:      desc.Height,
		tiles:       desc.Tiles,
		switches:    make(map[grid.Position]bool),
		doorOpen:    make(map[grid.Position]bool),
		switchDoors: make(map[grid.Position]grid.Position, len(desc.SwitchDoors)),
		lockedDoors: make(map[grid.Position]bool),
		keys:        make(map[grid.Position]bool),
		teleporters: make(map[grid.Position]grid.Position, 2*len(desc.TeleporterPairs)),
		annotations: make(map[grid.Position]string, len(desc.Annotations)),
		playerStart: desc.PlayerStart,
	}

	for sw, door := range desc.SwitchDoors {
		w.switches[sw] = false
		w.doorOpen[door] = false
		w.switchDoors[sw] = door
	}
	for _, pair := range desc.TeleporterPairs {
		w.teleporters[pair[0]] = pair[1]
		w.teleporters[pair[1]] = pair[0]
	}
	for pos, msg := range desc.Annotations {
		w.annotations[pos] = msg
	}

	for y := 0; y < desc.Height; y++ {
		for x := 0; x < desc.Width; x++ {
			p := grid.Position{X: x, Y: y}
			switch desc.Tiles[y][x] {
			case grid.TileLockedDoor:
				w.lockedDoors[p] = false
			case grid.TileKey:
				w.keys[p] = false
				w.totalKeys++
			case grid.TileExit:
				w.exitPos = p
				w.hasExit = true
			}
		}
	}

	return w
}

// Dimensions returns the grid width and height.
func (w *World) Dimensions() (int, int) { return w.width, w.height }

// PlayerStart returns the level-authored start position.
func (w *World) PlayerStart() grid.Position { return w.playerStart }

// Tile returns the tile type at (x, y). Out-of-bounds reads are walls, so
// entities can never walk off the grid.
func (w *World) Tile(x, y int) grid.TileType {
	if x < 0 || y < 0 || x >= w.width || y >= w.height {
		return grid.TileWall
	}
	return w.tiles[y][x]
}

// CanMoveTo reports whether an entity may resolve a move onto (x, y):
// false for out-of-bounds, walls, closed doors and still-locked doors.
func (w *World) CanMoveTo(x, y int) bool {
	p := grid.Position{X: x, Y: y}
	switch w.Tile(x, y) {
	case grid.TileWall:
		return false
	case grid.TileDoor:
		return w.doorOpen[p]
	case grid.TileLockedDoor:
		return w.lockedDoors[p]
	}
	return true
}

// IsTransparent reports whether line of sight passes through (x, y).
// Open and unlocked doors are transparent; walls and closed doors are not.
func (w *World) IsTransparent(x, y int) bool {
	p := grid.Position{X: x, Y: y}
	switch w.Tile(x, y) {
	case grid.TileWall:
		return false
	case grid.TileDoor:
		return w.doorOpen[p]
	case grid.TileLockedDoor:
		return w.lockedDoors[p]
	}
	return true
}

// PressSwitch marks the switch at (x, y) pressed and opens its bound door.
// Pressing an already-pressed switch is a no-op returning true. Returns
// false when no switch exists there.
func (w *World) PressSwitch(x, y int) bool {
	p := grid.Position{X: x, Y: y}
	if _, ok := w.switches[p]; !ok {
		return false
	}
	w.switches[p] = true
	w.doorOpen[w.switchDoors[p]] = true
	return true
}

// ReleaseSwitch is the mirror of PressSwitch: unpresses the switch and
// closes its bound door. Idempotent; false when no switch exists there.
func (w *World) ReleaseSwitch(x, y int) bool {
	p := grid.Position{X: x, Y: y}
	if _, ok := w.switches[p]; !ok {
		return false
	}
	w.switches[p] = false
	w.doorOpen[w.switchDoors[p]] = false
	return true
}

// SwitchPressed reports the pressed state of the switch at (x, y).
func (w *World) SwitchPressed(x, y int) bool {
	return w.switches[grid.Position{X: x, Y: y}]
}

// DoorOpen reports the open state of the door at (x, y).
func (w *World) DoorOpen(x, y int) bool {
	return w.doorOpen[grid.Position{X: x, Y: y}]
}

// CollectKey marks the key at (x, y) collected. Returns false if there is no
// key there or it was already collected.
func (w *World) CollectKey(x, y int) bool {
	p := grid.Position{X: x, Y: y}
	collected, ok := w.keys[p]
	if !ok || collected {
		return false
	}
	w.keys[p] = true
	return true
}

// KeysCollected returns how many of the level's keys have been picked up.
func (w *World) KeysCollected() int {
	n := 0
	for _, collected := range w.keys {
		if collected {
			n++
		}
	}
	return n
}

// AllKeysCollected reports whether every key in the level has been picked up.
// A level without keys trivially satisfies it.
func (w *World) AllKeysCollected() bool {
	return w.KeysCollected() == w.totalKeys
}

// UnlockDoor unlocks the locked door at (x, y). The unlock predicate is the
// all-keys policy: it succeeds only once every key in the level has been
// collected. Unlocking is irreversible. Returns false for non-locked-door
// positions, already-unlocked doors, or an unsatisfied predicate.
func (w *World) UnlockDoor(x, y int) bool {
	p := grid.Position{X: x, Y: y}
	unlocked, ok := w.lockedDoors[p]
	if !ok || unlocked || !w.AllKeysCollected() {
		return false
	}
	w.lockedDoors[p] = true
	return true
}

// DoorUnlocked reports whether the locked door at (x, y) has been unlocked.
func (w *World) DoorUnlocked(x, y int) bool {
	return w.lockedDoors[grid.Position{X: x, Y: y}]
}

// Teleport is a pure lookup of the paired destination for the teleporter at
// (x, y). It mutates nothing and moves nothing.
func (w *World) Teleport(x, y int) (grid.Position, bool) {
	dest, ok := w.teleporters[grid.Position{X: x, Y: y}]
	return dest, ok
}

// Annotation returns the message attached to (x, y), if any.
func (w *World) Annotation(x, y int) (string, bool) {
	msg, ok := w.annotations[grid.Position{X: x, Y: y}]
	return msg, ok
}

// IsExit reports whether (x, y) is the level exit.
func (w *World) IsExit(x, y int) bool {
	return w.hasExit && w.exitPos.X == x && w.exitPos.Y == y
}

// Reset restores every overlay to its level-authored default. The grid is
// untouched.
func (w *World) Reset() {
	for p := range w.switches {
		w.switches[p] = false
	}
	for p := range w.doorOpen {
		w.doorOpen[p] = false
	}
	for p := range w.lockedDoors {
		w.lockedDoors[p] = false
	}
	for p := range w.keys {
		w.keys[p] = false
	}
}
