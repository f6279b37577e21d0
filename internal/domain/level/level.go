// Package level defines the immutable level descriptor consumed by the
// simulation at construction time. The descriptor is fully validated once;
// the simulation core treats it as trusted after that.
// This package is PURE and must NOT import any infrastructure packages.
package level

import (
	"errors"
	"fmt"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
)

// Validation failures are fatal for the level they describe; the caller is
// expected to fall back to Fallback() rather than crash.
var (
	ErrEmptyGrid          = errors.New("level: grid is empty")
	ErrRaggedGrid         = errors.New("level: grid rows have unequal width")
	ErrStartOutOfBounds   = errors.New("level: player start is out of bounds")
	ErrStartBlocked       = errors.New("level: player start is not walkable")
	ErrUnboundSwitch      = errors.New("level: switch has no door binding")
	ErrBindingMismatch    = errors.New("level: switch binding does not reference a switch and a door tile")
	ErrDoorDoubleBound    = errors.New("level: door is bound to more than one switch")
	ErrTeleporterUnpaired = errors.New("level: teleporter has no paired destination")
	ErrGuardRouteEmpty    = errors.New("level: guard has an empty patrol route")
	ErrGuardOutOfBounds   = errors.New("level: guard waypoint is out of bounds")
	ErrGuardRouteGap      = errors.New("level: guard patrol route is not a dense tile path")
)

// GuardSpec describes a guard's start and looping patrol route.
type GuardSpec struct {
	Start       grid.Position
	PatrolRoute []grid.Position
}

// Descriptor is the immutable output of the level loader: grid dimensions,
// tile grid, and the binding tables for switches, locked doors, keys,
// teleporters, guards and annotations.
type Descriptor struct {
	Name        string
	Width       int
	Height      int
	Tiles       [][]grid.TileType // indexed [y][x]
	PlayerStart grid.Position

	// SwitchDoors binds each switch position to the single door it controls.
	SwitchDoors map[grid.Position]grid.Position

	// TeleporterPairs lists each pair once; the world derives the symmetric
	// lookup table from it.
	TeleporterPairs [][2]grid.Position

	Annotations map[grid.Position]string
	Guards      []GuardSpec
}

// Tile returns the tile at (x, y), or TileWall outside the grid.
func (d *Descriptor) Tile(x, y int) grid.TileType {
	if x < 0 || y < 0 || x >= d.Width || y >= d.Height {
		return grid.TileWall
	}
	return d.Tiles[y][x]
}

func (d *Descriptor) inBounds(p grid.Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < d.Width && p.Y < d.Height
}

// Validate checks the structural invariants the simulation relies on:
// rectangular grid, in-bounds walkable start, 1:1 switch/door bindings,
// total symmetric teleporter pairing, non-empty in-bounds guard routes whose
// waypoints form a dense tile path.
func (d *Descriptor) Validate() error {
	if d.Height == 0 || d.Width == 0 || len(d.Tiles) == 0 {
		return ErrEmptyGrid
	}
	if len(d.Tiles) != d.Height {
		return fmt.Errorf("%w: declared height %d, got %d rows", ErrRaggedGrid, d.Height, len(d.Tiles))
	}
	for y, row := range d.Tiles {
		if len(row) != d.Width {
			return fmt.Errorf("%w: row %d", ErrRaggedGrid, y)
		}
	}

	if !d.inBounds(d.PlayerStart) {
		return ErrStartOutOfBounds
	}
	if d.Tile(d.PlayerStart.X, d.PlayerStart.Y) == grid.TileWall {
		return ErrStartBlocked
	}

	// Every switch tile must be bound, every binding must point from a
	// switch tile to a door tile, and no door may answer to two switches.
	boundDoors := make(map[grid.Position]grid.Position)
	for sw, door := range d.SwitchDoors {
		if d.Tile(sw.X, sw.Y) != grid.TileSwitch || d.Tile(door.X, door.Y) != grid.TileDoor {
			return fmt.Errorf("%w: %v -> %v", ErrBindingMismatch, sw, door)
		}
		if prev, dup := boundDoors[door]; dup {
			return fmt.Errorf("%w: door %v bound by %v and %v", ErrDoorDoubleBound, door, prev, sw)
		}
		boundDoors[door] = sw
	}
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if d.Tiles[y][x] != grid.TileSwitch {
				continue
			}
			if _, ok := d.SwitchDoors[grid.Position{X: x, Y: y}]; !ok {
				return fmt.Errorf("%w: switch at (%d,%d)", ErrUnboundSwitch, x, y)
			}
		}
	}

	// Teleporter pairing must be total: every teleporter tile appears in
	// exactly one pair.
	paired := make(map[grid.Position]bool)
	for _, pair := range d.TeleporterPairs {
		for _, p := range pair {
			t := d.Tile(p.X, p.Y)
			if t != grid.TileTeleporterA && t != grid.TileTeleporterB {
				return fmt.Errorf("%w: %v is not a teleporter tile", ErrTeleporterUnpaired, p)
			}
			if paired[p] {
				return fmt.Errorf("%w: %v paired twice", ErrTeleporterUnpaired, p)
			}
			paired[p] = true
		}
	}
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			t := d.Tiles[y][x]
			if t != grid.TileTeleporterA && t != grid.TileTeleporterB {
				continue
			}
			if !paired[grid.Position{X: x, Y: y}] {
				return fmt.Errorf("%w: teleporter at (%d,%d)", ErrTeleporterUnpaired, x, y)
			}
		}
	}

	for i, g := range d.Guards {
		if len(g.PatrolRoute) == 0 {
			return fmt.Errorf("%w: guard %d", ErrGuardRouteEmpty, i)
		}
		if !d.inBounds(g.Start) {
			return fmt.Errorf("%w: guard %d start %v", ErrGuardOutOfBounds, i, g.Start)
		}
		// Guards cover one waypoint per tick, so the route must be a dense
		// tile path from the start onward. The wrap back to waypoint 0 is
		// exempt: loops are allowed to close over open floor.
		prev := g.Start
		for _, wp := range g.PatrolRoute {
			if !d.inBounds(wp) {
				return fmt.Errorf("%w: guard %d waypoint %v", ErrGuardOutOfBounds, i, wp)
			}
			if dist := abs(wp.X-prev.X) + abs(wp.Y-prev.Y); dist > 1 {
				return fmt.Errorf("%w: guard %d waypoints %v -> %v", ErrGuardRouteGap, i, prev, wp)
			}
			prev = wp
		}
	}

	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Fallback returns the degraded minimal level used when a descriptor fails to
// load: a walled 3x3 room with the player in the middle and an exit beside it.
func Fallback() *Descriptor {
	w, f, e := grid.TileWall, grid.TileFloor, grid.TileExit
	return &Descriptor{
		Name:   "fallback",
		Width:  4,
		Height: 3,
		Tiles: [][]grid.TileType{
			{w, w, w, w},
			{w, f, e, w},
			{w, w, w, w},
		},
		PlayerStart: grid.Position{X: 1, Y: 1},
		SwitchDoors: map[grid.Position]grid.Position{},
		Annotations: map[grid.Position]string{},
	}
}
