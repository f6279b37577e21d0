// Package grid defines the basic spatial types for the maze simulation.
// This package is PURE and must NOT import any infrastructure packages.
package grid

// Position is a tile coordinate on the level grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position shifted by the given direction.
func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.DX, Y: p.Y + d.DY}
}

// Direction is a unit step on the grid.
type Direction struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

var (
	Up    = Direction{0, -1}
	Down  = Direction{0, 1}
	Left  = Direction{-1, 0}
	Right = Direction{1, 0}
	Stay  = Direction{0, 0}
)

// TileType identifies what a grid cell is. The grid itself is immutable after
// level load; mutable state (switch pressed, door open) lives in overlays.
type TileType int

const (
	TileWall TileType = iota
	TileFloor
	TileSwitch
	TileDoor
	TileLockedDoor
	TileKey
	TileExit
	TileTeleporterA
	TileTeleporterB
	TileAnnotation
)

// String returns the map-file rune for the tile type.
func (t TileType) String() string {
	switch t {
	case TileWall:
		return "#"
	case TileFloor:
		return "."
	case TileSwitch:
		return "S"
	case TileDoor:
		return "D"
	case TileLockedDoor:
		return "L"
	case TileKey:
		return "K"
	case TileExit:
		return "E"
	case TileTeleporterA:
		return "A"
	case TileTeleporterB:
		return "B"
	case TileAnnotation:
		return "T"
	}
	return "?"
}

// ParseTile maps a level-file rune to its tile type.
func ParseTile(r rune) (TileType, bool) {
	switch r {
	case '#':
		return TileWall, true
	case '.':
		return TileFloor, true
	case 'S':
		return TileSwitch, true
	case 'D':
		return TileDoor, true
	case 'L':
		return TileLockedDoor, true
	case 'K':
		return TileKey, true
	case 'E':
		return TileExit, true
	case 'A':
		return TileTeleporterA, true
	case 'B':
		return TileTeleporterB, true
	case 'T':
		return TileAnnotation, true
	}
	return TileWall, false
}
