package levels

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
)

const goodLevel = `
name: unit-test
grid:
  - "#######"
  - "#..S..#"
  - "#####D#"
  - "#E..AB#"
  - "#######"
player_start: {x: 1, y: 1}
switch_doors:
  - switch: {x: 3, y: 1}
    door: {x: 5, y: 2}
teleporters:
  - from: {x: 4, y: 3}
    to: {x: 5, y: 3}
annotations:
  - at: {x: 2, y: 1}
    text: "step on the plate"
guards:
  - start: {x: 2, y: 3}
    route:
      - {x: 2, y: 3}
      - {x: 3, y: 3}
`

func TestParseGoodLevel(t *testing.T) {
	desc, err := Parse([]byte(goodLevel))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if desc.Name != "unit-test" {
		t.Errorf("name = %q", desc.Name)
	}
	if desc.Width != 7 || desc.Height != 5 {
		t.Errorf("dimensions = %dx%d, want 7x5", desc.Width, desc.Height)
	}
	if got := desc.Tile(3, 1); got != grid.TileSwitch {
		t.Errorf("tile (3,1) = %v, want switch", got)
	}
	if door, ok := desc.SwitchDoors[grid.Position{X: 3, Y: 1}]; !ok || door != (grid.Position{X: 5, Y: 2}) {
		t.Errorf("switch binding = %v, %v", door, ok)
	}
	if len(desc.TeleporterPairs) != 1 {
		t.Errorf("teleporter pairs = %d", len(desc.TeleporterPairs))
	}
	if text := desc.Annotations[grid.Position{X: 2, Y: 1}]; text != "step on the plate" {
		t.Errorf("annotation = %q", text)
	}
	if len(desc.Guards) != 1 || len(desc.Guards[0].PatrolRoute) != 2 {
		t.Errorf("guards = %+v", desc.Guards)
	}
}

func TestParseUnknownTile(t *testing.T) {
	_, err := Parse([]byte("name: bad\ngrid:\n  - \"..X\"\nplayer_start: {x: 0, y: 0}\n"))
	if err == nil {
		t.Fatal("expected an unknown-tile error")
	}
}

func TestParseRaggedGrid(t *testing.T) {
	_, err := Parse([]byte("name: bad\ngrid:\n  - \"....\"\n  - \"..\"\nplayer_start: {x: 0, y: 0}\n"))
	if !errors.Is(err, level.ErrRaggedGrid) {
		t.Fatalf("got %v, want %v", err, level.ErrRaggedGrid)
	}
}

func TestParseRejectsUnboundSwitch(t *testing.T) {
	_, err := Parse([]byte("name: bad\ngrid:\n  - \".S.\"\nplayer_start: {x: 0, y: 0}\n"))
	if !errors.Is(err, level.ErrUnboundSwitch) {
		t.Fatalf("got %v, want %v", err, level.ErrUnboundSwitch)
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "unit-test.yaml"), []byte(goodLevel), 0o644); err != nil {
		t.Fatal(err)
	}

	desc, err := Load(dir, "unit-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if desc.Name != "unit-test" {
		t.Errorf("name = %q", desc.Name)
	}
}

func TestLoadOrFallbackOnMissingFile(t *testing.T) {
	desc, err := LoadOrFallback(t.TempDir(), "no-such-level")
	if err == nil {
		t.Error("expected an error explaining the fallback")
	}
	if desc == nil || desc.Name != "fallback" {
		t.Fatalf("expected the fallback level, got %+v", desc)
	}
	if verr := desc.Validate(); verr != nil {
		t.Errorf("fallback must validate: %v", verr)
	}
}
