// Package levels loads level descriptors from YAML map files.
package levels

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/domain/level"
)

// yamlLevel is the on-disk shape of a level file. The grid is a list of
// equal-length rows using the tile runes: # wall, . floor, S switch,
// D door, L locked door, K key, E exit, A/B teleporters, T annotation.
type yamlLevel struct {
	Name        string           `yaml:"name"`
	Grid        []string         `yaml:"grid"`
	PlayerStart yamlPos          `yaml:"player_start"`
	SwitchDoors []yamlBinding    `yaml:"switch_doors"`
	Teleporters []yamlPair       `yaml:"teleporters"`
	Annotations []yamlAnnotation `yaml:"annotations"`
	Guards      []yamlGuard      `yaml:"guards"`
}

type yamlPos struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (p yamlPos) pos() grid.Position {
	return grid.Position{X: p.X, Y: p.Y}
}

type yamlBinding struct {
	Switch yamlPos `yaml:"switch"`
	Door   yamlPos `yaml:"door"`
}

type yamlPair struct {
	From yamlPos `yaml:"from"`
	To   yamlPos `yaml:"to"`
}

type yamlAnnotation struct {
	At   yamlPos `yaml:"at"`
	Text string  `yaml:"text"`
}

type yamlGuard struct {
	Start yamlPos   `yaml:"start"`
	Route []yamlPos `yaml:"route"`
}

// Load reads and validates the named level from dir. The file name is
// <name>.yaml.
func Load(dir, name string) (*level.Descriptor, error) {
	path := filepath.Join(dir, name+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a YAML level document into a validated descriptor.
func Parse(data []byte) (*level.Descriptor, error) {
	var raw yamlLevel
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing level: %w", err)
	}

	desc, err := build(&raw)
	if err != nil {
		return nil, err
	}

	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("level %q: %w", desc.Name, err)
	}

	return desc, nil
}

func build(raw *yamlLevel) (*level.Descriptor, error) {
	if len(raw.Grid) == 0 {
		return nil, level.ErrEmptyGrid
	}

	height := len(raw.Grid)
	width := len([]rune(raw.Grid[0]))

	tiles := make([][]grid.TileType, height)
	for y, row := range raw.Grid {
		runes := []rune(row)
		if len(runes) != width {
			return nil, fmt.Errorf("%w: row %d", level.ErrRaggedGrid, y)
		}
		tiles[y] = make([]grid.TileType, width)
		for x, r := range runes {
			t, ok := grid.ParseTile(r)
			if !ok {
				return nil, fmt.Errorf("level: unknown tile %q at (%d,%d)", r, x, y)
			}
			tiles[y][x] = t
		}
	}

	desc := &level.Descriptor{
		Name:        raw.Name,
		Width:       width,
		Height:      height,
		Tiles:       tiles,
		PlayerStart: raw.PlayerStart.pos(),
		SwitchDoors: make(map[grid.Position]grid.Position, len(raw.SwitchDoors)),
		Annotations: make(map[grid.Position]string, len(raw.Annotations)),
	}

	for _, b := range raw.SwitchDoors {
		desc.SwitchDoors[b.Switch.pos()] = b.Door.pos()
	}
	for _, p := range raw.Teleporters {
		desc.TeleporterPairs = append(desc.TeleporterPairs, [2]grid.Position{p.From.pos(), p.To.pos()})
	}
	for _, a := range raw.Annotations {
		desc.Annotations[a.At.pos()] = a.Text
	}
	for _, g := range raw.Guards {
		spec := level.GuardSpec{Start: g.Start.pos()}
		for _, wp := range g.Route {
			spec.PatrolRoute = append(spec.PatrolRoute, wp.pos())
		}
		desc.Guards = append(desc.Guards, spec)
	}

	return desc, nil
}

// LoadOrFallback loads the named level, falling back to the built-in minimal
// room when the file is missing or invalid. The returned error, if any,
// describes why the fallback was used.
func LoadOrFallback(dir, name string) (*level.Descriptor, error) {
	desc, err := Load(dir, name)
	if err != nil {
		return level.Fallback(), err
	}
	return desc, nil
}
