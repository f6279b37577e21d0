// Package timetravel records the player's movement history and replays
// slices of it through clones, one position per tick, in lock-step with the
// present.
package timetravel

import (
	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/world"
)

// Clone is a replay agent bound to an immutable slice of history. The path
// is snapshotted at creation; later history growth never affects it. A clone
// has no back-reference to the history it came from.
type Clone struct {
	id   string
	path []grid.Position
	idx  int
	pos  grid.Position
	done bool
}

func newClone(id string, path []grid.Position) *Clone {
	// Defensive copy: the manager's history buffer keeps growing and may
	// reallocate, the clone's path must not.
	p := make([]grid.Position, len(path))
	copy(p, path)
	return &Clone{id: id, path: p, idx: -1, pos: p[0]}
}

// ID returns the clone's identifier, assigned in creation order.
func (c *Clone) ID() string { return c.id }

// Position returns where the clone currently stands.
func (c *Clone) Position() grid.Position { return c.pos }

// Done reports whether the clone has exhausted its path.
func (c *Clone) Done() bool { return c.done }

// PathLen returns the fixed length of the clone's replay path.
func (c *Clone) PathLen() int { return len(c.path) }

// advance steps the clone to its next recorded position and applies the
// tile-entry side effects there. Once the path is exhausted the clone is
// done; a finishing clone does not release a switch it ends on, so a puzzle
// solved by parking a clone on a switch stays solved.
func (c *Clone) advance(w *world.World, mode world.EffectsMode) (world.MoveOutcome, bool) {
	c.idx++
	if c.idx >= len(c.path) {
		c.done = true
		return world.MoveOutcome{}, false
	}
	from := c.pos
	out := w.PlaceAt(from, c.path[c.idx], mode)
	c.pos = out.To
	return out, true
}
