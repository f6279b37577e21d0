// Package guard implements the patrol/alert state machine for guards.
// A guard produces one candidate move per tick; capture is resolved by the
// session after all movement, never by the guard itself.
package guard

import (
	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/world"
)

// Mode is the guard's behavioral state.
type Mode int

const (
	Patrolling Mode = iota
	Alerted
)

func (m Mode) String() string {
	if m == Alerted {
		return "ALERTED"
	}
	return "PATROLLING"
}

// Defaults used when the level or config does not override them.
const (
	DefaultDetectionRadius = 5
	DefaultAlertCooldown   = 3
)

// Guard patrols a fixed looping route and pursues the player while alerted.
// Only mode and alertTimer mutate over a level's lifetime besides position.
type Guard struct {
	pos      grid.Position
	route    []grid.Position
	routeIdx int

	mode       Mode
	alertTimer int

	radius   int
	cooldown int
}

// New creates a guard at start following the given looping route. An empty
// route degenerates to standing guard at the start position.
func New(start grid.Position, route []grid.Position, radius, cooldown int) *Guard {
	if len(route) == 0 {
		route = []grid.Position{start}
	}
	if radius <= 0 {
		radius = DefaultDetectionRadius
	}
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	r := make([]grid.Position, len(route))
	copy(r, route)
	return &Guard{pos: start, route: r, radius: radius, cooldown: cooldown}
}

// Position returns where the guard currently stands.
func (g *Guard) Position() grid.Position { return g.pos }

// Mode returns the guard's current behavioral state.
func (g *Guard) Mode() Mode { return g.mode }

// Update advances the guard one tick: mode transition first, then one
// validated move per the current mode. Invalid candidate moves leave the
// guard in place.
func (g *Guard) Update(w *world.World, player grid.Position) {
	switch g.mode {
	case Patrolling:
		if g.CanSee(w, player) {
			g.mode = Alerted
			g.alertTimer = g.cooldown
			g.chase(w, player)
			return
		}
		g.patrol(w)
	case Alerted:
		if g.inRadius(player) {
			g.alertTimer = g.cooldown
		} else {
			g.alertTimer--
			if g.alertTimer <= 0 {
				g.mode = Patrolling
				g.patrol(w)
				return
			}
		}
		g.chase(w, player)
	}
}

// patrol follows the route one waypoint per tick, looping back to waypoint 0
// after the last. Routes are authored as dense tile paths, so a waypoint hop
// is a single-tile move; an unreachable waypoint leaves the guard in place
// until it opens up.
func (g *Guard) patrol(w *world.World) {
	if g.pos == g.route[g.routeIdx] {
		g.routeIdx = (g.routeIdx + 1) % len(g.route)
	}
	target := g.route[g.routeIdx]
	if target == g.pos || w.CanMoveTo(target.X, target.Y) {
		g.pos = target
	}
}

// chase moves one step toward the player's current position: the axis with
// the greater distance first, falling back to the other axis.
func (g *Guard) chase(w *world.World, player grid.Position) {
	g.stepToward(w, player)
}

func (g *Guard) stepToward(w *world.World, target grid.Position) {
	dx, dy := grid.Stay, grid.Stay
	if target.X > g.pos.X {
		dx = grid.Right
	} else if target.X < g.pos.X {
		dx = grid.Left
	}
	if target.Y > g.pos.Y {
		dy = grid.Down
	} else if target.Y < g.pos.Y {
		dy = grid.Up
	}

	first, second := dx, dy
	if abs(target.Y-g.pos.Y) > abs(target.X-g.pos.X) {
		first, second = dy, dx
	}
	if g.tryStep(w, first) {
		return
	}
	g.tryStep(w, second)
}

func (g *Guard) tryStep(w *world.World, d grid.Direction) bool {
	if d == grid.Stay {
		return false
	}
	out := w.Step(g.pos, d, world.EffectsNone)
	if out.Moved {
		g.pos = out.To
	}
	return out.Moved
}

// CanSee reports whether the player is inside the detection radius with an
// unobstructed straight line of sight. Sight runs along a shared row or
// column only; anything off-axis is invisible.
func (g *Guard) CanSee(w *world.World, player grid.Position) bool {
	if !g.inRadius(player) {
		return false
	}
	switch {
	case g.pos.X == player.X:
		lo, hi := minmax(g.pos.Y, player.Y)
		for y := lo; y <= hi; y++ {
			if !w.IsTransparent(g.pos.X, y) {
				return false
			}
		}
		return true
	case g.pos.Y == player.Y:
		lo, hi := minmax(g.pos.X, player.X)
		for x := lo; x <= hi; x++ {
			if !w.IsTransparent(x, g.pos.Y) {
				return false
			}
		}
		return true
	}
	return false
}

func (g *Guard) inRadius(player grid.Position) bool {
	dx, dy := player.X-g.pos.X, player.Y-g.pos.Y
	return dx*dx+dy*dy <= g.radius*g.radius
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minmax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
