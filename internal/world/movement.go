package world

import "github.com/dmaslov/temporal-maze/internal/domain/grid"

// EffectsMode selects how much of the tile-entry protocol an entity runs.
// The player always runs the full protocol; whether replay clones do is a
// configuration choice.
type EffectsMode int

const (
	// EffectsNone validates and commits the move without tile side effects.
	// Guards move this way: they patrol over switches without pressing them.
	EffectsNone EffectsMode = iota
	// EffectsSwitchesOnly re-presses and releases switches but skips keys,
	// unlocks and teleporters. This is the faithful clone behavior: clones
	// hold switches down, nothing more.
	EffectsSwitchesOnly
	// EffectsFull runs the entire tile-entry protocol.
	EffectsFull
)

// MoveOutcome records the side effects of one resolved move, so the caller
// can translate them into events without the world knowing about event logs.
type MoveOutcome struct {
	Moved          bool
	From, To       grid.Position
	PressedSwitch  *grid.Position
	ReleasedSwitch *grid.Position
	CollectedKey   *grid.Position
	UnlockedDoor   *grid.Position
	TeleportedFrom *grid.Position
}

// Step resolves one entity move from `from` in direction `d` under the shared
// movement contract:
//
//	validate with CanMoveTo before moving; a locked door blocking the way is
//	given one unlock attempt first. After the move, apply side effects in
//	fixed order: release the switch being left, press a switch at the entered
//	tile, collect a key there. Teleport resolution happens once, immediately
//	after the move; the paired destination is never evaluated again, so two
//	teleporters can never bounce an entity within a tick.
//
// Entry side effects run only when the move resolves onto a new tile: a Stay
// leaves the world untouched, so an entity idling on a teleporter pad or a
// switch neither re-teleports nor re-presses. An invalid move is likewise a
// silent no-op: Moved is false and the world is unchanged. The same contract
// is applied to the player, clones and guards.
func (w *World) Step(from grid.Position, d grid.Direction, mode EffectsMode) MoveOutcome {
	out := MoveOutcome{From: from, To: from}
	target := from.Add(d)

	if target == from {
		return out
	}

	if !w.CanMoveTo(target.X, target.Y) {
		// A still-locked door is passable the moment the unlock predicate
		// holds; the unlock attempt is part of the full protocol only.
		if mode != EffectsFull || w.Tile(target.X, target.Y) != grid.TileLockedDoor || !w.UnlockDoor(target.X, target.Y) {
			return out
		}
		out.UnlockedDoor = &target
	}

	return w.enter(from, target, mode, true, out)
}

// PlaceAt resolves an entity appearing directly on a tile (clone replay):
// the recorded position is trusted, only the entry side effects run.
// Recorded positions are already post-teleport, so the pairing is never
// re-evaluated; a replayed hop would leave the recorded path.
func (w *World) PlaceAt(from, to grid.Position, mode EffectsMode) MoveOutcome {
	return w.enter(from, to, mode, false, MoveOutcome{From: from, To: from})
}

func (w *World) enter(from, to grid.Position, mode EffectsMode, teleports bool, out MoveOutcome) MoveOutcome {
	out.Moved = true
	out.To = to
	if mode == EffectsNone {
		return out
	}

	if w.Tile(from.X, from.Y) == grid.TileSwitch && from != to {
		w.ReleaseSwitch(from.X, from.Y)
		released := from
		out.ReleasedSwitch = &released
	}

	switch w.Tile(to.X, to.Y) {
	case grid.TileSwitch:
		w.PressSwitch(to.X, to.Y)
		pressed := to
		out.PressedSwitch = &pressed
	case grid.TileKey:
		if mode == EffectsFull && w.CollectKey(to.X, to.Y) {
			collected := to
			out.CollectedKey = &collected
		}
	case grid.TileTeleporterA, grid.TileTeleporterB:
		if teleports && mode == EffectsFull {
			if dest, ok := w.Teleport(to.X, to.Y); ok {
				hop := to
				out.TeleportedFrom = &hop
				out.To = dest
			}
		}
	}

	return out
}
