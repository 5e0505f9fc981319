// Package rules supplies the concrete combat, construction, and movement
// arithmetic invoked from event apply handlers. The engine core guarantees
// that these run exactly once per applied event; it does not own the numbers.
// Everything here is deterministic so replayed events reproduce the same
// world.
package rules

import "github.com/novaris-game/novaris/world"

var structureCosts = map[world.StructureKind]world.Resources{
	world.StructureMine:        {Ore: 60, Crystal: 15, Credits: 100},
	world.StructureShipyard:    {Ore: 200, Crystal: 120, Credits: 400},
	world.StructureDefenseGrid: {Ore: 120, Crystal: 200, Credits: 250},
}

// CostOf returns the fixed construction cost for a structure kind.
func CostOf(kind world.StructureKind) (world.Resources, bool) {
	cost, ok := structureCosts[kind]
	return cost, ok
}

// CanAfford reports whether the planet's stockpile covers the structure's cost.
func CanAfford(p *world.Planet, kind world.StructureKind) bool {
	cost, ok := structureCosts[kind]
	if !ok {
		return false
	}
	return p.Resources.Covers(cost)
}

// AttackOutcome is the result of one fleet engagement.
type AttackOutcome struct {
	AttackerLosses    int
	DefenderLosses    int
	AttackerDestroyed bool
	DefenderDestroyed bool
}

// ResolveAttack computes losses for a single engagement. The attacker trades
// ships against the defender at a fixed ratio; whichever side runs out of
// ships is destroyed.
func ResolveAttack(attacker, defender *world.Fleet) AttackOutcome {
	out := AttackOutcome{
		DefenderLosses: (attacker.Ships + 1) / 2,
		AttackerLosses: defender.Ships / 3,
	}
	if out.DefenderLosses >= defender.Ships {
		out.DefenderLosses = defender.Ships
		out.DefenderDestroyed = true
	}
	if out.AttackerLosses >= attacker.Ships {
		out.AttackerLosses = attacker.Ships
		out.AttackerDestroyed = true
	}
	return out
}

// ColonySeed is the stockpile granted to a freshly colonized planet.
func ColonySeed() world.Resources {
	return world.Resources{Ore: 100, Crystal: 50, Credits: 200}
}
