package event

import "github.com/novaris-game/novaris/world"

// FleetMovedPayload captures the payload for fleet.moved events.
type FleetMovedPayload struct {
	FleetID      string `json:"fleet_id"`
	FromPlanetID string `json:"from_planet_id"`
	ToPlanetID   string `json:"to_planet_id"`
}

// FleetAttackedPayload captures the payload for fleet.attacked events.
type FleetAttackedPayload struct {
	AttackerFleetID string `json:"attacker_fleet_id"`
	DefenderFleetID string `json:"defender_fleet_id"`
}

// FleetDisbandedPayload captures the payload for fleet.disbanded events.
type FleetDisbandedPayload struct {
	FleetID string `json:"fleet_id"`
}

// StructureBuiltPayload captures the payload for structure.built events.
type StructureBuiltPayload struct {
	PlanetID    string              `json:"planet_id"`
	StructureID string              `json:"structure_id"`
	Kind        world.StructureKind `json:"kind"`
}

// PlanetColonizedPayload captures the payload for planet.colonized events.
type PlanetColonizedPayload struct {
	PlanetID string `json:"planet_id"`
}

// DiplomacyProposedPayload captures the payload for diplomacy.proposed events.
// The proposing player is the event's PlayerID.
type DiplomacyProposedPayload struct {
	ProposalID string `json:"proposal_id"`
	ToPlayerID string `json:"to_player_id"`
	Kind       string `json:"kind"`
}

// DiplomacyAnsweredPayload captures the payload for diplomacy.answered events.
type DiplomacyAnsweredPayload struct {
	ProposalID string `json:"proposal_id"`
	Accepted   bool   `json:"accepted"`
}
