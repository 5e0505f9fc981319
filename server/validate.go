package server

import (
	"github.com/rotisserie/eris"

	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/rules"
	"github.com/novaris-game/novaris/world"
)

// buildCommand turns a request into a typed event, rejecting unknown kinds.
func buildCommand(req CommandRequest) (event.Event, error) {
	kind := event.Kind(req.Kind)
	switch kind {
	case event.KindFleetMoved, event.KindFleetAttacked, event.KindFleetDisbanded,
		event.KindStructureBuilt, event.KindPlanetColonized,
		event.KindDiplomacyProposed, event.KindDiplomacyAnswered:
		return event.Event{Kind: kind, PlayerID: req.PlayerID, Payload: req.Payload}, nil
	default:
		return event.Event{}, eris.Errorf("unknown command kind %q", req.Kind)
	}
}

// validateCommand checks referential integrity, ownership, and preconditions
// against the given world snapshot. Validation is advisory: the world may
// change before the command is applied, in which case the aggregate no-ops.
func validateCommand(w *world.World, ev event.Event) error {
	switch ev.Kind {
	case event.KindFleetMoved:
		p, err := event.DecodePayload[event.FleetMovedPayload](ev)
		if err != nil {
			return eris.Wrap(err, "malformed payload")
		}
		from, ok := w.Galaxy.Planet(p.FromPlanetID)
		if !ok {
			return eris.Errorf("origin planet %q does not exist", p.FromPlanetID)
		}
		if _, ok := w.Galaxy.Planet(p.ToPlanetID); !ok {
			return eris.Errorf("destination planet %q does not exist", p.ToPlanetID)
		}
		for _, f := range from.Fleets {
			if f.ID == p.FleetID {
				if f.OwnerID != ev.PlayerID {
					return eris.Errorf("fleet %q is not owned by player %q", p.FleetID, ev.PlayerID)
				}
				return nil
			}
		}
		return eris.Errorf("fleet %q is not stationed at planet %q", p.FleetID, p.FromPlanetID)

	case event.KindFleetAttacked:
		p, err := event.DecodePayload[event.FleetAttackedPayload](ev)
		if err != nil {
			return eris.Wrap(err, "malformed payload")
		}
		_, attacker, ok := w.Galaxy.Fleet(p.AttackerFleetID)
		if !ok {
			return eris.Errorf("attacking fleet %q does not exist", p.AttackerFleetID)
		}
		if attacker.OwnerID != ev.PlayerID {
			return eris.Errorf("fleet %q is not owned by player %q", p.AttackerFleetID, ev.PlayerID)
		}
		if _, _, ok := w.Galaxy.Fleet(p.DefenderFleetID); !ok {
			return eris.Errorf("defending fleet %q does not exist", p.DefenderFleetID)
		}
		return nil

	case event.KindFleetDisbanded:
		p, err := event.DecodePayload[event.FleetDisbandedPayload](ev)
		if err != nil {
			return eris.Wrap(err, "malformed payload")
		}
		_, fleet, ok := w.Galaxy.Fleet(p.FleetID)
		if !ok {
			return eris.Errorf("fleet %q does not exist", p.FleetID)
		}
		if fleet.OwnerID != ev.PlayerID {
			return eris.Errorf("fleet %q is not owned by player %q", p.FleetID, ev.PlayerID)
		}
		return nil

	case event.KindStructureBuilt:
		p, err := event.DecodePayload[event.StructureBuiltPayload](ev)
		if err != nil {
			return eris.Wrap(err, "malformed payload")
		}
		planet, ok := w.Galaxy.Planet(p.PlanetID)
		if !ok {
			return eris.Errorf("planet %q does not exist", p.PlanetID)
		}
		if planet.OwnerID != ev.PlayerID {
			return eris.Errorf("planet %q is not owned by player %q", p.PlanetID, ev.PlayerID)
		}
		if !rules.CanAfford(planet, p.Kind) {
			return eris.Errorf("planet %q cannot afford a %s", p.PlanetID, p.Kind)
		}
		return nil

	case event.KindPlanetColonized:
		p, err := event.DecodePayload[event.PlanetColonizedPayload](ev)
		if err != nil {
			return eris.Wrap(err, "malformed payload")
		}
		planet, ok := w.Galaxy.Planet(p.PlanetID)
		if !ok {
			return eris.Errorf("planet %q does not exist", p.PlanetID)
		}
		if planet.OwnerID != "" {
			return eris.Errorf("planet %q is already owned", p.PlanetID)
		}
		return nil

	case event.KindDiplomacyProposed:
		p, err := event.DecodePayload[event.DiplomacyProposedPayload](ev)
		if err != nil {
			return eris.Wrap(err, "malformed payload")
		}
		if p.ProposalID == "" || p.ToPlayerID == "" {
			return eris.New("proposal id and target player are required")
		}
		if _, ok := w.Proposal(p.ProposalID); ok {
			return eris.Errorf("proposal %q already exists", p.ProposalID)
		}
		return nil

	case event.KindDiplomacyAnswered:
		p, err := event.DecodePayload[event.DiplomacyAnsweredPayload](ev)
		if err != nil {
			return eris.Wrap(err, "malformed payload")
		}
		proposal, ok := w.Proposal(p.ProposalID)
		if !ok {
			return eris.Errorf("proposal %q does not exist", p.ProposalID)
		}
		if proposal.ToPlayerID != ev.PlayerID {
			return eris.Errorf("proposal %q is not addressed to player %q", p.ProposalID, ev.PlayerID)
		}
		if proposal.Status != world.ProposalPending {
			return eris.Errorf("proposal %q has already been answered", p.ProposalID)
		}
		return nil

	default:
		return eris.Errorf("unknown command kind %q", ev.Kind)
	}
}
