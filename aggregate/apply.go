package aggregate

import (
	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/rules"
	"github.com/novaris-game/novaris/world"
)

// mutate dispatches the event to its kind's handler. Handlers never return
// errors: a dangling reference is logged and skipped so the session keeps
// making forward progress.
func (a *Aggregate) mutate(ev event.Event) {
	switch ev.Kind {
	case event.KindFleetMoved:
		a.applyFleetMoved(ev)
	case event.KindFleetAttacked:
		a.applyFleetAttacked(ev)
	case event.KindFleetDisbanded:
		a.applyFleetDisbanded(ev)
	case event.KindStructureBuilt:
		a.applyStructureBuilt(ev)
	case event.KindPlanetColonized:
		a.applyPlanetColonized(ev)
	case event.KindDiplomacyProposed:
		a.applyDiplomacyProposed(ev)
	case event.KindDiplomacyAnswered:
		a.applyDiplomacyAnswered(ev)
	default:
		a.logger.Warn().Str("event", string(ev.Kind)).Msg("unknown event kind, skipping")
	}
}

func (a *Aggregate) applyFleetMoved(ev event.Event) {
	p, err := event.DecodePayload[event.FleetMovedPayload](ev)
	if err != nil {
		a.warnBadPayload(ev, err)
		return
	}
	from, ok := a.world.Galaxy.Planet(p.FromPlanetID)
	if !ok {
		a.warnMissing(ev, "planet", p.FromPlanetID)
		return
	}
	to, ok := a.world.Galaxy.Planet(p.ToPlanetID)
	if !ok {
		a.warnMissing(ev, "planet", p.ToPlanetID)
		return
	}
	var fleet *world.Fleet
	for _, f := range from.Fleets {
		if f.ID == p.FleetID {
			fleet = f
			break
		}
	}
	if fleet == nil {
		a.warnMissing(ev, "fleet", p.FleetID)
		return
	}
	from.RemoveFleet(fleet.ID)
	to.Fleets = append(to.Fleets, fleet)
}

func (a *Aggregate) applyFleetAttacked(ev event.Event) {
	p, err := event.DecodePayload[event.FleetAttackedPayload](ev)
	if err != nil {
		a.warnBadPayload(ev, err)
		return
	}
	atkPlanet, attacker, ok := a.world.Galaxy.Fleet(p.AttackerFleetID)
	if !ok {
		a.warnMissing(ev, "fleet", p.AttackerFleetID)
		return
	}
	defPlanet, defender, ok := a.world.Galaxy.Fleet(p.DefenderFleetID)
	if !ok {
		a.warnMissing(ev, "fleet", p.DefenderFleetID)
		return
	}
	out := rules.ResolveAttack(attacker, defender)
	attacker.Ships -= out.AttackerLosses
	defender.Ships -= out.DefenderLosses
	if out.AttackerDestroyed {
		atkPlanet.RemoveFleet(attacker.ID)
	}
	if out.DefenderDestroyed {
		defPlanet.RemoveFleet(defender.ID)
	}
}

func (a *Aggregate) applyFleetDisbanded(ev event.Event) {
	p, err := event.DecodePayload[event.FleetDisbandedPayload](ev)
	if err != nil {
		a.warnBadPayload(ev, err)
		return
	}
	planet, _, ok := a.world.Galaxy.Fleet(p.FleetID)
	if !ok {
		a.warnMissing(ev, "fleet", p.FleetID)
		return
	}
	planet.RemoveFleet(p.FleetID)
}

func (a *Aggregate) applyStructureBuilt(ev event.Event) {
	p, err := event.DecodePayload[event.StructureBuiltPayload](ev)
	if err != nil {
		a.warnBadPayload(ev, err)
		return
	}
	planet, ok := a.world.Galaxy.Planet(p.PlanetID)
	if !ok {
		a.warnMissing(ev, "planet", p.PlanetID)
		return
	}
	cost, ok := rules.CostOf(p.Kind)
	if !ok {
		a.logger.Warn().
			Str("event", string(ev.Kind)).
			Str("structure_kind", string(p.Kind)).
			Msg("unknown structure kind, skipping")
		return
	}
	planet.Resources.Sub(cost)
	planet.Structures = append(planet.Structures, &world.Structure{
		ID:      p.StructureID,
		Kind:    p.Kind,
		OwnerID: ev.PlayerID,
		Level:   1,
	})
}

func (a *Aggregate) applyPlanetColonized(ev event.Event) {
	p, err := event.DecodePayload[event.PlanetColonizedPayload](ev)
	if err != nil {
		a.warnBadPayload(ev, err)
		return
	}
	planet, ok := a.world.Galaxy.Planet(p.PlanetID)
	if !ok {
		a.warnMissing(ev, "planet", p.PlanetID)
		return
	}
	planet.OwnerID = ev.PlayerID
	seed := rules.ColonySeed()
	planet.Resources.Ore += seed.Ore
	planet.Resources.Crystal += seed.Crystal
	planet.Resources.Credits += seed.Credits
}

func (a *Aggregate) applyDiplomacyProposed(ev event.Event) {
	p, err := event.DecodePayload[event.DiplomacyProposedPayload](ev)
	if err != nil {
		a.warnBadPayload(ev, err)
		return
	}
	a.world.Diplomacy = append(a.world.Diplomacy, &world.DiplomacyProposal{
		ID:           p.ProposalID,
		FromPlayerID: ev.PlayerID,
		ToPlayerID:   p.ToPlayerID,
		Kind:         p.Kind,
		Status:       world.ProposalPending,
	})
}

func (a *Aggregate) applyDiplomacyAnswered(ev event.Event) {
	p, err := event.DecodePayload[event.DiplomacyAnsweredPayload](ev)
	if err != nil {
		a.warnBadPayload(ev, err)
		return
	}
	proposal, ok := a.world.Proposal(p.ProposalID)
	if !ok {
		a.warnMissing(ev, "proposal", p.ProposalID)
		return
	}
	if p.Accepted {
		proposal.Status = world.ProposalAccepted
	} else {
		proposal.Status = world.ProposalRejected
	}
}

func (a *Aggregate) warnMissing(ev event.Event, entity, id string) {
	a.logger.Warn().
		Str("event", string(ev.Kind)).
		Str(entity, id).
		Uint64("version", a.version).
		Msg("event references a missing entity, skipping mutation")
}

func (a *Aggregate) warnBadPayload(ev event.Event, err error) {
	a.logger.Warn().
		Err(err).
		Str("event", string(ev.Kind)).
		Uint64("version", a.version).
		Msg("event payload could not be decoded, skipping mutation")
}
