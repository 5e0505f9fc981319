// Package delta computes the structural difference between two world
// snapshots as an ordered list of per-entity updates. It is a pure function
// of its inputs: the tick loop invokes it once per session per tick, only
// when that session processed at least one command, and ships the result to
// the session's subscriber group instead of transferring full state.
package delta

import (
	"github.com/wI2L/jsondiff"

	"github.com/novaris-game/novaris/world"
)

// Kind classifies an entity delta.
type Kind string

const (
	Added   Kind = "added"
	Updated Kind = "updated"
	Removed Kind = "removed"
)

// Update describes one entity's addition, update, or removal between two
// world snapshots. Entity carries the current value for Added and Updated;
// it is nil for Removed.
type Update struct {
	Kind     Kind   `json:"kind"`
	EntityID string `json:"entity_id"`
	Entity   any    `json:"entity,omitempty"`
}

// systemView and planetView strip child collections before comparison so a
// container only reports Updated when its own attributes change; membership
// changes surface as deltas of the children themselves.
type systemView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type planetView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	OwnerID   string          `json:"owner_id"`
	Resources world.Resources `json:"resources"`
}

func viewOfSystem(s *world.StarSystem) systemView {
	return systemView{ID: s.ID, Name: s.Name}
}

func viewOfPlanet(p *world.Planet) planetView {
	return planetView{ID: p.ID, Name: p.Name, OwnerID: p.OwnerID, Resources: p.Resources}
}

// changed reports whether two entity values differ, using a structural JSON
// diff so field ordering and zero values compare predictably.
func changed(prev, curr any) bool {
	patch, err := jsondiff.Compare(prev, curr)
	if err != nil {
		// Both values are plain serializable structs, so a compare failure
		// means something is deeply wrong; report a change so clients
		// refresh rather than drift.
		return true
	}
	return len(patch) > 0
}

// Compute walks both world trees keyed by stable entity identity and returns
// the ordered delta list: additions and updates in current-world walk order,
// removals after them within each containing collection.
func Compute(prev, curr *world.World) []Update {
	var ups []Update
	ups = append(ups, diffGalaxy(prev.Galaxy, curr.Galaxy)...)
	ups = append(ups, diffDiplomacy(prev.Diplomacy, curr.Diplomacy)...)
	return ups
}

func diffGalaxy(prev, curr *world.Galaxy) []Update {
	var ups []Update
	prevSystems := map[string]*world.StarSystem{}
	for _, s := range prev.Systems {
		prevSystems[s.ID] = s
	}

	for _, cs := range curr.Systems {
		ps, ok := prevSystems[cs.ID]
		if !ok {
			ups = append(ups, Update{Kind: Added, EntityID: cs.ID, Entity: viewOfSystem(cs)})
			for _, p := range cs.Planets {
				ups = append(ups, addedPlanet(p)...)
			}
			continue
		}
		if changed(viewOfSystem(ps), viewOfSystem(cs)) {
			ups = append(ups, Update{Kind: Updated, EntityID: cs.ID, Entity: viewOfSystem(cs)})
		}
		ups = append(ups, diffPlanets(ps.Planets, cs.Planets)...)
	}

	currSystems := map[string]bool{}
	for _, s := range curr.Systems {
		currSystems[s.ID] = true
	}
	for _, ps := range prev.Systems {
		if !currSystems[ps.ID] {
			ups = append(ups, Update{Kind: Removed, EntityID: ps.ID})
		}
	}
	return ups
}

func addedPlanet(p *world.Planet) []Update {
	ups := []Update{{Kind: Added, EntityID: p.ID, Entity: viewOfPlanet(p)}}
	for _, f := range p.Fleets {
		ups = append(ups, Update{Kind: Added, EntityID: f.ID, Entity: f})
	}
	for _, st := range p.Structures {
		ups = append(ups, Update{Kind: Added, EntityID: st.ID, Entity: st})
	}
	return ups
}

func diffPlanets(prev, curr []*world.Planet) []Update {
	var ups []Update
	prevPlanets := map[string]*world.Planet{}
	for _, p := range prev {
		prevPlanets[p.ID] = p
	}

	for _, cp := range curr {
		pp, ok := prevPlanets[cp.ID]
		if !ok {
			ups = append(ups, addedPlanet(cp)...)
			continue
		}
		if changed(viewOfPlanet(pp), viewOfPlanet(cp)) {
			ups = append(ups, Update{Kind: Updated, EntityID: cp.ID, Entity: viewOfPlanet(cp)})
		}
		ups = append(ups, diffFleets(pp.Fleets, cp.Fleets)...)
		ups = append(ups, diffStructures(pp.Structures, cp.Structures)...)
	}

	currPlanets := map[string]bool{}
	for _, p := range curr {
		currPlanets[p.ID] = true
	}
	for _, pp := range prev {
		if !currPlanets[pp.ID] {
			ups = append(ups, Update{Kind: Removed, EntityID: pp.ID})
		}
	}
	return ups
}

func diffFleets(prev, curr []*world.Fleet) []Update {
	var ups []Update
	prevFleets := map[string]*world.Fleet{}
	for _, f := range prev {
		prevFleets[f.ID] = f
	}

	for _, cf := range curr {
		pf, ok := prevFleets[cf.ID]
		switch {
		case !ok:
			ups = append(ups, Update{Kind: Added, EntityID: cf.ID, Entity: cf})
		case changed(pf, cf):
			ups = append(ups, Update{Kind: Updated, EntityID: cf.ID, Entity: cf})
		}
	}

	currFleets := map[string]bool{}
	for _, f := range curr {
		currFleets[f.ID] = true
	}
	for _, pf := range prev {
		if !currFleets[pf.ID] {
			ups = append(ups, Update{Kind: Removed, EntityID: pf.ID})
		}
	}
	return ups
}

func diffStructures(prev, curr []*world.Structure) []Update {
	var ups []Update
	prevStructures := map[string]*world.Structure{}
	for _, st := range prev {
		prevStructures[st.ID] = st
	}

	for _, cs := range curr {
		ps, ok := prevStructures[cs.ID]
		switch {
		case !ok:
			ups = append(ups, Update{Kind: Added, EntityID: cs.ID, Entity: cs})
		case changed(ps, cs):
			ups = append(ups, Update{Kind: Updated, EntityID: cs.ID, Entity: cs})
		}
	}

	currStructures := map[string]bool{}
	for _, st := range curr {
		currStructures[st.ID] = true
	}
	for _, ps := range prev {
		if !currStructures[ps.ID] {
			ups = append(ups, Update{Kind: Removed, EntityID: ps.ID})
		}
	}
	return ups
}

func diffDiplomacy(prev, curr []*world.DiplomacyProposal) []Update {
	var ups []Update
	prevProposals := map[string]*world.DiplomacyProposal{}
	for _, pr := range prev {
		prevProposals[pr.ID] = pr
	}

	for _, cp := range curr {
		pp, ok := prevProposals[cp.ID]
		switch {
		case !ok:
			ups = append(ups, Update{Kind: Added, EntityID: cp.ID, Entity: cp})
		case changed(pp, cp):
			ups = append(ups, Update{Kind: Updated, EntityID: cp.ID, Entity: cp})
		}
	}

	currProposals := map[string]bool{}
	for _, pr := range curr {
		currProposals[pr.ID] = true
	}
	for _, pp := range prev {
		if !currProposals[pp.ID] {
			ups = append(ups, Update{Kind: Removed, EntityID: pp.ID})
		}
	}
	return ups
}
