// Package world holds the authoritative game state for a single session: a
// galaxy of star systems, planets, and the fleets and structures stationed on
// them. Entity identities are stable for the lifetime of the entity; only
// collection membership and attribute values change.
package world

// Resources tracks the stockpile available on a planet.
type Resources struct {
	Ore     int `json:"ore"`
	Crystal int `json:"crystal"`
	Credits int `json:"credits"`
}

// Sub subtracts cost from r, clamping at zero.
func (r *Resources) Sub(cost Resources) {
	r.Ore = max(0, r.Ore-cost.Ore)
	r.Crystal = max(0, r.Crystal-cost.Crystal)
	r.Credits = max(0, r.Credits-cost.Credits)
}

// Covers reports whether r can pay for cost in full.
func (r Resources) Covers(cost Resources) bool {
	return r.Ore >= cost.Ore && r.Crystal >= cost.Crystal && r.Credits >= cost.Credits
}

// StructureKind identifies the type of a planetary structure.
type StructureKind string

const (
	StructureMine        StructureKind = "mine"
	StructureShipyard    StructureKind = "shipyard"
	StructureDefenseGrid StructureKind = "defense_grid"
)

// Structure is a building on a planet.
type Structure struct {
	ID      string        `json:"id"`
	Kind    StructureKind `json:"kind"`
	OwnerID string        `json:"owner_id"`
	Level   int           `json:"level"`
}

// Fleet is a group of ships stationed at a planet.
type Fleet struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Ships   int    `json:"ships"`
}

// Planet belongs to exactly one star system. Fleets and Structures are located
// by identity within the planet's lists and are mutated in place.
type Planet struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	OwnerID    string       `json:"owner_id"`
	Resources  Resources    `json:"resources"`
	Fleets     []*Fleet     `json:"fleets"`
	Structures []*Structure `json:"structures"`
}

// StarSystem contains planets located by identity.
type StarSystem struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Planets []*Planet `json:"planets"`
}

// Galaxy is the root of the containment hierarchy.
type Galaxy struct {
	Systems []*StarSystem `json:"systems"`
}

// ProposalStatus tracks the lifecycle of a diplomacy proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// DiplomacyProposal records a standing offer between two players.
type DiplomacyProposal struct {
	ID           string         `json:"id"`
	FromPlayerID string         `json:"from_player_id"`
	ToPlayerID   string         `json:"to_player_id"`
	Kind         string         `json:"kind"`
	Status       ProposalStatus `json:"status"`
}

// World is the root aggregate state for one session. Exactly one live World
// instance exists per session; all reads route through the aggregate registry.
type World struct {
	ID        string               `json:"id"`
	Galaxy    *Galaxy              `json:"galaxy"`
	Diplomacy []*DiplomacyProposal `json:"diplomacy"`
}

// System returns the star system with the given id.
func (g *Galaxy) System(id string) (*StarSystem, bool) {
	for _, s := range g.Systems {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Planet returns the planet with the given id, searching every system.
func (g *Galaxy) Planet(id string) (*Planet, bool) {
	for _, s := range g.Systems {
		for _, p := range s.Planets {
			if p.ID == id {
				return p, true
			}
		}
	}
	return nil, false
}

// Fleet returns the fleet with the given id along with the planet it is
// stationed at.
func (g *Galaxy) Fleet(id string) (*Planet, *Fleet, bool) {
	for _, s := range g.Systems {
		for _, p := range s.Planets {
			for _, f := range p.Fleets {
				if f.ID == id {
					return p, f, true
				}
			}
		}
	}
	return nil, nil, false
}

// Structure returns the structure with the given id on this planet.
func (p *Planet) Structure(id string) (*Structure, bool) {
	for _, st := range p.Structures {
		if st.ID == id {
			return st, true
		}
	}
	return nil, false
}

// RemoveFleet removes the fleet with the given id from the planet's list.
func (p *Planet) RemoveFleet(id string) bool {
	for i, f := range p.Fleets {
		if f.ID == id {
			p.Fleets = append(p.Fleets[:i], p.Fleets[i+1:]...)
			return true
		}
	}
	return false
}

// Proposal returns the diplomacy proposal with the given id.
func (w *World) Proposal(id string) (*DiplomacyProposal, bool) {
	for _, pr := range w.Diplomacy {
		if pr.ID == id {
			return pr, true
		}
	}
	return nil, false
}
