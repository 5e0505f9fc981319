package world

// DeepCopy returns a fully independent clone of the world. Later mutation of
// the live world must never be observable through the copy; the tick loop
// relies on this when it stores a delta-comparison baseline. Nil and empty
// collections survive the copy as-is so clones compare equal to their source.
func (w *World) DeepCopy() *World {
	if w == nil {
		return nil
	}
	return &World{
		ID:        w.ID,
		Galaxy:    w.Galaxy.deepCopy(),
		Diplomacy: copyProposals(w.Diplomacy),
	}
}

func copyProposals(proposals []*DiplomacyProposal) []*DiplomacyProposal {
	if proposals == nil {
		return nil
	}
	cpy := make([]*DiplomacyProposal, 0, len(proposals))
	for _, pr := range proposals {
		p := *pr
		cpy = append(cpy, &p)
	}
	return cpy
}

func (g *Galaxy) deepCopy() *Galaxy {
	if g == nil {
		return nil
	}
	cpy := &Galaxy{}
	if g.Systems != nil {
		cpy.Systems = make([]*StarSystem, 0, len(g.Systems))
	}
	for _, s := range g.Systems {
		sys := &StarSystem{
			ID:   s.ID,
			Name: s.Name,
		}
		if s.Planets != nil {
			sys.Planets = make([]*Planet, 0, len(s.Planets))
		}
		for _, p := range s.Planets {
			sys.Planets = append(sys.Planets, p.deepCopy())
		}
		cpy.Systems = append(cpy.Systems, sys)
	}
	return cpy
}

func (p *Planet) deepCopy() *Planet {
	cpy := &Planet{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		Resources: p.Resources,
	}
	if p.Fleets != nil {
		cpy.Fleets = make([]*Fleet, 0, len(p.Fleets))
		for _, f := range p.Fleets {
			fl := *f
			cpy.Fleets = append(cpy.Fleets, &fl)
		}
	}
	if p.Structures != nil {
		cpy.Structures = make([]*Structure, 0, len(p.Structures))
		for _, st := range p.Structures {
			s := *st
			cpy.Structures = append(cpy.Structures, &s)
		}
	}
	return cpy
}
