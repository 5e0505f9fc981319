package world

// NewDefaultWorld builds the starting galaxy for a new session. The layout is
// deterministic so that replaying a session's event history from the default
// world always reproduces the same state.
func NewDefaultWorld(id string) *World {
	return &World{
		ID: id,
		Galaxy: &Galaxy{
			Systems: []*StarSystem{
				{
					ID:   id + "-sys-core",
					Name: "Core",
					Planets: []*Planet{
						{
							ID:        id + "-core-1",
							Name:      "Core Prime",
							Resources: Resources{Ore: 500, Crystal: 300, Credits: 1000},
						},
						{
							ID:        id + "-core-2",
							Name:      "Core Minor",
							Resources: Resources{Ore: 200, Crystal: 150, Credits: 400},
						},
					},
				},
				{
					ID:   id + "-sys-rim",
					Name: "Rim",
					Planets: []*Planet{
						{
							ID:        id + "-rim-1",
							Name:      "Rimward",
							Resources: Resources{Ore: 350, Crystal: 100, Credits: 250},
						},
						{
							ID:        id + "-rim-2",
							Name:      "Farhold",
							Resources: Resources{Ore: 150, Crystal: 250, Credits: 300},
						},
					},
				},
			},
		},
		Diplomacy: []*DiplomacyProposal{},
	}
}
