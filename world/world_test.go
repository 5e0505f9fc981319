package world_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/novaris-game/novaris/world"
)

func TestDefaultWorldIsDeterministic(t *testing.T) {
	w1 := world.NewDefaultWorld("s1")
	w2 := world.NewDefaultWorld("s1")
	assert.DeepEqual(t, w1, w2)
	assert.Equal(t, 2, len(w1.Galaxy.Systems))
}

func TestLookupsByIdentity(t *testing.T) {
	w := world.NewDefaultWorld("s1")

	sys, ok := w.Galaxy.System("s1-sys-core")
	assert.Check(t, ok)
	assert.Equal(t, "Core", sys.Name)

	planet, ok := w.Galaxy.Planet("s1-rim-2")
	assert.Check(t, ok)
	assert.Equal(t, "Farhold", planet.Name)

	_, ok = w.Galaxy.Planet("nope")
	assert.Check(t, !ok)

	planet.Fleets = append(planet.Fleets, &world.Fleet{ID: "f1", OwnerID: "p1", Ships: 3})
	at, fleet, ok := w.Galaxy.Fleet("f1")
	assert.Check(t, ok)
	assert.Equal(t, planet.ID, at.ID)
	assert.Equal(t, 3, fleet.Ships)
}

func TestRemoveFleet(t *testing.T) {
	w := world.NewDefaultWorld("s1")
	planet, _ := w.Galaxy.Planet("s1-core-1")
	planet.Fleets = append(planet.Fleets,
		&world.Fleet{ID: "f1", Ships: 1},
		&world.Fleet{ID: "f2", Ships: 2},
	)

	assert.Check(t, planet.RemoveFleet("f1"))
	assert.Equal(t, 1, len(planet.Fleets))
	assert.Equal(t, "f2", planet.Fleets[0].ID)
	assert.Check(t, !planet.RemoveFleet("f1"))
}

func TestDeepCopyIsIndependent(t *testing.T) {
	w := world.NewDefaultWorld("s1")
	planet, _ := w.Galaxy.Planet("s1-core-1")
	planet.Fleets = append(planet.Fleets, &world.Fleet{ID: "f1", OwnerID: "p1", Ships: 5})
	w.Diplomacy = append(w.Diplomacy, &world.DiplomacyProposal{ID: "d1", Status: world.ProposalPending})

	cpy := w.DeepCopy()
	assert.DeepEqual(t, w, cpy)

	// Mutating the original must not be observable through the copy.
	planet.OwnerID = "p2"
	planet.Resources.Ore = 0
	planet.Fleets[0].Ships = 1
	w.Diplomacy[0].Status = world.ProposalAccepted

	cpyPlanet, _ := cpy.Galaxy.Planet("s1-core-1")
	assert.Equal(t, "", cpyPlanet.OwnerID)
	assert.Equal(t, 500, cpyPlanet.Resources.Ore)
	assert.Equal(t, 5, cpyPlanet.Fleets[0].Ships)
	assert.Equal(t, world.ProposalPending, cpy.Diplomacy[0].Status)
}

func TestResourcesSubClampsAtZero(t *testing.T) {
	r := world.Resources{Ore: 10, Crystal: 5, Credits: 100}
	r.Sub(world.Resources{Ore: 20, Crystal: 5, Credits: 30})
	assert.Equal(t, 0, r.Ore)
	assert.Equal(t, 0, r.Crystal)
	assert.Equal(t, 70, r.Credits)

	assert.Check(t, !r.Covers(world.Resources{Credits: 71}))
	assert.Check(t, r.Covers(world.Resources{Credits: 70}))
}
