package aggregate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/novaris-game/novaris/aggregate"
	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/eventstore"
	"github.com/novaris-game/novaris/testutils"
	"github.com/novaris-game/novaris/world"
)

func publishAndWait(t *testing.T, store eventstore.Store, sessionID string, evs ...event.Event) {
	t.Helper()
	ctx := context.Background()
	before, err := store.Events(ctx, sessionID)
	assert.NilError(t, err)
	for _, ev := range evs {
		assert.NilError(t, store.Publish(ctx, sessionID, ev))
	}
	// Persistence is asynchronous; poll until every envelope is readable.
	require.Eventually(t, func() bool {
		envs, err := store.Events(ctx, sessionID)
		assert.NilError(t, err)
		return len(envs) >= len(before)+len(evs)
	}, 5*time.Second, 5*time.Millisecond)
}

func TestGetOrCreateReturnsSameAggregate(t *testing.T) {
	store := testutils.NewTestStore(t)
	reg := aggregate.NewRegistry(store)
	ctx := context.Background()

	agg := reg.GetOrCreate(ctx, "s1", nil)
	again := reg.GetOrCreate(ctx, "s1", nil)
	assert.Check(t, agg == again)

	got, ok := reg.Get("s1")
	assert.Check(t, ok)
	assert.Check(t, got == agg)

	_, ok = reg.Get("s2")
	assert.Check(t, !ok)
}

func TestHydrationReplaysHistory(t *testing.T) {
	store := testutils.NewTestStore(t)
	ctx := context.Background()

	ev, err := event.New(event.KindPlanetColonized, "p1", event.PlanetColonizedPayload{PlanetID: "s1-core-1"})
	assert.NilError(t, err)
	publishAndWait(t, store, "s1", ev)

	reg := aggregate.NewRegistry(store)
	agg := reg.GetOrCreate(ctx, "s1", nil)

	assert.Equal(t, uint64(1), agg.Version())
	planet, _ := agg.World().Galaxy.Planet("s1-core-1")
	assert.Equal(t, "p1", planet.OwnerID)
}

func TestHydrationFromSnapshotPlusTail(t *testing.T) {
	store := testutils.NewTestStore(t)
	ctx := context.Background()

	// Build history by hand: colonize, snapshot at version 1, then one more
	// event after the snapshot.
	base := aggregate.New("s1", nil)
	colonize, err := event.New(event.KindPlanetColonized, "p1", event.PlanetColonizedPayload{PlanetID: "s1-core-1"})
	assert.NilError(t, err)
	base.Apply(colonize)
	publishAndWait(t, store, "s1", colonize)
	assert.NilError(t, store.Snapshot(ctx, "s1", base.World(), base.Version()))

	build, err := event.New(event.KindStructureBuilt, "p1", event.StructureBuiltPayload{
		PlanetID: "s1-core-1", StructureID: "b1", Kind: world.StructureMine,
	})
	assert.NilError(t, err)
	base.Apply(build)
	publishAndWait(t, store, "s1", build)

	reg := aggregate.NewRegistry(store)
	hydrated := reg.GetOrCreate(ctx, "s1", nil)

	assert.Equal(t, base.Version(), hydrated.Version())
	assert.DeepEqual(t, base.World(), hydrated.World())
}

func TestSnapshotDueAdvancesMark(t *testing.T) {
	store := testutils.NewTestStore(t)
	reg := aggregate.NewRegistry(store)
	reg.GetOrCreate(context.Background(), "s1", nil)

	for i := 0; i < 4; i++ {
		reg.IncrEventCount("s1")
	}
	assert.Check(t, !reg.SnapshotDue("s1", 5))

	reg.IncrEventCount("s1")
	assert.Check(t, reg.SnapshotDue("s1", 5))
	// The mark advanced, so another snapshot is not due until 5 more events.
	assert.Check(t, !reg.SnapshotDue("s1", 5))

	assert.Check(t, !reg.SnapshotDue("s1", 0))
}

func TestBaselineIsIndependentCopy(t *testing.T) {
	store := testutils.NewTestStore(t)
	reg := aggregate.NewRegistry(store)
	agg := reg.GetOrCreate(context.Background(), "s1", nil)

	baseline, ok := reg.Baseline("s1")
	assert.Check(t, ok)

	planet, _ := agg.World().Galaxy.Planet("s1-core-1")
	planet.OwnerID = "p1"

	basePlanet, _ := baseline.Galaxy.Planet("s1-core-1")
	assert.Equal(t, "", basePlanet.OwnerID)

	reg.SetBaseline("s1", agg.World())
	baseline, _ = reg.Baseline("s1")
	planet.OwnerID = "p2"
	basePlanet, _ = baseline.Galaxy.Planet("s1-core-1")
	assert.Equal(t, "p1", basePlanet.OwnerID)
}

func TestRemoveEvictsAllBookkeeping(t *testing.T) {
	store := testutils.NewTestStore(t)
	reg := aggregate.NewRegistry(store)
	reg.GetOrCreate(context.Background(), "s1", nil)
	reg.IncrEventCount("s1")

	reg.Remove("s1")

	_, ok := reg.Get("s1")
	assert.Check(t, !ok)
	_, ok = reg.Baseline("s1")
	assert.Check(t, !ok)
	assert.Equal(t, uint64(0), reg.EventCount("s1"))
	assert.Equal(t, 0, len(reg.Sessions()))
}
