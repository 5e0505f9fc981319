package novaris

import (
	"context"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/eventstore"
	"github.com/novaris-game/novaris/world"
)

// slowPublishStore blocks inside Publish until released, holding an update
// cycle open so a second cycle can be attempted against it.
type slowPublishStore struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newSlowPublishStore() *slowPublishStore {
	return &slowPublishStore{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *slowPublishStore) Publish(ctx context.Context, _ string, _ event.Event) error {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *slowPublishStore) Subscribe(eventstore.Handler) {}

func (s *slowPublishStore) Events(context.Context, string) ([]event.Envelope, error) {
	return nil, nil
}

func (s *slowPublishStore) Snapshot(context.Context, string, *world.World, uint64) error {
	return nil
}

func (s *slowPublishStore) LatestSnapshot(context.Context, string) (eventstore.SnapshotRecord, bool, error) {
	return eventstore.SnapshotRecord{}, false, nil
}

func (s *slowPublishStore) Close(context.Context) error { return nil }

func TestOverlappingCycleIsSkipped(t *testing.T) {
	store := newSlowPublishStore()
	eng, err := New(WithStore(store))
	assert.NilError(t, err)
	t.Cleanup(eng.hub.Shutdown)

	ctx := context.Background()
	eng.registry.GetOrCreate(ctx, "s1", nil)
	ev, err := event.New(event.KindPlanetColonized, "p1", event.PlanetColonizedPayload{PlanetID: "s1-rim-1"})
	assert.NilError(t, err)
	eng.queue.Enqueue("s1", ev)

	firstDone := make(chan struct{})
	go func() {
		eng.tickTheEngine(ctx)
		close(firstDone)
	}()
	<-store.entered

	// The first cycle is parked inside Publish; a tick arriving now must be
	// dropped, not run concurrently.
	eng.tickTheEngine(ctx)
	assert.Equal(t, uint64(0), eng.CurrentTick())

	close(store.release)
	select {
	case <-firstDone:
	case <-time.After(5 * time.Second):
		t.Fatal("first cycle did not finish after release")
	}
	assert.Equal(t, uint64(1), eng.CurrentTick())

	// With the gate free again the next tick runs normally.
	eng.tickTheEngine(ctx)
	assert.Equal(t, uint64(2), eng.CurrentTick())
}
