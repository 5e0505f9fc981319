package aggregate

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/eventstore"
	"github.com/novaris-game/novaris/world"
)

// Registry is the process-wide table of live aggregates, one per session. It
// is constructed once at process start and injected everywhere session access
// is needed. Alongside each aggregate it tracks the bookkeeping the tick loop
// needs: an applied-event counter that triggers snapshotting and the previous
// world used as the delta-comparison baseline.
type Registry struct {
	mu    sync.RWMutex
	store eventstore.Store

	aggregates map[string]*Aggregate
	// eventCounts and snapshotMarks drive the snapshot threshold; baselines
	// hold independent deep copies of each session's last-broadcast world.
	eventCounts   map[string]uint64
	snapshotMarks map[string]uint64
	baselines     map[string]*world.World
}

func NewRegistry(store eventstore.Store) *Registry {
	return &Registry{
		store:         store,
		aggregates:    map[string]*Aggregate{},
		eventCounts:   map[string]uint64{},
		snapshotMarks: map[string]uint64{},
		baselines:     map[string]*world.World{},
	}
}

// GetOrCreate returns the session's aggregate, constructing and hydrating it
// on first access. Hydration loads the latest snapshot, then replays every
// durable envelope after it. If the store is unavailable the aggregate
// degrades to a fresh, un-replayed world rather than failing the caller:
// availability over consistency for session bootstrap.
func (r *Registry) GetOrCreate(ctx context.Context, sessionID string, initial *world.World) *Aggregate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agg, ok := r.aggregates[sessionID]; ok {
		return agg
	}

	agg := New(sessionID, initial)
	r.hydrate(ctx, agg)
	r.aggregates[sessionID] = agg
	r.baselines[sessionID] = agg.World().DeepCopy()
	return agg
}

func (r *Registry) hydrate(ctx context.Context, agg *Aggregate) {
	snap, ok, err := r.store.LatestSnapshot(ctx, agg.sessionID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session", agg.sessionID).
			Msg("snapshot load failed, bootstrapping session with a fresh world")
		return
	}
	if ok {
		agg.LoadFromSnapshot(snap.World, snap.Version)
	}

	// Aging keeps only post-snapshot envelopes, so this replays exactly the
	// tail that the snapshot does not cover.
	envs, err := r.store.Events(ctx, agg.sessionID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session", agg.sessionID).
			Msg("event replay failed, bootstrapping session without history")
		return
	}
	if len(envs) == 0 {
		return
	}
	evs := make([]event.Event, 0, len(envs))
	for _, env := range envs {
		evs = append(evs, env.Event)
	}
	agg.ReplayEvents(evs)
	log.Info().
		Str("session", agg.sessionID).
		Int("events", len(evs)).
		Uint64("version", agg.version).
		Msg("session hydrated from event history")
}

// Get returns the aggregate for the session without creating one.
func (r *Registry) Get(sessionID string) (*Aggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agg, ok := r.aggregates[sessionID]
	return agg, ok
}

// Sessions returns the ids of all live sessions.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.aggregates))
	for id := range r.aggregates {
		ids = append(ids, id)
	}
	return ids
}

// Remove evicts the session's aggregate and all bookkeeping. This is the sole
// destruction path for session state.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.aggregates, sessionID)
	delete(r.eventCounts, sessionID)
	delete(r.snapshotMarks, sessionID)
	delete(r.baselines, sessionID)
}

// IncrEventCount bumps the session's applied-event counter and returns the
// new value. Written only by the tick loop.
func (r *Registry) IncrEventCount(sessionID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eventCounts[sessionID]++
	return r.eventCounts[sessionID]
}

func (r *Registry) EventCount(sessionID string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.eventCounts[sessionID]
}

// SnapshotDue reports whether the session has applied at least `every` events
// since its last snapshot, and if so advances the snapshot mark.
func (r *Registry) SnapshotDue(sessionID string, every uint64) bool {
	if every == 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eventCounts[sessionID]-r.snapshotMarks[sessionID] < every {
		return false
	}
	r.snapshotMarks[sessionID] = r.eventCounts[sessionID]
	return true
}

// Baseline returns the session's previous-world delta baseline.
func (r *Registry) Baseline(sessionID string) (*world.World, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.baselines[sessionID]
	return w, ok
}

// SetBaseline stores an independent deep copy of w as the session's new delta
// baseline, so later mutation of the live world cannot corrupt the
// comparison.
func (r *Registry) SetBaseline(sessionID string, w *world.World) {
	cpy := w.DeepCopy()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baselines[sessionID] = cpy
}
