// Package aggregate owns the authoritative in-memory state of each session: a
// world, a monotonically increasing version counter, and the events applied
// since the last persisted checkpoint. Apply is the single mutation entry
// point; only the tick loop calls it.
package aggregate

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/world"
)

type Aggregate struct {
	sessionID   string
	world       *world.World
	version     uint64
	uncommitted []event.Event
	logger      zerolog.Logger
}

func New(sessionID string, w *world.World) *Aggregate {
	if w == nil {
		w = world.NewDefaultWorld(sessionID)
	}
	return &Aggregate{
		sessionID: sessionID,
		world:     w,
		logger:    log.With().Str("session", sessionID).Logger(),
	}
}

// Apply mutates the world according to the event's semantics, appends the
// event to the uncommitted buffer, and increments the version counter. If the
// event references an entity that no longer exists, the mutation is skipped
// with a warning but the event still counts as applied, keeping version and
// event-log bookkeeping consistent. Semantic validation belongs to command
// producers, not here.
func (a *Aggregate) Apply(ev event.Event) {
	a.mutate(ev)
	a.uncommitted = append(a.uncommitted, ev)
	a.version++
}

// ReplayEvents applies a sequence of already-durable events in order. The
// uncommitted buffer is left untouched since history is already persisted.
func (a *Aggregate) ReplayEvents(evs []event.Event) {
	for _, ev := range evs {
		a.mutate(ev)
		a.version++
	}
}

// LoadFromSnapshot resets the aggregate to a snapshot, discarding any
// uncommitted state. Used only at hydration time, never mid-stream.
func (a *Aggregate) LoadFromSnapshot(w *world.World, version uint64) {
	a.world = w
	a.version = version
	a.uncommitted = nil
}

// World returns the live world. Callers outside the tick loop must treat it
// as concurrently mutating and deep-copy before holding references.
func (a *Aggregate) World() *world.World {
	return a.world
}

func (a *Aggregate) Version() uint64 {
	return a.version
}

func (a *Aggregate) SessionID() string {
	return a.sessionID
}

// TakeUncommitted drains and returns the buffer of events applied since the
// last checkpoint.
func (a *Aggregate) TakeUncommitted() []event.Event {
	evs := a.uncommitted
	a.uncommitted = nil
	return evs
}
