// Package eventstore persists every applied game event as a durable envelope,
// replays them in order per session, and compacts history behind snapshots.
// Each persisted envelope is additionally fanned out to subscribers.
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/world"
)

var (
	// ErrClosed is returned by Publish after the store has been shut down.
	ErrClosed = errors.New("event store is closed")
)

// Handler is a subscriber callback. Handlers are invoked once per persisted
// envelope, in registration order, sequentially, from the store's worker
// goroutine. Notification order follows global store-entry order, not
// per-session order; a handler that needs per-session ordering must filter
// and re-sequence by SessionID itself.
type Handler func(env event.Envelope)

// SnapshotRecord is a full serialized world keyed by session and wall-clock
// time. It doubles as the replay fast path and the cut line for event aging.
type SnapshotRecord struct {
	SessionID string       `json:"session_id"`
	World     *world.World `json:"world"`
	Version   uint64       `json:"version"`
	TakenAt   time.Time    `json:"taken_at"`
}

// Store is the durable event log for all sessions.
type Store interface {
	// Publish queues the event for durable persistence and subscriber
	// fan-out. It returns once the envelope is queued, not once it is
	// persisted: "applied" and "durable" are two distinct moments, and a
	// process crash between them loses only queued-but-unpersisted events,
	// never persisted ones. Envelopes for the same session are persisted in
	// the order Publish observed them.
	Publish(ctx context.Context, sessionID string, ev event.Event) error

	// Subscribe registers a handler for the lifetime of the store. There is
	// no unsubscribe.
	Subscribe(h Handler)

	// Events returns all envelopes for the session ordered by timestamp
	// ascending. This is the replay source.
	Events(ctx context.Context, sessionID string) ([]event.Envelope, error)

	// Snapshot writes a full-state snapshot tagged with the current
	// wall-clock time, then deletes every envelope for the session that was
	// published before Snapshot was called. Envelopes published after the
	// call are never aged by it.
	Snapshot(ctx context.Context, sessionID string, w *world.World, version uint64) error

	// LatestSnapshot returns the most recent snapshot for the session, if
	// one exists.
	LatestSnapshot(ctx context.Context, sessionID string) (SnapshotRecord, bool, error)

	// Close stops accepting publishes and drains already-queued envelopes
	// best-effort before stopping the worker.
	Close(ctx context.Context) error
}
