// Package cmdqueue buffers incoming commands per session before the tick loop
// applies them. Multiple producers enqueue concurrently; per-session FIFO
// order is preserved on dequeue. No ordering guarantee exists across sessions
// and no backpressure is applied at this layer.
package cmdqueue

import (
	"sync"

	"github.com/novaris-game/novaris/event"
)

type Queue struct {
	mu       sync.Mutex
	sessions map[string][]event.Event
	pending  int
}

func New() *Queue {
	return &Queue{
		sessions: map[string][]event.Event{},
	}
}

// Enqueue appends the command to the session's queue. It never blocks the
// caller. Queues are created lazily on first touch.
func (q *Queue) Enqueue(sessionID string, ev event.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sessions[sessionID] = append(q.sessions[sessionID], ev)
	q.pending++
}

// TryDequeue removes and returns the oldest pending command for the session,
// or reports empty.
func (q *Queue) TryDequeue(sessionID string) (event.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.sessions[sessionID]
	if len(pending) == 0 {
		return event.Event{}, false
	}
	ev := pending[0]
	q.sessions[sessionID] = pending[1:]
	q.pending--
	return ev, true
}

// Len returns the number of commands currently queued for the session.
func (q *Queue) Len(sessionID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.sessions[sessionID])
}

// Pending returns the total number of queued commands across all sessions.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Remove drops the session's queue and any commands still in it. Called when
// the session is evicted from the registry.
func (q *Queue) Remove(sessionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending -= len(q.sessions[sessionID])
	delete(q.sessions, sessionID)
}
