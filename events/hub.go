// Package events fans tick deltas out to connected clients. Each session has
// its own subscriber group, named by the session id; payloads broadcast for a
// session are delivered only to that group. Clients bootstrap full state
// out-of-band and receive deltas from their subscription point forward.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/novaris-game/novaris/codec"
)

const (
	writeDeadline        = 5 * time.Second
	shutdownPollInterval = 200 * time.Millisecond
)

// registration pairs a connection with the session group it joins or leaves,
// plus a channel to signal the caller once the hub loop has acted on it.
type registration struct {
	sessionID string
	conn      *websocket.Conn
	done      chan bool
}

type groupPayload struct {
	sessionID string
	data      []byte
}

// Hub runs a single goroutine that owns all connection state; every public
// method communicates with it over channels.
type Hub struct {
	groups map[string]map[*websocket.Conn]bool
	queued map[string][][]byte

	broadcast          chan groupPayload
	register           chan registration
	unregister         chan registration
	flush              chan bool
	shutdown           chan bool
	getQueueLength     chan chan int
	getConnectionCount chan chan int

	isRunning atomic.Bool
}

func NewHub() *Hub {
	h := &Hub{
		groups:             map[string]map[*websocket.Conn]bool{},
		queued:             map[string][][]byte{},
		broadcast:          make(chan groupPayload),
		register:           make(chan registration),
		unregister:         make(chan registration),
		flush:              make(chan bool),
		shutdown:           make(chan bool),
		getQueueLength:     make(chan chan int),
		getConnectionCount: make(chan chan int),
	}
	go h.run()
	return h
}

// Broadcast queues a payload for the session's subscriber group. The payload
// is written out on the next Flush.
func (h *Hub) Broadcast(sessionID string, payload any) error {
	data, err := codec.Encode(payload)
	if err != nil {
		return eris.Wrap(err, "broadcast payloads must be json serializable")
	}
	h.broadcast <- groupPayload{sessionID: sessionID, data: data}
	return nil
}

// Flush writes all queued payloads to their session groups.
func (h *Hub) Flush() {
	h.flush <- true
}

// Register adds the connection to the session's group, blocking until the hub
// loop has done so.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	done := make(chan bool)
	h.register <- registration{sessionID: sessionID, conn: conn, done: done}
	<-done
}

// Unregister removes the connection from the session's group and closes it.
func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	done := make(chan bool)
	h.unregister <- registration{sessionID: sessionID, conn: conn, done: done}
	<-done
}

// QueueLength returns the number of queued, not-yet-flushed payloads.
func (h *Hub) QueueLength() int {
	lengthChan := make(chan int)
	h.getQueueLength <- lengthChan
	return <-lengthChan
}

// ConnectionCount returns the number of registered connections across all
// groups.
func (h *Hub) ConnectionCount() int {
	countChan := make(chan int)
	h.getConnectionCount <- countChan
	return <-countChan
}

// Shutdown closes every connection and stops the hub loop, blocking until the
// loop has fully exited.
func (h *Hub) Shutdown() {
	h.shutdown <- true
	for h.isRunning.Load() {
		time.Sleep(shutdownPollInterval)
	}
}

func (h *Hub) run() {
	if h.isRunning.Load() {
		return
	}
	h.isRunning.Store(true)

	dropConnection := func(sessionID string, conn *websocket.Conn) {
		group, ok := h.groups[sessionID]
		if !ok {
			return
		}
		if _, ok := group[conn]; ok {
			delete(group, conn)
			if len(group) == 0 {
				delete(h.groups, sessionID)
			}
			if err := conn.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close websocket connection")
			}
		}
	}

Loop:
	for h.isRunning.Load() {
		select {
		case countChan := <-h.getConnectionCount:
			total := 0
			for _, group := range h.groups {
				total += len(group)
			}
			countChan <- total
		case lengthChan := <-h.getQueueLength:
			total := 0
			for _, payloads := range h.queued {
				total += len(payloads)
			}
			lengthChan <- total
		case reg := <-h.register:
			group, ok := h.groups[reg.sessionID]
			if !ok {
				group = map[*websocket.Conn]bool{}
				h.groups[reg.sessionID] = group
			}
			group[reg.conn] = true
			reg.done <- true
		case reg := <-h.unregister:
			dropConnection(reg.sessionID, reg.conn)
			reg.done <- true
		case payload := <-h.broadcast:
			h.queued[payload.sessionID] = append(h.queued[payload.sessionID], payload.data)
		case <-h.flush:
			h.flushQueued()
		case <-h.shutdown:
			go func() {
				for range h.shutdown { //nolint:revive // drains the channel until closed
				}
			}()
			for sessionID, group := range h.groups {
				for conn := range group {
					dropConnection(sessionID, conn)
				}
			}
			break Loop
		}
	}
	h.isRunning.Store(false)
}

// flushQueued writes each session's queued payloads to that session's group.
// Writes to distinct connections happen concurrently; a connection that fails
// a write is unregistered.
func (h *Hub) flushQueued() {
	var waitGroup sync.WaitGroup
	for sessionID, payloads := range h.queued {
		group, ok := h.groups[sessionID]
		if !ok || len(group) == 0 {
			continue
		}
		for conn := range group {
			waitGroup.Add(1)
			sessionID, payloads, conn := sessionID, payloads, conn
			go func() {
				defer waitGroup.Done()
				for _, data := range payloads {
					if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
						go h.Unregister(sessionID, conn)
						log.Error().Err(err).Str("session", sessionID).
							Msg("websocket write deadline failed, unregistering connection")
						return
					}
					if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
						go h.Unregister(sessionID, conn)
						log.Error().Err(err).Str("session", sessionID).
							Msg("websocket write failed, unregistering connection")
						return
					}
				}
			}()
		}
	}
	waitGroup.Wait()
	for sessionID := range h.queued {
		delete(h.queued, sessionID)
	}
}

// HandleConnection registers the connection with the session's group and
// blocks reading until the client disconnects. Intended to be called from a
// websocket route handler.
func (h *Hub) HandleConnection(sessionID string, conn *websocket.Conn) {
	h.Register(sessionID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug().Err(err).Str("session", sessionID).Msg("websocket read ended")
			break
		}
	}
	h.Unregister(sessionID, conn)
}
