// Package event defines the game events that drive all state transitions, and
// the durable envelope that wraps them. Events are immutable facts: they carry
// the acting player and every parameter needed to re-derive the transition
// deterministically during replay.
package event

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/novaris-game/novaris/codec"
)

// Kind identifies the type of a game event.
type Kind string

const (
	// KindFleetMoved records a fleet relocating between planets.
	KindFleetMoved Kind = "fleet.moved"
	// KindFleetAttacked records one fleet engaging another.
	KindFleetAttacked Kind = "fleet.attacked"
	// KindFleetDisbanded records a fleet being dissolved.
	KindFleetDisbanded Kind = "fleet.disbanded"
	// KindStructureBuilt records a structure being erected on a planet.
	KindStructureBuilt Kind = "structure.built"
	// KindPlanetColonized records a planet changing hands peacefully.
	KindPlanetColonized Kind = "planet.colonized"
	// KindDiplomacyProposed records a standing offer between two players.
	KindDiplomacyProposed Kind = "diplomacy.proposed"
	// KindDiplomacyAnswered records a proposal being accepted or rejected.
	KindDiplomacyAnswered Kind = "diplomacy.answered"
)

// Event is one intended state transition. The payload is kept as raw bytes so
// envelopes round-trip through storage without the store knowing every kind.
type Event struct {
	Kind     Kind            `json:"kind"`
	PlayerID string          `json:"player_id"`
	Payload  json.RawMessage `json:"payload"`
}

// New builds an event of the given kind, encoding the payload.
func New(kind Kind, playerID string, payload any) (Event, error) {
	bz, err := codec.Encode(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: kind, PlayerID: playerID, Payload: bz}, nil
}

// DecodePayload decodes the event's payload into the given payload type.
func DecodePayload[T any](ev Event) (T, error) {
	return codec.Decode[T](ev.Payload)
}

// Envelope is the unit of durability and ordering: a session id, an event, and
// the wall-clock time the event entered the store. Envelopes are created at
// publish time, never mutated, and deleted en masse when a snapshot ages out
// the history behind it.
type Envelope struct {
	SessionID string    `json:"session_id"`
	Event     Event     `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	// Seq breaks ties between envelopes that enter the store in the same
	// nanosecond. It is assigned by the store and is monotonic per process.
	Seq uint64 `json:"seq"`
}
