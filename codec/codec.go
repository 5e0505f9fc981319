// Package codec is the single serialization point for everything the engine
// persists or puts on the wire: event payloads, envelopes, snapshots, and
// broadcast deltas.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Decode deserializes raw bytes into a value of type T. Store reads and
// payload extraction both funnel through here so an envelope written by one
// engine version decodes the same way everywhere.
func Decode[T any](raw []byte) (T, error) {
	var val T
	if err := json.Unmarshal(raw, &val); err != nil {
		return val, eris.Wrapf(err, "failed to decode %T", val)
	}
	return val, nil
}

// Encode serializes a value for persistence or broadcast.
func Encode(val any) ([]byte, error) {
	raw, err := json.Marshal(val)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode %T", val)
	}
	return raw, nil
}
