package codec_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/novaris-game/novaris/codec"
	"github.com/novaris-game/novaris/event"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := event.FleetMovedPayload{FleetID: "f1", ToPlanetID: "core-2"}

	raw, err := codec.Encode(payload)
	assert.NilError(t, err)

	got, err := codec.Decode[event.FleetMovedPayload](raw)
	assert.NilError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecodeMalformedBytes(t *testing.T) {
	_, err := codec.Decode[event.FleetMovedPayload]([]byte("{not json"))
	assert.ErrorContains(t, err, "failed to decode")
}
