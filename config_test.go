package novaris

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	assert.NilError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, "novaris", cfg.Namespace)
	assert.Equal(t, "4040", cfg.Port)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.CycleTimeout)
	assert.Equal(t, uint64(50), cfg.SnapshotEvery)
	assert.Equal(t, 4, cfg.SessionWorkers)
	assert.Equal(t, 5*time.Second, cfg.ShutdownGrace)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("NOVARIS_REDIS_ADDRESS", "redis.internal:6380")
	t.Setenv("NOVARIS_NAMESPACE", "staging")
	t.Setenv("NOVARIS_TICK_INTERVAL", "250ms")
	t.Setenv("NOVARIS_SNAPSHOT_EVERY", "10")

	cfg, err := loadConfig()
	assert.NilError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddress)
	assert.Equal(t, "staging", cfg.Namespace)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, uint64(10), cfg.SnapshotEvery)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero tick interval", key: "NOVARIS_TICK_INTERVAL", value: "0s"},
		{name: "negative cycle timeout", key: "NOVARIS_CYCLE_TIMEOUT", value: "-1s"},
		{name: "zero snapshot threshold", key: "NOVARIS_SNAPSHOT_EVERY", value: "0"},
		{name: "zero session workers", key: "NOVARIS_SESSION_WORKERS", value: "0"},
		{name: "negative session workers", key: "NOVARIS_SESSION_WORKERS", value: "-1"},
		{name: "unparsable duration", key: "NOVARIS_TICK_INTERVAL", value: "soon"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := loadConfig()
			assert.Check(t, err != nil)
		})
	}
}
