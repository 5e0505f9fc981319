package novaris

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// Config holds the engine configuration. Values are read from environment
// variables with the given defaults.
type Config struct {
	// Address of the redis instance backing the event store.
	RedisAddress string `env:"NOVARIS_REDIS_ADDRESS" envDefault:"localhost:6379"`

	// Password for the redis instance, empty for none.
	RedisPassword string `env:"NOVARIS_REDIS_PASSWORD"`

	// Namespace prefixes every redis key so multiple deployments can share
	// an instance.
	Namespace string `env:"NOVARIS_NAMESPACE" envDefault:"novaris"`

	// Port the HTTP server listens on.
	Port string `env:"NOVARIS_PORT" envDefault:"4040"`

	// TickInterval is the period of the update cycle.
	TickInterval time.Duration `env:"NOVARIS_TICK_INTERVAL" envDefault:"1s"`

	// CycleTimeout bounds one full update cycle; a cycle that exceeds it is
	// abandoned and its remaining work retried next tick.
	CycleTimeout time.Duration `env:"NOVARIS_CYCLE_TIMEOUT" envDefault:"5s"`

	// SnapshotEvery is the number of applied events per session between
	// snapshots.
	SnapshotEvery uint64 `env:"NOVARIS_SNAPSHOT_EVERY" envDefault:"50"`

	// SessionWorkers caps how many sessions are processed concurrently
	// within one cycle.
	SessionWorkers int `env:"NOVARIS_SESSION_WORKERS" envDefault:"4"`

	// ShutdownGrace bounds how long shutdown waits for in-flight work.
	ShutdownGrace time.Duration `env:"NOVARIS_SHUTDOWN_GRACE" envDefault:"5s"`
}

// loadConfig loads the engine configuration from environment variables.
func loadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse engine config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate engine config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Namespace == "" {
		return eris.New("namespace cannot be empty")
	}
	if cfg.TickInterval <= 0 {
		return eris.New("tick interval must be positive")
	}
	if cfg.CycleTimeout <= 0 {
		return eris.New("cycle timeout must be positive")
	}
	if cfg.SnapshotEvery == 0 {
		return eris.New("snapshot threshold cannot be 0")
	}
	if cfg.SessionWorkers <= 0 {
		return eris.New("session workers must be positive")
	}
	return nil
}
