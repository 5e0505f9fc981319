package novaris

import (
	"time"

	"github.com/novaris-game/novaris/eventstore"
)

// Option configures an Engine during construction.
type Option func(*Engine)

// WithTickChannel sets the channel whose messages drive update cycles. When
// this option is unset a channel ticking once per the configured interval is
// used. Tests pass their own channel to tick on demand:
//
//	tickStart := make(chan time.Time)
//	eng, _ := novaris.New(novaris.WithTickChannel(tickStart))
//	tickStart <- time.Now() // triggers one cycle
func WithTickChannel(ch <-chan time.Time) Option {
	return func(e *Engine) {
		e.tickChannel = ch
	}
}

// WithTickDoneChannel sets a channel that receives the cycle number each time
// a cycle completes. Tests use this to block until a tick has been fully
// processed.
func WithTickDoneChannel(ch chan<- uint64) Option {
	return func(e *Engine) {
		e.tickDoneChannel = ch
	}
}

// WithStore replaces the redis-backed event store.
func WithStore(store eventstore.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}
