// Package testutils provides engine and store constructors for unit tests.
// Relevant resources are cleaned up automatically at the end of each test.
package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"

	novaris "github.com/novaris-game/novaris"
	"github.com/novaris-game/novaris/eventstore"
)

// NewTestStore creates a redis event store backed by an in-process miniredis
// instance.
func NewTestStore(t testing.TB) *eventstore.Redis {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	store := eventstore.NewRedis(client, "test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(ctx)
	})
	return store
}

// NewTestEngine creates an engine backed by miniredis whose ticks are driven
// manually: call the returned doTick function to run exactly one update
// cycle and block until it completes.
func NewTestEngine(t testing.TB, opts ...novaris.Option) (*novaris.Engine, func()) {
	s := miniredis.RunT(t)
	t.Setenv("NOVARIS_REDIS_ADDRESS", s.Addr())

	tickStart := make(chan time.Time)
	tickDone := make(chan uint64)
	opts = append(opts,
		novaris.WithTickChannel(tickStart),
		novaris.WithTickDoneChannel(tickDone),
	)

	eng, err := novaris.New(opts...)
	assert.NilError(t, err, "unable to initialize test engine")
	assert.NilError(t, eng.Start())
	t.Cleanup(func() {
		_ = eng.Shutdown()
	})

	doTick := func() {
		tickStart <- time.Now()
		<-tickDone
	}
	return eng, doTick
}
