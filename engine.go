// Package novaris is the server-side state engine for a multiplayer strategy
// simulation. It accepts player- and AI-originated commands through a
// per-session intake queue, applies them deterministically to each session's
// world on a recurring tick, persists the resulting history as a durable
// event log with snapshot-driven compaction, and pushes structural deltas to
// each session's subscriber group.
package novaris

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/novaris-game/novaris/aggregate"
	"github.com/novaris-game/novaris/cmdqueue"
	"github.com/novaris-game/novaris/events"
	"github.com/novaris-game/novaris/eventstore"
	"github.com/novaris-game/novaris/stage"
)

const redisDialTimeout = 15 * time.Second

type Engine struct {
	cfg Config

	stage    *stage.Manager
	registry *aggregate.Registry
	queue    *cmdqueue.Queue
	store    eventstore.Store
	hub      *events.Hub

	// tick counts completed cycles; cycleGate is the single-slot gate that
	// keeps an overrunning cycle from overlapping the next one.
	tick            atomic.Uint64
	cycleGate       atomic.Bool
	tickChannel     <-chan time.Time
	tickDoneChannel chan<- uint64
}

// New creates an engine configured from the environment. The redis-backed
// event store is used unless WithStore overrides it.
func New(opts ...Option) (*Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config to start engine")
	}

	e := &Engine{
		cfg:   cfg,
		stage: stage.NewManager(),
		queue: cmdqueue.New(),
		hub:   events.NewHub(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddress,
			Password:    cfg.RedisPassword,
			DB:          0, // use default DB
			DialTimeout: redisDialTimeout,
		})
		e.store = eventstore.NewRedis(client, cfg.Namespace)
	}
	e.registry = aggregate.NewRegistry(e.store)

	if e.tickChannel == nil {
		e.tickChannel = time.Tick(cfg.TickInterval) //nolint:staticcheck // engine lives for the process
	}

	log.Info().
		Str("namespace", cfg.Namespace).
		Dur("tick_interval", cfg.TickInterval).
		Msg("Engine created")
	return e, nil
}

// Config returns the engine's loaded configuration. Wiring code reads it to
// pass engine-level settings, such as the HTTP port, to its collaborators.
func (e *Engine) Config() Config {
	return e.cfg
}

// Registry exposes session aggregates for command producers and the HTTP
// surface.
func (e *Engine) Registry() *aggregate.Registry {
	return e.registry
}

// Queue exposes the command intake queue. All command producers, human and
// AI, are symmetric clients of it.
func (e *Engine) Queue() *cmdqueue.Queue {
	return e.queue
}

// Hub exposes the per-session broadcast hub.
func (e *Engine) Hub() *events.Hub {
	return e.hub
}

// Store exposes the durable event store.
func (e *Engine) Store() eventstore.Store {
	return e.store
}

// CurrentTick returns the number of completed update cycles.
func (e *Engine) CurrentTick() uint64 {
	return e.tick.Load()
}

// IsRunning reports whether the tick loop is live.
func (e *Engine) IsRunning() bool {
	return e.stage.Current() == stage.Running
}

// Start launches the update cycle loop in the background. It may be called
// at most once.
func (e *Engine) Start() error {
	if ok := e.stage.CompareAndSwap(stage.Init, stage.Starting); !ok {
		return eris.New("engine has already been started")
	}
	e.stage.Store(stage.Running)
	e.startTickLoop(context.Background())
	return nil
}

func (e *Engine) startTickLoop(ctx context.Context) {
	log.Info().Msg("Update cycle loop started")
	go func() {
		shuttingDown := e.stage.NotifyOnStage(stage.ShuttingDown)
	loop:
		for {
			select {
			case _, ok := <-e.tickChannel:
				if !ok {
					panic("tick channel has been closed; the update cycle cannot continue")
				}
				e.tickTheEngine(ctx)
			case <-shuttingDown:
				// Run one final drain cycle so commands already enqueued
				// are applied and persisted before the store closes. The
				// tick-done channel is skipped here: its consumer may be
				// gone once shutdown has begun.
				if e.queue.Pending() > 0 {
					drainCtx, cancel := context.WithTimeout(ctx, e.cfg.CycleTimeout)
					e.doTick(drainCtx)
					cancel()
				}
				break loop
			}
		}
		if e.tickDoneChannel != nil {
			close(e.tickDoneChannel)
		}
		e.stage.Store(stage.ShutDown)
	}()
}

// Shutdown stops the tick loop and closes the event store, waiting up to the
// configured grace period for in-flight work before giving up.
func (e *Engine) Shutdown() error {
	log.Info().Msg("Shutting down engine")
	if ok := e.stage.CompareAndSwap(stage.Running, stage.ShuttingDown); !ok {
		select {
		case <-e.stage.NotifyOnStage(stage.ShuttingDown):
			// Another goroutine started the shutdown; wait for it to finish.
			<-e.stage.NotifyOnStage(stage.ShutDown)
			return nil
		default:
		}
		return eris.New("shutdown attempted before the engine was started")
	}

	// Block until the tick loop has run its final drain cycle.
	<-e.stage.NotifyOnStage(stage.ShutDown)

	e.hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownGrace)
	defer cancel()
	if err := e.store.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Event store did not drain cleanly")
		return err
	}

	log.Info().Msg("Engine shut down")
	return nil
}
