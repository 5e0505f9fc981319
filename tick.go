package novaris

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/novaris-game/novaris/aggregate"
	"github.com/novaris-game/novaris/delta"
)

// tickTheEngine runs one update cycle behind the single-slot gate. If the
// previous cycle is still running the tick is skipped; the skipped work is
// naturally retried next tick since unconsumed commands stay queued.
func (e *Engine) tickTheEngine(ctx context.Context) {
	if !e.cycleGate.CompareAndSwap(false, true) {
		log.Warn().Uint64("tick", e.tick.Load()).Msg("previous update cycle still running, skipping tick")
		return
	}
	defer e.cycleGate.Store(false)

	currTick := e.tick.Load()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CycleTimeout)
	defer cancel()

	e.doTick(ctx)

	if e.tickDoneChannel != nil {
		e.tickDoneChannel <- currTick
	}
}

// doTick processes every active session once: drain its queue into its
// aggregate, publish each applied event, broadcast deltas, and snapshot when
// the event counter crosses the threshold. Sessions are independent
// partitions, so they are handled by a bounded worker pool, one task per
// session; per-session FIFO ordering is untouched because each session's
// commands are drained by exactly one task.
func (e *Engine) doTick(ctx context.Context) {
	startTime := time.Now()
	sessions := e.registry.Sessions()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.cfg.SessionWorkers)
	for _, sessionID := range sessions {
		sessionID := sessionID
		group.Go(func() error {
			// Session failures are logged inside and isolated; one bad
			// session must not abort the others.
			e.processSession(ctx, sessionID)
			return nil
		})
	}
	_ = group.Wait()

	if ctx.Err() != nil {
		log.Warn().
			Uint64("tick", e.tick.Load()).
			Dur("timeout", e.cfg.CycleTimeout).
			Msg("update cycle exceeded its timeout, remaining work abandoned until next tick")
	}

	e.hub.Flush()
	e.tick.Add(1)

	log.Info().
		Uint64("tick", e.tick.Load()).
		Int("sessions", len(sessions)).
		Dur("duration", time.Since(startTime)).
		Msg("Tick completed")
}

// processSession drains the session's command queue into its aggregate. The
// drain is bounded by the queue depth at entry: commands arriving mid-drain
// wait for the next cycle, a staleness bound of one tick period.
func (e *Engine) processSession(ctx context.Context, sessionID string) {
	agg, ok := e.registry.Get(sessionID)
	if !ok {
		return
	}

	depth := e.queue.Len(sessionID)
	applied := 0
	for i := 0; i < depth; i++ {
		if ctx.Err() != nil {
			log.Warn().
				Str("session", sessionID).
				Int("remaining", depth-i).
				Msg("cycle cancelled mid-drain, leaving remaining commands for next tick")
			break
		}
		ev, ok := e.queue.TryDequeue(sessionID)
		if !ok {
			break
		}
		agg.Apply(ev)
		applied++
		if err := e.store.Publish(ctx, sessionID, ev); err != nil {
			log.Error().
				Err(err).
				Str("session", sessionID).
				Str("event", string(ev.Kind)).
				Uint64("version", agg.Version()).
				Msg("failed to publish event, abandoning session until next tick")
			break
		}
		e.registry.IncrEventCount(sessionID)
	}

	if applied == 0 {
		return
	}

	e.broadcastDeltas(sessionID, agg)

	if e.registry.SnapshotDue(sessionID, e.cfg.SnapshotEvery) {
		e.snapshotSession(ctx, sessionID, agg)
	}
}

func (e *Engine) broadcastDeltas(sessionID string, agg *aggregate.Aggregate) {
	baseline, ok := e.registry.Baseline(sessionID)
	if !ok {
		// Recoverable: establish a fresh baseline now, diffs resume next
		// cycle.
		log.Warn().Str("session", sessionID).Msg("missing delta baseline, re-establishing")
		e.registry.SetBaseline(sessionID, agg.World())
		return
	}

	updates := delta.Compute(baseline, agg.World())
	if len(updates) > 0 {
		if err := e.hub.Broadcast(sessionID, updates); err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("failed to broadcast deltas")
		}
	}
	e.registry.SetBaseline(sessionID, agg.World())
}

func (e *Engine) snapshotSession(ctx context.Context, sessionID string, agg *aggregate.Aggregate) {
	if err := e.store.Snapshot(ctx, sessionID, agg.World(), agg.Version()); err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("failed to write snapshot")
		return
	}
	// The snapshot is the new checkpoint; events behind it are no longer
	// uncommitted.
	agg.TakeUncommitted()
}
