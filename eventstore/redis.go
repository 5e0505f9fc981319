package eventstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/novaris-game/novaris/codec"
	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/world"
)

// intakeSize bounds the publish queue. Publishers block once the worker falls
// this far behind.
const intakeSize = 1024

var _ Store = (*Redis)(nil)

// Redis stores envelopes in a per-session sorted set scored by the envelope's
// timestamp in nanoseconds, and snapshots in a per-session string key.
// Internally it runs a single consuming worker: publishers enqueue
// concurrently, the worker persists one envelope at a time and then invokes
// every subscriber, so notification order matches global store-entry order.
// job is one unit of worker input: either an envelope to persist and fan
// out, or a snapshot request. Snapshots ride the same queue so aging only
// ever runs after every envelope published before it has been persisted.
type job struct {
	env  event.Envelope
	snap *snapshotJob
}

type snapshotJob struct {
	rec  SnapshotRecord
	done chan error
}

type Redis struct {
	namespace string
	client    redis.Cmdable

	intake     chan job
	workerDone chan struct{}

	subMu sync.RWMutex
	subs  []Handler

	// closeMu serializes intake sends against Close so a publish racing a
	// close can never send on the closed channel.
	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once

	seq atomic.Uint64
}

func NewRedis(client redis.Cmdable, namespace string) *Redis {
	r := &Redis{
		namespace:  namespace,
		client:     client,
		intake:     make(chan job, intakeSize),
		workerDone: make(chan struct{}),
	}
	go r.runWorker()
	return r
}

func (r *Redis) eventsKey(sessionID string) string {
	return r.namespace + ":events:" + sessionID
}

func (r *Redis) snapshotKey(sessionID string) string {
	return r.namespace + ":snapshot:" + sessionID
}

func (r *Redis) Publish(ctx context.Context, sessionID string, ev event.Event) error {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return eris.Wrap(ErrClosed, "publish")
	}
	env := event.Envelope{
		SessionID: sessionID,
		Event:     ev,
		Timestamp: time.Now(),
		Seq:       r.seq.Add(1),
	}
	select {
	case r.intake <- job{env: env}:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "publish abandoned while intake queue was full")
	}
}

func (r *Redis) Subscribe(h Handler) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subs = append(r.subs, h)
}

// runWorker is the store's single consumer. Ranging over the intake channel
// gives a best-effort drain on shutdown: Close closes the channel and the
// worker keeps persisting already-queued envelopes until it is empty.
func (r *Redis) runWorker() {
	defer close(r.workerDone)
	for j := range r.intake {
		if j.snap != nil {
			j.snap.done <- r.writeSnapshot(j.snap.rec)
			continue
		}
		if err := r.persist(j.env); err != nil {
			log.Error().
				Err(err).
				Str("session", j.env.SessionID).
				Str("event", string(j.env.Event.Kind)).
				Msg("failed to persist envelope, skipping fan-out")
			continue
		}
		r.notify(j.env)
	}
}

func (r *Redis) persist(env event.Envelope) error {
	bz, err := codec.Encode(env)
	if err != nil {
		return err
	}
	ctx := context.Background()
	err = r.client.ZAdd(ctx, r.eventsKey(env.SessionID), redis.Z{
		// Nanosecond timestamps overflow a float64 mantissa, so nearby
		// envelopes can share a score. Read-side ordering falls back on
		// the envelope's Seq for ties.
		Score:  float64(env.Timestamp.UnixNano()),
		Member: bz,
	}).Err()
	return eris.Wrap(err, "")
}

func (r *Redis) notify(env event.Envelope) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	for _, h := range r.subs {
		h(env)
	}
}

func (r *Redis) Events(ctx context.Context, sessionID string) ([]event.Envelope, error) {
	members, err := r.client.ZRangeByScore(ctx, r.eventsKey(sessionID), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read event history")
	}
	envs := make([]event.Envelope, 0, len(members))
	for _, member := range members {
		env, err := codec.Decode[event.Envelope]([]byte(member))
		if err != nil {
			return nil, eris.Wrap(err, "corrupt envelope in event history")
		}
		envs = append(envs, env)
	}
	sort.SliceStable(envs, func(i, j int) bool {
		if !envs[i].Timestamp.Equal(envs[j].Timestamp) {
			return envs[i].Timestamp.Before(envs[j].Timestamp)
		}
		return envs[i].Seq < envs[j].Seq
	})
	return envs, nil
}

// Snapshot queues the snapshot behind every envelope already accepted and
// waits for the worker to complete it, so the aging pass cannot outrun a
// still-queued envelope that belongs behind the snapshot.
func (r *Redis) Snapshot(ctx context.Context, sessionID string, w *world.World, version uint64) error {
	sj := &snapshotJob{
		rec: SnapshotRecord{
			SessionID: sessionID,
			World:     w.DeepCopy(),
			Version:   version,
			TakenAt:   time.Now(),
		},
		done: make(chan error, 1),
	}

	r.closeMu.RLock()
	if r.closed {
		r.closeMu.RUnlock()
		return eris.Wrap(ErrClosed, "snapshot")
	}
	select {
	case r.intake <- job{snap: sj}:
		r.closeMu.RUnlock()
	case <-ctx.Done():
		r.closeMu.RUnlock()
		return eris.Wrap(ctx.Err(), "snapshot abandoned while intake queue was full")
	}

	select {
	case err := <-sj.done:
		return err
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "gave up waiting for snapshot to be written")
	}
}

func (r *Redis) writeSnapshot(rec SnapshotRecord) error {
	bz, err := codec.Encode(rec)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := r.client.Set(ctx, r.snapshotKey(rec.SessionID), bz, 0).Err(); err != nil {
		return eris.Wrap(err, "failed to write snapshot")
	}
	// Every envelope currently in the set was queued, and therefore
	// published, before this snapshot job was; the snapshot's world covers
	// all of them. Dropping the whole key avoids comparing nanosecond
	// timestamps as float64 scores, which cannot represent them exactly.
	if err := r.client.Del(ctx, r.eventsKey(rec.SessionID)).Err(); err != nil {
		return eris.Wrap(err, "failed to age out events behind snapshot")
	}
	log.Info().
		Str("session", rec.SessionID).
		Uint64("version", rec.Version).
		Msg("snapshot written, event history aged out")
	return nil
}

func (r *Redis) LatestSnapshot(ctx context.Context, sessionID string) (SnapshotRecord, bool, error) {
	bz, err := r.client.Get(ctx, r.snapshotKey(sessionID)).Bytes()
	if eris.Is(err, redis.Nil) {
		return SnapshotRecord{}, false, nil
	}
	if err != nil {
		return SnapshotRecord{}, false, eris.Wrap(err, "failed to read snapshot")
	}
	rec, err := codec.Decode[SnapshotRecord](bz)
	if err != nil {
		return SnapshotRecord{}, false, eris.Wrap(err, "corrupt snapshot")
	}
	return rec, true, nil
}

func (r *Redis) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.closeMu.Lock()
		r.closed = true
		close(r.intake)
		r.closeMu.Unlock()
	})
	select {
	case <-r.workerDone:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "gave up waiting for the store worker to drain")
	}
}
