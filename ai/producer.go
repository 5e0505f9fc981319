// Package ai is the machine-intent command producer. On its own schedule it
// reads each session's current world (read-only), decides on zero or more
// commands, and enqueues them exactly like a human-originated request. It has
// no elevated privilege and never touches aggregates directly.
package ai

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/novaris-game/novaris/aggregate"
	"github.com/novaris-game/novaris/cmdqueue"
	"github.com/novaris-game/novaris/event"
	"github.com/novaris-game/novaris/rules"
	"github.com/novaris-game/novaris/world"
)

// PlayerID is the acting player recorded on AI-originated events.
const PlayerID = "ai-overseer"

type Producer struct {
	registry *aggregate.Registry
	queue    *cmdqueue.Queue
	interval time.Duration
	done     chan struct{}
}

func NewProducer(registry *aggregate.Registry, queue *cmdqueue.Queue, interval time.Duration) *Producer {
	return &Producer{
		registry: registry,
		queue:    queue,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the decision loop in the background.
func (p *Producer) Start() {
	log.Info().Dur("interval", p.interval).Msg("AI producer started")
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.runRound()
			case <-p.done:
				return
			}
		}
	}()
}

// Stop halts the decision loop. Commands already enqueued still apply.
func (p *Producer) Stop() {
	close(p.done)
}

func (p *Producer) runRound() {
	for _, sessionID := range p.registry.Sessions() {
		agg, ok := p.registry.Get(sessionID)
		if !ok {
			continue
		}
		// The world is live and mutated by the tick loop; snapshot it
		// before deciding so the doctrine sees a consistent state.
		w := agg.World().DeepCopy()
		for _, ev := range p.decide(w) {
			p.queue.Enqueue(sessionID, ev)
		}
	}
}

// decide runs the doctrine against a world snapshot. Producers own semantic
// validation, so every command enqueued here has been checked against the
// snapshot: the engine itself will no-op rather than reject a stale one.
func (p *Producer) decide(w *world.World) []event.Event {
	var evs []event.Event
	for _, sys := range w.Galaxy.Systems {
		for _, planet := range sys.Planets {
			if ev, ok := p.considerColonize(planet); ok {
				evs = append(evs, ev)
				continue
			}
			if planet.OwnerID != PlayerID {
				continue
			}
			if ev, ok := p.considerMine(planet); ok {
				evs = append(evs, ev)
			}
			for _, fleet := range planet.Fleets {
				if ev, ok := p.considerDisband(fleet); ok {
					evs = append(evs, ev)
				}
			}
		}
	}
	return evs
}

// considerColonize claims unowned planets.
func (p *Producer) considerColonize(planet *world.Planet) (event.Event, bool) {
	if planet.OwnerID != "" {
		return event.Event{}, false
	}
	ev, err := event.New(event.KindPlanetColonized, PlayerID, event.PlanetColonizedPayload{
		PlanetID: planet.ID,
	})
	if err != nil {
		log.Error().Err(err).Str("planet", planet.ID).Msg("failed to build colonize command")
		return event.Event{}, false
	}
	return ev, true
}

// considerMine builds a mine whenever the planet can afford one.
func (p *Producer) considerMine(planet *world.Planet) (event.Event, bool) {
	if !rules.CanAfford(planet, world.StructureMine) {
		return event.Event{}, false
	}
	ev, err := event.New(event.KindStructureBuilt, PlayerID, event.StructureBuiltPayload{
		PlanetID:    planet.ID,
		StructureID: uuid.NewString(),
		Kind:        world.StructureMine,
	})
	if err != nil {
		log.Error().Err(err).Str("planet", planet.ID).Msg("failed to build construction command")
		return event.Event{}, false
	}
	return ev, true
}

// considerDisband dissolves fleets that have lost all their ships.
func (p *Producer) considerDisband(fleet *world.Fleet) (event.Event, bool) {
	if fleet.OwnerID != PlayerID || fleet.Ships > 0 {
		return event.Event{}, false
	}
	ev, err := event.New(event.KindFleetDisbanded, PlayerID, event.FleetDisbandedPayload{
		FleetID: fleet.ID,
	})
	if err != nil {
		log.Error().Err(err).Str("fleet", fleet.ID).Msg("failed to build disband command")
		return event.Event{}, false
	}
	return ev, true
}
