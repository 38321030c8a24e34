// Package engine bundles the queue, broker, and config into the single
// owned unit the CLI harness (and any other caller) drives — the "Global
// scheduler state" design note in spec §9 is satisfied by handing every
// caller its own Engine rather than reaching for a package-level singleton.
package engine

import (
	"fmt"

	"starshipevents/internal/broker"
	"starshipevents/internal/config"
	"starshipevents/internal/events"
	"starshipevents/internal/factories"
	"starshipevents/internal/queue"
)

// Engine bundles the three collaborators every bridge-surface operation
// needs: the authoritative event store, the per-actor fan-out broker, and
// the runtime configuration (save seed, claim TTL, ...).
type Engine struct {
	Queue  *queue.EventQueue
	Broker *broker.SubscriptionBroker
	Config *config.Config
}

// New constructs a fresh Engine from cfg.
func New(cfg *config.Config) *Engine {
	q := queue.New(cfg.QueueCapacity)
	return &Engine{
		Queue:  q,
		Broker: broker.New(q),
		Config: cfg,
	}
}

// publish runs an event through the standard publish path: insert into the
// queue, then fan it out through the broker so subscribed actors see it.
func (e *Engine) publish(ev *events.Event) (*events.Event, error) {
	if err := e.Queue.Publish(ev); err != nil {
		return nil, err
	}
	if err := e.Broker.OnPublish(ev, e.Config.SaveSeed); err != nil {
		return nil, err
	}
	return ev, nil
}

// SpawnRedAlert constructs and publishes a shipwide red-alert event.
func (e *Engine) SpawnRedAlert(reason string, autoStations bool) (*events.Event, error) {
	ev, err := factories.RedAlert(reason, autoStations)
	if err != nil {
		return nil, err
	}
	return e.publish(ev)
}

// SpawnRepair constructs and publishes an engineering repair event.
func (e *Engine) SpawnRepair(systemID, location, severity string) (*events.Event, error) {
	ev, err := factories.Repair(systemID, location, severity)
	if err != nil {
		return nil, err
	}
	return e.publish(ev)
}

// SpawnSleep constructs and publishes a crew-member sleep event.
func (e *Engine) SpawnSleep(actorID string, durationS int) (*events.Event, error) {
	ev, err := factories.Sleep(actorID, durationS)
	if err != nil {
		return nil, err
	}
	return e.publish(ev)
}

// Subscribe unions scopes into actorID's subscription set and backfills any
// pre-existing, still-relevant events it would otherwise have missed.
func (e *Engine) Subscribe(actorID string, scopes ...string) error {
	return e.Broker.Backfill(actorID, e.Config.SaveSeed, scopes...)
}

// List returns up to limit events at the top of actorID's priority heap,
// ordered by heap key — the same order Claim would pop them in, without
// claiming any of them. limit<=0 returns every live entry. Matches spec
// §6.1's "list | actor_id | Return (up to N) top events ordered by heap
// key".
func (e *Engine) List(actorID string, limit int) []*events.Event {
	return e.Broker.PeekN(actorID, limit)
}

// Claim pops the highest-urgency event off actorID's heap.
func (e *Engine) Claim(actorID string) (*events.Event, error) {
	return e.Broker.Claim(actorID)
}

// MarkActive transitions eventID to active on behalf of actorID.
func (e *Engine) MarkActive(actorID, eventID string) error {
	return e.Broker.MarkActive(actorID, eventID)
}

// Done transitions eventID to done on behalf of actorID.
func (e *Engine) Done(actorID, eventID string) error {
	return e.Broker.Done(actorID, eventID)
}

// SweepClaimTTL reclaims every stale, zero-progress claim and returns the
// ids reclaimed, using the engine's own configured claim TTL.
func (e *Engine) SweepClaimTTL(nowMs int64) ([]string, error) {
	ttlSeconds := int64(e.Config.ClaimTTL.Seconds())
	return e.Broker.CheckClaimTTL(nowMs, ttlSeconds, e.Config.SaveSeed)
}

// GetByID looks up a single event by id, returning a not-found error if
// unknown so callers can distinguish "empty" from "missing".
func (e *Engine) GetByID(eventID string) (*events.Event, error) {
	ev := e.Queue.GetByID(eventID)
	if ev == nil {
		return nil, fmt.Errorf("%w: event %s", events.ErrNotFound, eventID)
	}
	return ev, nil
}
