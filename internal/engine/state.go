package engine

import (
	"starshipevents/internal/config"
	"starshipevents/internal/events"
)

// State is the serializable shape of an Engine: every live event plus each
// actor's subscription set. Heap ordering is never persisted — restoring a
// state re-subscribes every actor, which backfills its heap from the
// restored queue using the standard key computation.
type State struct {
	Events        []*events.Event     `json:"events"`
	Subscriptions map[string][]string `json:"subscriptions"`
}

// Capture snapshots the engine's current queue contents and subscription
// sets for persistence.
func (e *Engine) Capture() State {
	return State{
		Events:        e.Queue.All(),
		Subscriptions: e.Broker.Subscriptions(),
	}
}

// Restore republishes every event from st into a fresh Engine built from
// cfg, then re-subscribes every actor, which backfills each actor's heap
// from the restored queue.
func Restore(cfg *config.Config, st State) (*Engine, error) {
	e := New(cfg)
	for _, ev := range st.Events {
		if err := e.Queue.Publish(ev); err != nil {
			return nil, err
		}
	}
	for actorID, scopes := range st.Subscriptions {
		if err := e.Broker.Backfill(actorID, e.Config.SaveSeed, scopes...); err != nil {
			return nil, err
		}
	}
	return e, nil
}
