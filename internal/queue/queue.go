// Package queue implements the EventQueue: the sole owner of all live
// Event records, with secondary indices by category and by audience scope.
package queue

import (
	"fmt"
	"sync"

	"starshipevents/internal/events"
	"starshipevents/internal/metrics"
)

// EventQueue owns every live Event by id and maintains insertion-ordered
// secondary indices for category and scope lookup. It enforces a bounded
// capacity: publish beyond capacity fails loudly, with no eviction policy.
type EventQueue struct {
	mu         sync.Mutex
	capacity   int
	byID       map[string]*events.Event
	byCategory map[events.Category][]string
	byScope    map[string][]string
}

// New constructs an EventQueue with the given capacity. Zero or negative
// capacity means the queue never accepts a publish.
func New(capacity int) *EventQueue {
	return &EventQueue{
		capacity:   capacity,
		byID:       make(map[string]*events.Event),
		byCategory: make(map[events.Category][]string),
		byScope:    make(map[string][]string),
	}
}

// Capacity returns the queue's configured capacity.
func (q *EventQueue) Capacity() int { return q.capacity }

// Len returns the current number of events held, terminal ones included.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byID)
}

// Publish inserts e under its id, replacing any prior event with the same
// id, and appends the id to its category/scope index lists. The capacity
// check precedes any other work, matching spec §4.2.
func (q *EventQueue) Publish(e *events.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.byID) >= q.capacity {
		metrics.CapacityRejectionsTotal.Inc()
		return fmt.Errorf("%w: queue at capacity %d", events.ErrCapacityExceeded, q.capacity)
	}

	q.byID[e.ID] = e
	if e.Category != "" {
		q.byCategory[e.Category] = append(q.byCategory[e.Category], e.ID)
	}
	for _, scope := range e.AudienceScope {
		q.byScope[scope] = append(q.byScope[scope], e.ID)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(e.Category)).Inc()
	metrics.LiveEventsGauge.Set(float64(q.liveCountLocked()))
	return nil
}

// Update rebuilds index memberships for an already-published event: the id
// is removed from its previous category/scope lists (first occurrence
// only, preserving any duplicate entries from earlier publishes) and
// re-inserted under the new category/scopes. A generic "system/update"
// audit record is appended afterward, per spec §4.2 and the ordering rule
// in §9 (transition-specific audit first, then this generic one).
func (q *EventQueue) Update(e *events.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	old, ok := q.byID[e.ID]
	if !ok {
		return fmt.Errorf("%w: event %s", events.ErrNotFound, e.ID)
	}

	if old.Category != "" {
		q.byCategory[old.Category] = removeFirst(q.byCategory[old.Category], e.ID)
	}
	for _, scope := range old.AudienceScope {
		q.byScope[scope] = removeFirst(q.byScope[scope], e.ID)
	}

	q.byID[e.ID] = e
	if e.Category != "" {
		q.byCategory[e.Category] = append(q.byCategory[e.Category], e.ID)
	}
	for _, scope := range e.AudienceScope {
		q.byScope[scope] = append(q.byScope[scope], e.ID)
	}

	e.AppendAudit("system", "update", nil)
	metrics.LiveEventsGauge.Set(float64(q.liveCountLocked()))
	return nil
}

// liveCountLocked counts every non-terminal event currently held; callers
// must already hold q.mu.
func (q *EventQueue) liveCountLocked() int {
	live := 0
	for _, e := range q.byID {
		if !e.State.Terminal() {
			live++
		}
	}
	return live
}

// GetByID returns the authoritative event for id, or nil if unknown.
func (q *EventQueue) GetByID(id string) *events.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.byID[id]
}

// ListByCategory returns a shallow copy of the insertion-ordered id list
// for category; it may contain duplicates if callers republished an event
// without first calling Update.
func (q *EventQueue) ListByCategory(category events.Category) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.byCategory[category]...)
}

// ListByScope returns a shallow copy of the insertion-ordered id list for
// scope; duplicates are tolerated under the same rule as ListByCategory.
func (q *EventQueue) ListByScope(scope string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.byScope[scope]...)
}

// All returns every event held, terminal ones included, snapshotted under
// the lock. Used by the
// claim-TTL sweep, which must iterate all claimed events.
func (q *EventQueue) All() []*events.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*events.Event, 0, len(q.byID))
	for _, e := range q.byID {
		out = append(out, e)
	}
	return out
}

// removeFirst removes the first occurrence of id from list, preserving the
// order and count of any remaining duplicates.
func removeFirst(list []string, id string) []string {
	for i, v := range list {
		if v == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
