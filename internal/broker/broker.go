// Package broker implements the SubscriptionBroker: per-actor subscription
// sets, per-actor priority heaps with deterministic tie-breaking, publish
// fan-out with preemption, and the claim/active/suspend/done lifecycle
// transitions.
package broker

import (
	"container/heap"
	"fmt"
	"sync"

	"starshipevents/internal/events"
	"starshipevents/internal/metrics"
	"starshipevents/internal/queue"
	"starshipevents/internal/rng"
	"starshipevents/internal/scheduling"
)

// entry is one heap node: the total order is (priority, deadline, tie
// break, event id), matching spec §3's per-actor heap key exactly.
type entry struct {
	priority  int
	deadline  float64
	tieBreak  float64
	eventID   string
}

// actorHeap is a container/heap.Interface over entry, ordered by the tuple
// (priority, deadline, tieBreak, eventID) ascending — the smallest tuple is
// the most urgent and sits at the top.
type actorHeap []entry

func (h actorHeap) Len() int { return len(h) }

func (h actorHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	if h[i].tieBreak != h[j].tieBreak {
		return h[i].tieBreak < h[j].tieBreak
	}
	return h[i].eventID < h[j].eventID
}

func (h actorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *actorHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *actorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SubscriptionBroker fans out published events into per-actor priority
// heaps, applying preemption of an actor's active event, and drives the
// claim/active/suspend/done lifecycle. The broker holds only event ids;
// the EventQueue remains the sole owner of Event records (spec §5).
type SubscriptionBroker struct {
	mu            sync.Mutex
	eq            *queue.EventQueue
	subscriptions map[string]map[string]struct{}
	heaps         map[string]*actorHeap
}

// New constructs a broker bound to the given queue.
func New(eq *queue.EventQueue) *SubscriptionBroker {
	return &SubscriptionBroker{
		eq:            eq,
		subscriptions: make(map[string]map[string]struct{}),
		heaps:         make(map[string]*actorHeap),
	}
}

// Subscribe unions scopes into actor_id's subscription set, creating an
// empty heap if the actor is new.
func (b *SubscriptionBroker) Subscribe(actorID string, scopes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribeLocked(actorID, scopes...)
}

func (b *SubscriptionBroker) subscribeLocked(actorID string, scopes ...string) {
	set, ok := b.subscriptions[actorID]
	if !ok {
		set = make(map[string]struct{})
		b.subscriptions[actorID] = set
	}
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	if _, ok := b.heaps[actorID]; !ok {
		h := &actorHeap{}
		heap.Init(h)
		b.heaps[actorID] = h
	}
}

// Subscriptions returns a snapshot of every actor's subscription set, keyed
// by actor id, for persistence by a caller.
func (b *SubscriptionBroker) Subscriptions() map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string][]string, len(b.subscriptions))
	for actorID, set := range b.subscriptions {
		scopes := make([]string, 0, len(set))
		for s := range set {
			scopes = append(scopes, s)
		}
		out[actorID] = scopes
	}
	return out
}

// Unsubscribe removes the listed scopes from actor_id's subscription set.
// An unknown actor is a no-op.
func (b *SubscriptionBroker) Unsubscribe(actorID string, scopes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subscriptions[actorID]
	if !ok {
		return
	}
	for _, s := range scopes {
		delete(set, s)
	}
}

// relevant reports whether e addresses actorID, either because it is
// shipwide or because its audience_scope intersects the actor's
// subscription set.
func relevant(e *events.Event, scopes map[string]struct{}) bool {
	for _, s := range e.AudienceScope {
		if s == events.ScopeShipwide {
			return true
		}
		if _, ok := scopes[s]; ok {
			return true
		}
	}
	return false
}

// OnPublish fans e out to every subscribed, relevant actor, preempting at
// most one active event per actor along the way (spec §4.3.2).
func (b *SubscriptionBroker) OnPublish(e *events.Event, saveSeed int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.onPublishLocked(e, saveSeed)
}

func (b *SubscriptionBroker) onPublishLocked(e *events.Event, saveSeed int64) error {
	for actorID, scopes := range b.subscriptions {
		if !relevant(e, scopes) {
			continue
		}

		if err := b.preemptActiveLocked(actorID, e, saveSeed); err != nil {
			return err
		}

		h := b.heaps[actorID]
		if h == nil {
			h = &actorHeap{}
			heap.Init(h)
			b.heaps[actorID] = h
		}
		heap.Push(h, entry{
			priority: e.Priority,
			deadline: e.DeadlineEpochSeconds(),
			tieBreak: rng.TieBreak(saveSeed, actorID, e.ID),
			eventID:  e.ID,
		})
	}
	return nil
}

// preemptActiveLocked suspends actorID's active event and requeues it onto
// its own heap if incoming should preempt it. At most one active event per
// actor can exist, so this runs at most once.
func (b *SubscriptionBroker) preemptActiveLocked(actorID string, incoming *events.Event, saveSeed int64) error {
	var active *events.Event
	for _, e := range b.eq.All() {
		if e.Taker == actorID && e.State == events.StateActive {
			active = e
			break
		}
	}
	if active == nil || !scheduling.ShouldPreempt(active, incoming) {
		return nil
	}

	active.State = events.StateSuspended
	active.AppendAudit(actorID, "suspend", nil)
	if err := b.eq.Update(active); err != nil {
		return err
	}
	metrics.PreemptionsTotal.Inc()

	h := b.heaps[actorID]
	if h == nil {
		h = &actorHeap{}
		heap.Init(h)
		b.heaps[actorID] = h
	}
	heap.Push(h, entry{
		priority: active.Priority,
		deadline: active.DeadlineEpochSeconds(),
		tieBreak: rng.TieBreak(saveSeed, actorID, active.ID),
		eventID:  active.ID,
	})
	return nil
}

// nextEventIDLocked pops stale entries off actorID's heap and returns the
// id of the entry at the top that still refers to a live, relevant event:
// queued, or suspended with actorID as taker.
func (b *SubscriptionBroker) nextEventIDLocked(actorID string) string {
	h := b.heaps[actorID]
	if h == nil || h.Len() == 0 {
		return ""
	}
	for h.Len() > 0 {
		top := (*h)[0]
		e := b.eq.GetByID(top.eventID)
		if e == nil {
			heap.Pop(h)
			continue
		}
		if e.State == events.StateQueued {
			return top.eventID
		}
		if e.State == events.StateSuspended && e.Taker == actorID {
			return top.eventID
		}
		heap.Pop(h)
	}
	return ""
}

// Peek returns the event at the top of actorID's heap without claiming it,
// or nil if the heap is empty once stale entries are dropped.
func (b *SubscriptionBroker) Peek(actorID string) *events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextEventIDLocked(actorID)
	if id == "" {
		return nil
	}
	return b.eq.GetByID(id)
}

// PeekN returns up to n events at the top of actorID's heap, in heap-key
// order (the same order Claim would pop them in), without claiming or
// mutating any of them or the heap itself. n<=0 returns every live entry.
// Satisfies spec §6.1's "list | actor_id | return (up to N) top events
// ordered by heap key".
func (b *SubscriptionBroker) PeekN(actorID string, n int) []*events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.heaps[actorID]
	if h == nil || h.Len() == 0 {
		return nil
	}
	cp := make(actorHeap, len(*h))
	copy(cp, *h)

	var out []*events.Event
	for cp.Len() > 0 && (n <= 0 || len(out) < n) {
		top := heap.Pop(&cp).(entry)
		e := b.eq.GetByID(top.eventID)
		if e == nil {
			continue
		}
		if e.State != events.StateQueued && !(e.State == events.StateSuspended && e.Taker == actorID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Claim pops entries until one refers to a queued event, claims it for
// actorID, and returns it; or nil if no queued event is available.
func (b *SubscriptionBroker) Claim(actorID string) (*events.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.heaps[actorID]
	if h == nil {
		return nil, nil
	}
	for h.Len() > 0 {
		top := heap.Pop(h).(entry)
		e := b.eq.GetByID(top.eventID)
		if e == nil || e.State != events.StateQueued {
			continue
		}
		e.State = events.StateClaimed
		e.Taker = actorID
		e.AppendAudit(actorID, "claim", nil)
		if err := b.eq.Update(e); err != nil {
			return nil, err
		}
		metrics.EventsClaimedTotal.WithLabelValues(actorID).Inc()
		return e, nil
	}
	return nil, nil
}

// MarkActive transitions event_id from claimed or suspended to active.
func (b *SubscriptionBroker) MarkActive(actorID, eventID string) error {
	return b.transition(actorID, eventID, "active", events.StateActive, events.StateClaimed, events.StateSuspended)
}

// Suspend transitions event_id from active to suspended.
func (b *SubscriptionBroker) Suspend(actorID, eventID string) error {
	return b.transition(actorID, eventID, "suspend", events.StateSuspended, events.StateActive)
}

// Done transitions event_id from any non-terminal state to done.
func (b *SubscriptionBroker) Done(actorID, eventID string) error {
	e := b.eq.GetByID(eventID)
	if err := b.transitionAnyNonTerminal(actorID, eventID, "done", events.StateDone); err != nil {
		return err
	}
	category := ""
	if e != nil {
		category = string(e.Category)
	}
	metrics.EventsDoneTotal.WithLabelValues(category).Inc()
	return nil
}

// Fail transitions event_id from any non-terminal state to failed. Reserved
// per spec §4.3.4; not exposed through the CLI bridge surface.
func (b *SubscriptionBroker) Fail(actorID, eventID string) error {
	return b.transitionAnyNonTerminal(actorID, eventID, "failed", events.StateFailed)
}

func (b *SubscriptionBroker) transition(actorID, eventID, action string, to events.State, from ...events.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.eq.GetByID(eventID)
	if e == nil {
		return fmt.Errorf("%w: event %s", events.ErrNotFound, eventID)
	}
	if e.Taker != actorID {
		return fmt.Errorf("%w: actor %s does not hold event %s", events.ErrNotOwned, actorID, eventID)
	}
	ok := false
	for _, s := range from {
		if e.State == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: cannot %s event %s from state %s", events.ErrInvalidState, action, eventID, e.State)
	}

	e.State = to
	e.AppendAudit(actorID, action, nil)
	return b.eq.Update(e)
}

func (b *SubscriptionBroker) transitionAnyNonTerminal(actorID, eventID, action string, to events.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.eq.GetByID(eventID)
	if e == nil {
		return fmt.Errorf("%w: event %s", events.ErrNotFound, eventID)
	}
	if e.Taker != actorID {
		return fmt.Errorf("%w: actor %s does not hold event %s", events.ErrNotOwned, actorID, eventID)
	}
	if e.State.Terminal() {
		return fmt.Errorf("%w: event %s already terminal (%s)", events.ErrInvalidState, eventID, e.State)
	}

	e.State = to
	e.AppendAudit(actorID, action, nil)
	return b.eq.Update(e)
}

// Backfill walks the queue's shipwide index and the given scopes, pushing
// any unseen event id onto actorID's heap with the standard key
// computation. This resolves the Open Question in spec §9: backfill is a
// broker method, not something the harness implements by reaching into
// broker internals.
func (b *SubscriptionBroker) Backfill(actorID string, saveSeed int64, scopes ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribeLocked(actorID, scopes...)

	seen := make(map[string]struct{})
	h := b.heaps[actorID]
	for _, en := range *h {
		seen[en.eventID] = struct{}{}
	}

	toConsider := append([]string(nil), b.eq.ListByScope(events.ScopeShipwide)...)
	for _, s := range scopes {
		toConsider = append(toConsider, b.eq.ListByScope(s)...)
	}

	for _, id := range toConsider {
		if _, dup := seen[id]; dup {
			continue
		}
		e := b.eq.GetByID(id)
		if e == nil {
			continue
		}
		seen[id] = struct{}{}
		heap.Push(h, entry{
			priority: e.Priority,
			deadline: e.DeadlineEpochSeconds(),
			tieBreak: rng.TieBreak(saveSeed, actorID, e.ID),
			eventID:  e.ID,
		})
	}
	return nil
}

// CheckClaimTTL expires stale claims: every event in state claimed with
// zero progress whose most recent "claim" audit entry is older than
// ttlSeconds is returned to queued, has its taker cleared, gains the
// "officers" scope if not already present, and is re-fanned-out so the
// newly-eligible officers (and the original actor) see it again. Returns
// the ids of every event reclaimed this sweep (spec §4.3.7).
func (b *SubscriptionBroker) CheckClaimTTL(nowMs int64, ttlSeconds int64, saveSeed int64) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	metrics.ClaimTTLSweepsTotal.Inc()

	var reclaimed []string
	for _, e := range b.eq.All() {
		if e.State != events.StateClaimed || e.Progress > 0 {
			continue
		}
		claimTs := e.LastAuditTs("claim")
		if claimTs == 0 {
			continue
		}
		if nowMs-claimTs <= ttlSeconds*1000 {
			continue
		}

		e.State = events.StateQueued
		e.Taker = ""
		if !e.HasScope(events.ScopeOfficers) {
			e.AudienceScope = append(e.AudienceScope, events.ScopeOfficers)
		}
		e.AppendAudit("system", "claim_timeout", nil)
		if err := b.eq.Update(e); err != nil {
			return reclaimed, err
		}
		if err := b.onPublishLocked(e, saveSeed); err != nil {
			return reclaimed, err
		}
		metrics.ClaimsReclaimedTotal.Inc()
		reclaimed = append(reclaimed, e.ID)
	}
	return reclaimed, nil
}
