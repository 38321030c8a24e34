// Package scheduling implements the pure scheduling policies the broker
// consults: the preemption predicate and the aging transform. The
// claim-TTL sweep lives on the broker itself (internal/broker), since it
// needs both the queue and the broker's fan-out to re-publish reclaimed
// events — keeping it here would create an import cycle.
package scheduling

import "starshipevents/internal/events"

const (
	// AgingThresholdS is the grace period, in seconds, before a
	// non-critical event begins aging toward higher urgency.
	AgingThresholdS = 120
	// AgingStepS is the wait-time increment, in seconds, that lowers
	// effective priority by one point once the threshold has passed.
	AgingStepS = 30
	// MinAgedPriority is the floor effective_priority can age down to.
	MinAgedPriority = 5
)

// ShouldPreempt reports whether incoming should preempt current: the
// incoming event must have a strictly higher priority (numerically lower)
// than current, and current must be marked preemptible. Equal priorities
// never preempt; a non-preemptible current event can never be preempted.
func ShouldPreempt(current, incoming *events.Event) bool {
	return incoming.Priority < current.Priority && current.Preemptible
}

// EffectivePriority returns e's priority adjusted for aging as of now_ms.
// Critical events (priority 0) never age. Non-critical events hold their
// priority for AgingThresholdS seconds, then lose one point of priority
// (i.e. gain urgency) for every AgingStepS seconds of additional wait,
// floored at MinAgedPriority. This is a read-time transform only: it never
// mutates a heap key in place (spec §4.3.6, §9).
func EffectivePriority(e *events.Event, nowMs int64) int {
	if e.Priority == 0 {
		return 0
	}
	waitS := (nowMs - e.TsMs) / 1000
	if waitS < 0 {
		waitS = 0
	}
	if waitS <= AgingThresholdS {
		return e.Priority
	}
	aged := e.Priority - int(waitS/AgingStepS)
	if aged < MinAgedPriority {
		return MinAgedPriority
	}
	return aged
}
