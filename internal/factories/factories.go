// Package factories provides canonical constructors for the event types the
// surrounding harness spawns most often: red alert, repair, and sleep.
// Each factory fixes the priority/category/scope conventions so callers
// never have to reconstruct them by hand (spec §7).
package factories

import (
	"fmt"

	"starshipevents/internal/events"
)

// RedAlert priority is fixed at the critical floor: a red alert never ages
// and always preempts anything preemptible in its path.
const RedAlertPriority = 0

// repairSeverityPriority maps a repair's qualitative severity to its
// numeric priority, per spec §7.2.
var repairSeverityPriority = map[string]int{
	"minor":    40,
	"serious":  20,
	"critical": 5,
}

// RedAlert constructs the shipwide red-alert event: priority 0,
// non-preemptible, addressed to every department.
func RedAlert(reason string, autoStations bool) (*events.Event, error) {
	return events.New(
		"alerts.red",
		[]string{events.ScopeShipwide},
		RedAlertPriority,
		events.WithCategory(events.CategoryAlerts),
		events.WithSeverity(events.SeverityCritical),
		events.WithPreemptible(false),
		events.WithPayload(map[string]any{
			"reason":        reason,
			"auto_stations": autoStations,
		}),
	)
}

// Sleep constructs a private, low-priority event addressed only to
// actor_id, used to model a crew member standing down for duration_s
// seconds. A negative duration is rejected outright.
func Sleep(actorID string, durationS int) (*events.Event, error) {
	if durationS < 0 {
		return nil, fmt.Errorf("%w: sleep duration_s must be non-negative, got %d", events.ErrInvalidArgument, durationS)
	}
	return events.New(
		"crew.sleep",
		[]string{fmt.Sprintf("private:%s", actorID)},
		90,
		events.WithCategory(events.CategoryCrewAdmin),
		events.WithSeverity(events.SeverityInfo),
		events.WithPreemptible(true),
		events.WithPayload(map[string]any{
			"actor_id":   actorID,
			"duration_s": durationS,
		}),
	)
}

// Repair constructs an engineering repair event whose priority is derived
// from severity via the fixed minor/serious/critical mapping, addressed to
// engineering and officers. An unrecognized severity is rejected.
func Repair(systemID, location, severity string) (*events.Event, error) {
	priority, ok := repairSeverityPriority[severity]
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized repair severity %q", events.ErrInvalidArgument, severity)
	}
	sev := events.SeverityWarn
	if severity == "critical" {
		sev = events.SeverityCritical
	}
	return events.New(
		"task.repair",
		[]string{"department:engineering", events.ScopeOfficers},
		priority,
		events.WithCategory(events.CategoryEngineering),
		events.WithSeverity(sev),
		events.WithPreemptible(true),
		events.WithPayload(map[string]any{
			"system_id": systemID,
			"location":  location,
			"severity":  severity,
		}),
	)
}
