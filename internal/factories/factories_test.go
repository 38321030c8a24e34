package factories

import (
	"errors"
	"testing"

	"starshipevents/internal/events"
)

func TestRedAlertIsCriticalAndNonPreemptible(t *testing.T) {
	e, err := RedAlert("hull breach deck 4", true)
	if err != nil {
		t.Fatalf("RedAlert: %v", err)
	}
	if e.Priority != RedAlertPriority {
		t.Fatalf("expected priority %d, got %d", RedAlertPriority, e.Priority)
	}
	if e.Preemptible {
		t.Fatalf("expected a red alert to be non-preemptible")
	}
	if !e.HasScope(events.ScopeShipwide) {
		t.Fatalf("expected a red alert to be shipwide, got %v", e.AudienceScope)
	}
	if e.Category != events.CategoryAlerts {
		t.Fatalf("expected category alerts, got %s", e.Category)
	}
	if e.Type != "alerts.red" {
		t.Fatalf("expected type alerts.red, got %s", e.Type)
	}
}

func TestSleepRejectsNegativeDuration(t *testing.T) {
	if _, err := Sleep("officer-1", -1); !errors.Is(err, events.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for negative duration, got %v", err)
	}
}

func TestSleepIsPrivateToActor(t *testing.T) {
	e, err := Sleep("officer-1", 60)
	if err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if !e.HasScope("private:officer-1") {
		t.Fatalf("expected a private scope for the actor, got %v", e.AudienceScope)
	}
	if e.HasScope(events.ScopeShipwide) {
		t.Fatalf("expected sleep to never be shipwide, got %v", e.AudienceScope)
	}
	if e.Priority != 90 {
		t.Fatalf("expected sleep priority 90, got %d", e.Priority)
	}
}

func TestRepairPriorityFollowsSeverityMapping(t *testing.T) {
	cases := []struct {
		severity string
		priority int
	}{
		{"minor", 40},
		{"serious", 20},
		{"critical", 5},
	}
	for _, tc := range cases {
		e, err := Repair("warp-core", "engineering-deck", tc.severity)
		if err != nil {
			t.Fatalf("Repair(%s): %v", tc.severity, err)
		}
		if e.Priority != tc.priority {
			t.Fatalf("severity %s: expected priority %d, got %d", tc.severity, tc.priority, e.Priority)
		}
	}
}

func TestRepairRejectsUnknownSeverity(t *testing.T) {
	if _, err := Repair("warp-core", "engineering-deck", "catastrophic"); !errors.Is(err, events.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown severity, got %v", err)
	}
}

func TestRepairCategoryAndAudienceScope(t *testing.T) {
	e, err := Repair("warp-core", "engineering-deck", "serious")
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if e.Category != events.CategoryEngineering {
		t.Fatalf("expected category engineering, got %s", e.Category)
	}
	if e.HasScope(events.ScopeShipwide) {
		t.Fatalf("expected a repair event to never be shipwide, got %v", e.AudienceScope)
	}
	if !e.HasScope("department:engineering") || !e.HasScope(events.ScopeOfficers) {
		t.Fatalf("expected audience_scope [department:engineering, officers], got %v", e.AudienceScope)
	}
}
