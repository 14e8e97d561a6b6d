package scheduling

import "testing"

func TestResolve_NormalCandidateIsBlockedByAnyConflict(t *testing.T) {
	t.Parallel()

	candidate := Reservation{ID: "new", Interval: mustInterval(t, 10, 0, 11, 0), Kind: KindBooking, Priority: PriorityNormal}
	conflicts := []Reservation{
		reservation(t, "existing-normal", 10, 11, PriorityNormal, StatusConfirmed),
	}

	plan := Resolve(candidate, conflicts)

	if plan.Proceedable() {
		t.Fatal("normal candidate with conflicts must not proceed")
	}
	if len(plan.ToCancel) != 0 {
		t.Fatalf("normal candidate must never cancel anything, got %v", plan.ToCancel)
	}
	if len(plan.Blocking) != 1 || plan.Blocking[0].ID != "existing-normal" {
		t.Fatalf("expected the conflict to block, got %v", plan.Blocking)
	}
}

func TestResolve_HighCandidateCancelsNormalConflicts(t *testing.T) {
	t.Parallel()

	candidate := Reservation{ID: "event", Interval: mustInterval(t, 10, 0, 11, 0), Kind: KindEvent, Priority: PriorityHigh}
	conflicts := FindConflicts(candidate.Interval, []Reservation{
		reservation(t, "booking-1", 9, 11, PriorityNormal, StatusConfirmed),
		reservation(t, "booking-2", 10, 12, PriorityNormal, StatusConfirmed),
	})

	plan := Resolve(candidate, conflicts)

	if !plan.Proceedable() {
		t.Fatalf("expected a proceedable plan, blocking: %v", plan.Blocking)
	}
	if len(plan.ToCancel) != 2 {
		t.Fatalf("expected 2 cancellations, got %v", plan.ToCancel)
	}
}

func TestResolve_HighNeverDisplacesHigh(t *testing.T) {
	t.Parallel()

	candidate := Reservation{ID: "event", Interval: mustInterval(t, 9, 0, 12, 0), Kind: KindEvent, Priority: PriorityHigh}
	conflicts := FindConflicts(candidate.Interval, []Reservation{
		reservation(t, "booking", 9, 10, PriorityNormal, StatusConfirmed),
		reservation(t, "other-event", 10, 11, PriorityHigh, StatusConfirmed),
	})

	plan := Resolve(candidate, conflicts)

	if plan.Proceedable() {
		t.Fatal("a conflicting high-priority reservation must block the operation")
	}
	if len(plan.ToCancel) != 0 {
		t.Fatalf("blocked plan must carry no cancellations, got %v", plan.ToCancel)
	}
	if len(plan.Blocking) != 1 || plan.Blocking[0].ID != "other-event" {
		t.Fatalf("expected other-event to block, got %v", plan.Blocking)
	}
}

func TestResolve_NoConflictsProceedsEmpty(t *testing.T) {
	t.Parallel()

	candidate := Reservation{ID: "event", Interval: mustInterval(t, 10, 0, 11, 0), Kind: KindEvent, Priority: PriorityHigh}

	plan := Resolve(candidate, nil)

	if !plan.Proceedable() {
		t.Fatal("empty conflict set must proceed")
	}
	if len(plan.ToCancel) != 0 {
		t.Fatalf("nothing to cancel expected, got %v", plan.ToCancel)
	}
}
