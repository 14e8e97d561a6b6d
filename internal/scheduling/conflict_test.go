package scheduling

import "testing"

func reservation(t *testing.T, id string, startHour, endHour int, priority Priority, status Status) Reservation {
	t.Helper()
	return Reservation{
		ID:       id,
		Interval: mustInterval(t, startHour, 0, endHour, 0),
		Kind:     KindBooking,
		Priority: priority,
		Status:   status,
	}
}

func TestFindConflicts_ReturnsOverlappingActiveOnly(t *testing.T) {
	t.Parallel()

	candidate := mustInterval(t, 10, 0, 12, 0)
	existing := []Reservation{
		reservation(t, "r-before", 8, 9, PriorityNormal, StatusConfirmed),
		reservation(t, "r-touching", 9, 10, PriorityNormal, StatusConfirmed),
		reservation(t, "r-overlap", 11, 13, PriorityNormal, StatusConfirmed),
		reservation(t, "r-cancelled", 10, 11, PriorityNormal, StatusCancelled),
		reservation(t, "r-pending", 10, 11, PriorityNormal, StatusPending),
	}

	conflicts := FindConflicts(candidate, existing)

	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d: %v", len(conflicts), conflicts)
	}
	for _, c := range conflicts {
		if c.Status == StatusCancelled {
			t.Fatalf("cancelled reservation %s must never conflict", c.ID)
		}
		if !candidate.Overlaps(c.Interval) {
			t.Fatalf("reservation %s does not overlap the candidate", c.ID)
		}
	}
}

func TestFindConflicts_DeterministicOrdering(t *testing.T) {
	t.Parallel()

	candidate := mustInterval(t, 9, 0, 17, 0)
	existing := []Reservation{
		reservation(t, "b-high-early", 9, 10, PriorityHigh, StatusConfirmed),
		reservation(t, "z-normal-late", 14, 15, PriorityNormal, StatusConfirmed),
		reservation(t, "b-normal-tie", 10, 11, PriorityNormal, StatusConfirmed),
		reservation(t, "a-normal-tie", 10, 12, PriorityNormal, StatusConfirmed),
	}

	want := []string{"a-normal-tie", "b-normal-tie", "z-normal-late", "b-high-early"}

	for i := 0; i < 3; i++ {
		conflicts := FindConflicts(candidate, existing)
		if len(conflicts) != len(want) {
			t.Fatalf("expected %d conflicts, got %d", len(want), len(conflicts))
		}
		for i, id := range want {
			if conflicts[i].ID != id {
				t.Fatalf("conflict %d = %s, want %s", i, conflicts[i].ID, id)
			}
		}
	}
}

func TestFindConflicts_EmptyResults(t *testing.T) {
	t.Parallel()

	if got := FindConflicts(mustInterval(t, 9, 0, 10, 0), nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}

	existing := []Reservation{reservation(t, "r-1", 11, 12, PriorityNormal, StatusConfirmed)}
	if got := FindConflicts(mustInterval(t, 9, 0, 10, 0), existing); got != nil {
		t.Fatalf("expected nil for non-overlapping input, got %v", got)
	}
}

func TestFindConflicts_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	existing := []Reservation{
		reservation(t, "z-second", 10, 11, PriorityHigh, StatusConfirmed),
		reservation(t, "a-first", 10, 11, PriorityNormal, StatusConfirmed),
	}

	FindConflicts(mustInterval(t, 10, 0, 11, 0), existing)

	if existing[0].ID != "z-second" || existing[1].ID != "a-first" {
		t.Fatal("FindConflicts reordered its input slice")
	}
}
