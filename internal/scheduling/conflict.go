package scheduling

import "sort"

// FindConflicts returns every non-cancelled reservation whose interval
// overlaps the candidate, ordered by (priority asc, start asc, id asc).
//
// The ordering is part of the contract: the cascade resolver walks conflicts
// lowest-priority-first, and reproducible output keeps cascade decisions and
// their tests deterministic. Inputs are never mutated.
func FindConflicts(candidate Interval, existing []Reservation) []Reservation {
	var conflicts []Reservation
	for _, reservation := range existing {
		if !reservation.Active() {
			continue
		}
		if candidate.Overlaps(reservation.Interval) {
			conflicts = append(conflicts, reservation)
		}
	}
	if len(conflicts) == 0 {
		return nil
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		return a.ID < b.ID
	})
	return conflicts
}
