package scheduling

import (
	"sort"
	"time"
)

// FreeSlots generates the ordered free slots of slotDuration length inside
// window, excluding any slot that overlaps a busy interval.
//
// The busy set is stable-sorted by start (ties by end) and consumed with a
// single merge-style pointer: slots are generated in increasing order, so each
// busy interval is visited at most once instead of rescanning the whole set
// per slot. A trailing partial slot that would cross window.End is never
// emitted. Busy intervals reaching outside the window still exclude the slots
// they touch; only the overlapping portion matters.
//
// The function is pure: calling it again with the same inputs yields the same
// slice, and the busy argument is never mutated.
func FreeSlots(window Interval, slotDuration time.Duration, busy []Interval) ([]Interval, error) {
	if slotDuration <= 0 {
		return nil, ErrInvalidConfiguration
	}

	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var slots []Interval
	idx := 0
	for start := window.Start; ; start = start.Add(slotDuration) {
		end := start.Add(slotDuration)
		if end.After(window.End) {
			break
		}
		slot := Interval{Start: start, End: end}

		for idx < len(sorted) && !sorted[idx].End.After(slot.Start) {
			idx++
		}
		// sorted[idx] is the earliest busy interval ending after slot.Start;
		// later entries start no earlier, so this single comparison decides.
		if idx < len(sorted) && sorted[idx].Start.Before(slot.End) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
