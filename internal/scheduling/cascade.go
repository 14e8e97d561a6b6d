package scheduling

// CascadePlan is the all-or-nothing recommendation produced before any
// mutation happens. When Blocking is nonempty the operation must abort as a
// whole; ToCancel is empty in that case so a partial cascade can never be
// applied by mistake.
type CascadePlan struct {
	ToCancel []Reservation
	Blocking []Reservation
}

// Proceedable reports whether the plan can be applied.
func (p CascadePlan) Proceedable() bool {
	return len(p.Blocking) == 0
}

// Resolve decides which conflicting reservations a new reservation may
// displace.
//
// A normal-priority candidate displaces nothing: every conflict blocks it. A
// high-priority candidate (lab events only) cancels normal-priority conflicts,
// but any conflicting high-priority reservation blocks the whole operation —
// high never displaces high automatically; that ambiguity is for a human to
// resolve. Clearing ToCancel on a blocked plan is what prevents priority
// cycles: the cascade is computed before any mutation and rejected whole if it
// would need to touch a same-or-higher priority item.
func Resolve(candidate Reservation, conflicts []Reservation) CascadePlan {
	var plan CascadePlan

	if candidate.Priority != PriorityHigh {
		if len(conflicts) > 0 {
			plan.Blocking = append([]Reservation(nil), conflicts...)
		}
		return plan
	}

	for _, conflict := range conflicts {
		if conflict.Priority >= candidate.Priority {
			plan.Blocking = append(plan.Blocking, conflict)
			continue
		}
		plan.ToCancel = append(plan.ToCancel, conflict)
	}
	if len(plan.Blocking) > 0 {
		plan.ToCancel = nil
	}
	return plan
}
