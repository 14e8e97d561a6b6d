package scheduling

// Kind distinguishes ordinary bookings from lab events.
type Kind string

const (
	// KindBooking is an ordinary member booking.
	KindBooking Kind = "booking"
	// KindEvent is a lab event created by a privileged role.
	KindEvent Kind = "event"
)

// Priority ranks reservations for conflict resolution. Ordering matters:
// lower values yield to higher ones during a cascade.
type Priority int

const (
	// PriorityNormal applies to bookings and ordinary events.
	PriorityNormal Priority = iota
	// PriorityHigh applies to lab events that may displace normal reservations.
	PriorityHigh
)

// String returns the wire representation of the priority.
func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "normal"
}

// Status tracks the reservation lifecycle. Cancelled is terminal; a cancelled
// reservation never re-enters scheduling decisions.
type Status string

const (
	// StatusPending marks a reservation created but not yet confirmed.
	StatusPending Status = "pending"
	// StatusConfirmed marks an active reservation.
	StatusConfirmed Status = "confirmed"
	// StatusCancelled marks a terminally cancelled reservation.
	StatusCancelled Status = "cancelled"
)

// Reservation is the projection of a persisted reservation that the conflict
// detector and cascade resolver operate on.
type Reservation struct {
	ID       string
	Interval Interval
	Kind     Kind
	Priority Priority
	Status   Status
}

// Active reports whether the reservation still occupies its interval.
func (r Reservation) Active() bool {
	return r.Status != StatusCancelled
}
