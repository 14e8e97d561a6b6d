package application

import (
	"time"

	"github.com/example/lab-scheduler/internal/policy"
	"github.com/example/lab-scheduler/internal/scheduling"
)

// Principal represents the authenticated actor invoking a service method.
// Authentication happens upstream; services only ever see this explicit value.
type Principal struct {
	UserID string
	Role   policy.Role
}

// Reservation unifies bookings and lab events for scheduling purposes.
type Reservation struct {
	ID        string
	ZoneID    string
	LabID     string
	Start     time.Time
	End       time.Time
	Kind      scheduling.Kind
	Priority  scheduling.Priority
	Status    scheduling.Status
	OwnerID   string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReasonDisplacedByHigherPriority is the reason code stamped on every record
// a cascade produces.
const ReasonDisplacedByHigherPriority = "displaced_by_higher_priority"

// CancellationRecord is the append-only audit entry for a reservation a
// cascade removed.
type CancellationRecord struct {
	ReservationID string
	Kind          scheduling.Kind
	Start         time.Time
	End           time.Time
	ReasonCode    string
	CascadeRootID string
	RecordedAt    time.Time
}

// SlotStatus is one availability grid entry: a candidate slot and whether it
// can currently be booked.
type SlotStatus struct {
	Start     time.Time
	End       time.Time
	Available bool
}

// Zone is a bookable sub-area of a lab with its daily operating window.
type Zone struct {
	ID        string
	LabID     string
	Name      string
	DayStart  string // "15:04" clock time
	DayEnd    string // "15:04" clock time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ZoneInput captures caller provided zone fields.
type ZoneInput struct {
	LabID    string
	Name     string
	DayStart string
	DayEnd   string
}

// AvailabilityParams wraps the data required to query the availability grid.
type AvailabilityParams struct {
	Principal    Principal
	ZoneID       string
	Date         time.Time
	SlotDuration time.Duration
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	ZoneID  string
	LabID   string
	OwnerID string
	Start   time.Time
	End     time.Time
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// EventInput captures caller provided lab event fields.
type EventInput struct {
	ZoneID       string
	LabID        string
	OrganizerID  string
	Start        time.Time
	End          time.Time
	HighPriority bool
}

// CreateEventParams wraps the data required to create a lab event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// EventCreationResult reports the confirmed event together with everything
// the cascade displaced, split by kind for the caller's convenience.
type EventCreationResult struct {
	Event             Reservation
	CancelledBookings []CancellationRecord
	CancelledEvents   []CancellationRecord
}

// CancelParams wraps the data required to cancel a reservation. When
// ExpectedVersion is zero the version read during the operation is used.
type CancelParams struct {
	Principal       Principal
	ReservationID   string
	ExpectedVersion int64
}

// UpdateTimeParams wraps the data required to move a reservation.
type UpdateTimeParams struct {
	Principal       Principal
	ReservationID   string
	ExpectedVersion int64
	Start           time.Time
	End             time.Time
}

// ListReservationsParams wraps the data required to list a zone's
// reservations inside a time window.
type ListReservationsParams struct {
	Principal Principal
	ZoneID    string
	From      time.Time
	To        time.Time
}
