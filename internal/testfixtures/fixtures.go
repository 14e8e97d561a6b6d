// Package testfixtures provides deterministic builders for persistence models
// shared by repository and service tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/lab-scheduler/internal/persistence"
)

var (
	zoneCounter        uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ZoneOption configures the generated zone fixture.
type ZoneOption func(*persistence.Zone)

// NewZoneFixture returns a deterministic zone record with optional overrides.
func NewZoneFixture(opts ...ZoneOption) persistence.Zone {
	idx := atomic.AddUint64(&zoneCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	zone := persistence.Zone{
		ID:        fmt.Sprintf("zone-%03d", idx),
		LabID:     "lab-001",
		Name:      fmt.Sprintf("Zone %03d", idx),
		DayStart:  "09:00",
		DayEnd:    "18:00",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&zone)
	}
	return zone
}

// WithZoneID overrides the generated zone ID.
func WithZoneID(id string) ZoneOption {
	return func(z *persistence.Zone) {
		z.ID = id
	}
}

// WithZoneWindow overrides the operating window.
func WithZoneWindow(dayStart, dayEnd string) ZoneOption {
	return func(z *persistence.Zone) {
		z.DayStart = dayStart
		z.DayEnd = dayEnd
	}
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*persistence.Reservation)

// NewReservationFixture returns a deterministic confirmed booking with
// optional overrides. Each fixture occupies its own hour so fixtures created
// in sequence never overlap unless a test asks them to.
func NewReservationFixture(opts ...ReservationOption) persistence.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	reservation := persistence.Reservation{
		ID:        fmt.Sprintf("reservation-%03d", idx),
		ZoneID:    "zone-001",
		LabID:     "lab-001",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Kind:      "booking",
		Priority:  0,
		Status:    "confirmed",
		OwnerID:   fmt.Sprintf("user-%03d", idx),
		Version:   1,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.ID = id
	}
}

// WithReservationZone assigns the reservation to a zone.
func WithReservationZone(zoneID string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.ZoneID = zoneID
	}
}

// WithReservationInterval overrides the reserved time range.
func WithReservationInterval(start, end time.Time) ReservationOption {
	return func(r *persistence.Reservation) {
		r.StartTime = start
		r.EndTime = end
	}
}

// WithReservationKind sets kind and, for events, leaves priority to the caller.
func WithReservationKind(kind string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Kind = kind
	}
}

// WithReservationPriority overrides the priority level.
func WithReservationPriority(priority int) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Priority = priority
	}
}

// WithReservationStatus overrides the lifecycle status.
func WithReservationStatus(status string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Status = status
	}
}

// WithReservationOwner overrides the owning user.
func WithReservationOwner(ownerID string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.OwnerID = ownerID
	}
}
