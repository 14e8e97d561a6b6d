package persistence

import (
	"context"
	"time"
)

// ZoneRepository exposes CRUD operations for zones.
type ZoneRepository interface {
	CreateZone(ctx context.Context, zone Zone) error
	UpdateZone(ctx context.Context, zone Zone) error
	GetZone(ctx context.Context, id string) (Zone, error)
	ListZones(ctx context.Context) ([]Zone, error)
	DeleteZone(ctx context.Context, id string) error
}

// ReservationChangeSet describes the writes of one atomic scheduling
// operation. Updates are version-checked; creates are guarded against rows
// that appeared in the zone after the caller's read. Either everything in the
// set is applied or nothing is.
type ReservationChangeSet struct {
	Create        []Reservation
	Update        []Reservation
	Cancellations []CancellationRecord
}

// Empty reports whether the change set carries no writes.
func (cs ReservationChangeSet) Empty() bool {
	return len(cs.Create) == 0 && len(cs.Update) == 0 && len(cs.Cancellations) == 0
}

// ReservationRepository stores reservations and their cascade audit records.
type ReservationRepository interface {
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// ListReservations returns the reservations of a zone whose intervals
	// overlap [from, to), ordered by start time then id.
	ListReservations(ctx context.Context, zoneID string, from, to time.Time) ([]Reservation, error)
	// CommitAtomic applies the change set in a single transaction. A stale
	// update version or an active reservation overlapping a created one makes
	// the whole commit fail with ErrVersionConflict.
	CommitAtomic(ctx context.Context, changes ReservationChangeSet) error
	// ListCancellationRecords returns the audit records of one cascade,
	// ordered by reservation id.
	ListCancellationRecords(ctx context.Context, cascadeRootID string) ([]CancellationRecord, error)
}
