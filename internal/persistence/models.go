package persistence

import "time"

// Zone is the stored form of a bookable lab zone, including the operating
// window inside which availability slots are generated.
type Zone struct {
	ID        string
	LabID     string
	Name      string
	DayStart  string // "15:04" clock time
	DayEnd    string // "15:04" clock time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is the stored form of a booking or lab event. Version is the
// optimistic concurrency token; every version-checked update increments it.
type Reservation struct {
	ID        string
	ZoneID    string
	LabID     string
	StartTime time.Time
	EndTime   time.Time
	Kind      string
	Priority  int
	Status    string
	OwnerID   string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CancellationRecord is the append-only audit row written when a cascade
// displaces a reservation. Records are never updated or deleted.
type CancellationRecord struct {
	ReservationID string
	Kind          string
	StartTime     time.Time
	EndTime       time.Time
	ReasonCode    string
	CascadeRootID string
	RecordedAt    time.Time
}
