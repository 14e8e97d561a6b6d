package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/persistence/sqlite"
	"github.com/example/lab-scheduler/internal/scheduling"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "adapter_test.db") + "?_foreign_keys=on"
	store, err := sqlite.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func TestZoneStoreAdapterRoundTrip(t *testing.T) {
	t.Parallel()
	adapter := newZoneStoreAdapter(openStore(t))

	zone := application.Zone{
		ID:       "zone-1",
		LabID:    "lab-1",
		Name:     "Bench A",
		DayStart: "09:00",
		DayEnd:   "18:00",
	}
	if err := adapter.CreateZone(context.Background(), zone); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	got, err := adapter.GetZone(context.Background(), "zone-1")
	if err != nil {
		t.Fatalf("GetZone() error = %v", err)
	}
	if got.Name != "Bench A" || got.DayStart != "09:00" || got.DayEnd != "18:00" {
		t.Errorf("got %+v, want the stored zone", got)
	}
}

func TestReservationAdapterPreservesDomainTypes(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	zones := newZoneStoreAdapter(store)
	reservations := newReservationRepositoryAdapter(store)

	err := zones.CreateZone(context.Background(), application.Zone{
		ID: "zone-1", LabID: "lab-1", Name: "Bench A", DayStart: "09:00", DayEnd: "18:00",
	})
	if err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	event := application.Reservation{
		ID:        "event-1",
		ZoneID:    "zone-1",
		LabID:     "lab-1",
		Start:     start,
		End:       start.Add(time.Hour),
		Kind:      scheduling.KindEvent,
		Priority:  scheduling.PriorityHigh,
		Status:    scheduling.StatusConfirmed,
		OwnerID:   "manager-1",
		Version:   1,
		CreatedAt: start,
		UpdatedAt: start,
	}
	err = reservations.CommitAtomic(context.Background(), application.ReservationChangeSet{
		Create: []application.Reservation{event},
	})
	if err != nil {
		t.Fatalf("CommitAtomic() error = %v", err)
	}

	got, err := reservations.GetReservation(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("GetReservation() error = %v", err)
	}
	if got.Kind != scheduling.KindEvent || got.Priority != scheduling.PriorityHigh || got.Status != scheduling.StatusConfirmed {
		t.Errorf("got kind=%s priority=%d status=%s, want event/high/confirmed", got.Kind, got.Priority, got.Status)
	}

	window, err := scheduling.NewInterval(start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("NewInterval() error = %v", err)
	}
	listed, err := reservations.ListReservations(context.Background(), "zone-1", window)
	if err != nil {
		t.Fatalf("ListReservations() error = %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "event-1" {
		t.Errorf("listed = %+v, want event-1", listed)
	}
}
