package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/testfixtures"
)

func TestZoneRoundTrip(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	zone := seedZone(t, store, testfixtures.NewZoneFixture(testfixtures.WithZoneWindow("08:00", "20:00")))

	got, err := store.GetZone(context.Background(), zone.ID)
	if err != nil {
		t.Fatalf("GetZone() error = %v", err)
	}
	if got.Name != zone.Name || got.DayStart != "08:00" || got.DayEnd != "20:00" {
		t.Errorf("got %+v, want %+v", got, zone)
	}
}

func TestZoneUpdate(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	zone := seedZone(t, store, testfixtures.NewZoneFixture())

	zone.Name = "Renamed"
	zone.DayEnd = "22:00"
	if err := store.UpdateZone(context.Background(), zone); err != nil {
		t.Fatalf("UpdateZone() error = %v", err)
	}

	got, err := store.GetZone(context.Background(), zone.ID)
	if err != nil {
		t.Fatalf("GetZone() error = %v", err)
	}
	if got.Name != "Renamed" || got.DayEnd != "22:00" {
		t.Errorf("got %+v after update", got)
	}
}

func TestZoneUpdateNotFound(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	ghost := testfixtures.NewZoneFixture(testfixtures.WithZoneID("ghost"))
	if err := store.UpdateZone(context.Background(), ghost); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestZoneListOrdering(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	seedZone(t, store, persistence.Zone{ID: "z2", LabID: "lab-1", Name: "Beta", DayStart: "09:00", DayEnd: "18:00"})
	seedZone(t, store, persistence.Zone{ID: "z1", LabID: "lab-1", Name: "Alpha", DayStart: "09:00", DayEnd: "18:00"})

	zones, err := store.ListZones(context.Background())
	if err != nil {
		t.Fatalf("ListZones() error = %v", err)
	}
	if len(zones) != 2 || zones[0].Name != "Alpha" || zones[1].Name != "Beta" {
		t.Errorf("zones = %+v, want ordered by name", zones)
	}
}

func TestZoneDeleteProtectedByReservations(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	zone := seedZone(t, store, testfixtures.NewZoneFixture())
	seedReservation(t, store, testfixtures.NewReservationFixture(
		testfixtures.WithReservationZone(zone.ID),
	))

	err := store.DeleteZone(context.Background(), zone.ID)
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Errorf("error = %v, want ErrForeignKeyViolation", err)
	}
}

func TestZoneDelete(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	zone := seedZone(t, store, testfixtures.NewZoneFixture())

	if err := store.DeleteZone(context.Background(), zone.ID); err != nil {
		t.Fatalf("DeleteZone() error = %v", err)
	}
	if _, err := store.GetZone(context.Background(), zone.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound after delete", err)
	}
}

func TestInvalidZoneWindowRejectedBySchema(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	bad := testfixtures.NewZoneFixture(testfixtures.WithZoneWindow("18:00", "09:00"))
	err := store.CreateZone(context.Background(), bad)
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Errorf("error = %v, want ErrConstraintViolation", err)
	}
}
