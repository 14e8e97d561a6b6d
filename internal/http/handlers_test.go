package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/policy"
	"github.com/example/lab-scheduler/internal/scheduling"
)

type schedulerServiceStub struct {
	slots        []application.SlotStatus
	slotsErr     error
	booking      application.Reservation
	bookingErr   error
	eventResult  application.EventCreationResult
	eventErr     error
	cancelErr    error
	updated      application.Reservation
	updateErr    error
	reservations []application.Reservation
	listErr      error
	records      []application.CancellationRecord
	recordsErr   error

	lastCancel application.CancelParams
	lastUpdate application.UpdateTimeParams
}

func (s *schedulerServiceStub) GetAvailableSlots(_ context.Context, _ application.AvailabilityParams) ([]application.SlotStatus, error) {
	return s.slots, s.slotsErr
}

func (s *schedulerServiceStub) CreateBooking(_ context.Context, _ application.CreateBookingParams) (application.Reservation, error) {
	return s.booking, s.bookingErr
}

func (s *schedulerServiceStub) CreateHighPriorityEvent(_ context.Context, _ application.CreateEventParams) (application.EventCreationResult, error) {
	return s.eventResult, s.eventErr
}

func (s *schedulerServiceStub) Cancel(_ context.Context, params application.CancelParams) error {
	s.lastCancel = params
	return s.cancelErr
}

func (s *schedulerServiceStub) UpdateTime(_ context.Context, params application.UpdateTimeParams) (application.Reservation, error) {
	s.lastUpdate = params
	return s.updated, s.updateErr
}

func (s *schedulerServiceStub) ListZoneReservations(_ context.Context, _ application.ListReservationsParams) ([]application.Reservation, error) {
	return s.reservations, s.listErr
}

func (s *schedulerServiceStub) CascadeCancellations(_ context.Context, _ application.Principal, _ string) ([]application.CancellationRecord, error) {
	return s.records, s.recordsErr
}

func newTestRouter(service schedulerService) http.Handler {
	return NewRouter(RouterConfig{
		Reservations: NewReservationHandler(service, 30*time.Minute, nil),
		Middleware: []func(http.Handler) http.Handler{
			RequireActor(nil),
		},
	})
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Actor-Id", "alice")
	req.Header.Set("X-Actor-Role", "member")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var payload errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	return payload
}

func TestReservationHandlers(t *testing.T) {
	t.Parallel()

	t.Run("availability returns the slot grid", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{slots: []application.SlotStatus{
			{Start: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), End: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), Available: true},
			{Start: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), End: time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC), Available: false},
		}}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodGet, "/zones/zone-1/availability?date=2026-09-01&slot_minutes=60", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", recorder.Code, recorder.Body)
		}

		var payload struct {
			ZoneID string    `json:"zone_id"`
			Slots  []slotDTO `json:"slots"`
		}
		if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.ZoneID != "zone-1" || len(payload.Slots) != 2 {
			t.Errorf("payload = %+v, want zone-1 with 2 slots", payload)
		}
		if payload.Slots[1].Available {
			t.Error("second slot should be unavailable")
		}
	})

	t.Run("availability requires a date parameter", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&schedulerServiceStub{})

		recorder := doRequest(t, router, http.MethodGet, "/zones/zone-1/availability", "")
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})

	t.Run("slot conflicts map to 409 with blocking windows", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{bookingErr: &application.SlotUnavailableError{
			Conflicts: []application.BlockedWindow{{
				Start: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
			}},
		}}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodPost, "/bookings",
			`{"zone_id":"zone-1","lab_id":"lab-1","start":"2026-09-01T10:00:00Z","end":"2026-09-01T11:00:00Z"}`)
		if recorder.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409; body: %s", recorder.Code, recorder.Body)
		}

		payload := decodeError(t, recorder)
		if payload.ErrorCode != "SLOT_UNAVAILABLE" {
			t.Errorf("error_code = %s, want SLOT_UNAVAILABLE", payload.ErrorCode)
		}
		if len(payload.Conflicts) != 1 || payload.Conflicts[0].Start != "2026-09-01T10:00:00Z" {
			t.Errorf("conflicts = %+v, want the blocking window", payload.Conflicts)
		}
	})

	t.Run("version conflicts map to 409 VERSION_CONFLICT", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{updateErr: application.ErrVersionConflict}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodPut, "/reservations/res-1",
			`{"start":"2026-09-01T10:00:00Z","end":"2026-09-01T11:00:00Z","expected_version":1}`)
		if recorder.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", recorder.Code)
		}
		if payload := decodeError(t, recorder); payload.ErrorCode != "VERSION_CONFLICT" {
			t.Errorf("error_code = %s, want VERSION_CONFLICT", payload.ErrorCode)
		}
	})

	t.Run("forbidden operations map to 403", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{eventErr: application.ErrForbidden}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodPost, "/events",
			`{"zone_id":"zone-1","lab_id":"lab-1","start":"2026-09-01T10:00:00Z","end":"2026-09-01T11:00:00Z","high_priority":true}`)
		if recorder.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", recorder.Code)
		}
	})

	t.Run("validation failures map to 422 with field errors", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&schedulerServiceStub{})

		recorder := doRequest(t, router, http.MethodPost, "/bookings",
			`{"lab_id":"lab-1","start":"not-a-time","end":"2026-09-01T11:00:00Z"}`)
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422; body: %s", recorder.Code, recorder.Body)
		}

		payload := decodeError(t, recorder)
		if payload.ErrorCode != "VALIDATION_FAILED" {
			t.Errorf("error_code = %s, want VALIDATION_FAILED", payload.ErrorCode)
		}
		if _, ok := payload.Errors["zone_id"]; !ok {
			t.Errorf("errors = %v, want zone_id entry", payload.Errors)
		}
		if _, ok := payload.Errors["start"]; !ok {
			t.Errorf("errors = %v, want start entry", payload.Errors)
		}
	})

	t.Run("event creation reports the cascade", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{eventResult: application.EventCreationResult{
			Event: application.Reservation{
				ID:       "event-1",
				ZoneID:   "zone-1",
				Kind:     scheduling.KindEvent,
				Priority: scheduling.PriorityHigh,
				Status:   scheduling.StatusConfirmed,
			},
			CancelledBookings: []application.CancellationRecord{{
				ReservationID: "booking-1",
				Kind:          scheduling.KindBooking,
				ReasonCode:    application.ReasonDisplacedByHigherPriority,
				CascadeRootID: "event-1",
			}},
		}}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodPost, "/events",
			`{"zone_id":"zone-1","lab_id":"lab-1","start":"2026-09-01T09:00:00Z","end":"2026-09-01T11:00:00Z","high_priority":true}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201; body: %s", recorder.Code, recorder.Body)
		}

		var payload struct {
			Event             reservationDTO    `json:"event"`
			CancelledBookings []cancellationDTO `json:"cancelled_bookings"`
		}
		if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.Event.Priority != "high" {
			t.Errorf("event priority = %s, want high", payload.Event.Priority)
		}
		if len(payload.CancelledBookings) != 1 || payload.CancelledBookings[0].ReservationID != "booking-1" {
			t.Errorf("cancelled bookings = %+v, want booking-1", payload.CancelledBookings)
		}
	})

	t.Run("cancel accepts an empty body", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodPost, "/reservations/res-1/cancel", "")
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204; body: %s", recorder.Code, recorder.Body)
		}
		if service.lastCancel.ReservationID != "res-1" {
			t.Errorf("cancelled id = %s, want res-1", service.lastCancel.ReservationID)
		}
		if service.lastCancel.Principal.UserID != "alice" || service.lastCancel.Principal.Role != policy.RoleMember {
			t.Errorf("principal = %+v, want alice/member", service.lastCancel.Principal)
		}
	})

	t.Run("cancelling a cancelled reservation maps to 404", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{cancelErr: application.ErrNotFound}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodPost, "/reservations/res-1/cancel", "")
		if recorder.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", recorder.Code)
		}
	})

	t.Run("commit timeouts map to 503", func(t *testing.T) {
		t.Parallel()
		service := &schedulerServiceStub{bookingErr: application.ErrTimeout}
		router := newTestRouter(service)

		recorder := doRequest(t, router, http.MethodPost, "/bookings",
			`{"zone_id":"zone-1","lab_id":"lab-1","start":"2026-09-01T10:00:00Z","end":"2026-09-01T11:00:00Z"}`)
		if recorder.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", recorder.Code)
		}
	})

	t.Run("unknown subresources are 404", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&schedulerServiceStub{})

		recorder := doRequest(t, router, http.MethodGet, "/zones/zone-1/occupancy", "")
		if recorder.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", recorder.Code)
		}
	})

	t.Run("wrong methods are 405 with Allow header", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&schedulerServiceStub{})

		recorder := doRequest(t, router, http.MethodDelete, "/bookings", "")
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want 405", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodPost {
			t.Errorf("Allow = %s, want POST", allow)
		}
	})
}

type zoneServiceStub struct {
	zone    application.Zone
	zones   []application.Zone
	err     error
	deleted string
}

func (s *zoneServiceStub) CreateZone(_ context.Context, _ application.Principal, _ application.ZoneInput) (application.Zone, error) {
	return s.zone, s.err
}

func (s *zoneServiceStub) UpdateZone(_ context.Context, _ application.Principal, _ string, _ application.ZoneInput) (application.Zone, error) {
	return s.zone, s.err
}

func (s *zoneServiceStub) GetZone(_ context.Context, _ string) (application.Zone, error) {
	return s.zone, s.err
}

func (s *zoneServiceStub) ListZones(_ context.Context, _ application.Principal) ([]application.Zone, error) {
	return s.zones, s.err
}

func (s *zoneServiceStub) DeleteZone(_ context.Context, _ application.Principal, id string) error {
	s.deleted = id
	return s.err
}

func TestZoneHandlers(t *testing.T) {
	t.Parallel()

	newZoneRouter := func(service zoneService) http.Handler {
		return NewRouter(RouterConfig{
			Zones: NewZoneHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{
				RequireActor(nil),
			},
		})
	}

	t.Run("create returns the stored zone", func(t *testing.T) {
		t.Parallel()
		service := &zoneServiceStub{zone: application.Zone{ID: "zone-1", LabID: "lab-1", Name: "Bench A", DayStart: "09:00", DayEnd: "18:00"}}
		router := newZoneRouter(service)

		recorder := doRequest(t, router, http.MethodPost, "/zones",
			`{"lab_id":"lab-1","name":"Bench A","day_start":"09:00","day_end":"18:00"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201; body: %s", recorder.Code, recorder.Body)
		}

		var payload zoneDTO
		if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.ID != "zone-1" {
			t.Errorf("id = %s, want zone-1", payload.ID)
		}
	})

	t.Run("malformed operating window is 422", func(t *testing.T) {
		t.Parallel()
		router := newZoneRouter(&zoneServiceStub{})

		recorder := doRequest(t, router, http.MethodPost, "/zones",
			`{"lab_id":"lab-1","name":"Bench A","day_start":"nine","day_end":"18:00"}`)
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422; body: %s", recorder.Code, recorder.Body)
		}
		if payload := decodeError(t, recorder); payload.Errors["day_start"] == "" {
			t.Errorf("errors = %v, want day_start entry", payload.Errors)
		}
	})

	t.Run("delete routes the path id to the service", func(t *testing.T) {
		t.Parallel()
		service := &zoneServiceStub{}
		router := newZoneRouter(service)

		recorder := doRequest(t, router, http.MethodDelete, "/zones/zone-9", "")
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if service.deleted != "zone-9" {
			t.Errorf("deleted = %s, want zone-9", service.deleted)
		}
	})
}
