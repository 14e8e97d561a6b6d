package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/lab-scheduler/internal/application"
)

type schedulerService interface {
	GetAvailableSlots(ctx context.Context, params application.AvailabilityParams) ([]application.SlotStatus, error)
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Reservation, error)
	CreateHighPriorityEvent(ctx context.Context, params application.CreateEventParams) (application.EventCreationResult, error)
	Cancel(ctx context.Context, params application.CancelParams) error
	UpdateTime(ctx context.Context, params application.UpdateTimeParams) (application.Reservation, error)
	ListZoneReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	CascadeCancellations(ctx context.Context, principal application.Principal, eventID string) ([]application.CancellationRecord, error)
}

// ReservationHandler serves availability, booking, event, and reservation
// lifecycle endpoints.
type ReservationHandler struct {
	service             schedulerService
	responder           responder
	defaultSlotDuration time.Duration
}

// NewReservationHandler builds the handler. defaultSlotDuration applies when
// an availability query omits slot_minutes.
func NewReservationHandler(service schedulerService, defaultSlotDuration time.Duration, logger *slog.Logger) *ReservationHandler {
	if defaultSlotDuration <= 0 {
		defaultSlotDuration = 30 * time.Minute
	}
	return &ReservationHandler{
		service:             service,
		responder:           newResponder(logger),
		defaultSlotDuration: defaultSlotDuration,
	}
}

// Availability handles GET /zones/{id}/availability?date=YYYY-MM-DD&slot_minutes=N.
func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	zoneID, ok := ZoneIDFromContext(r.Context())
	if !ok || zoneID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidZoneID)
		return
	}

	query := r.URL.Query()
	date, err := time.Parse("2006-01-02", query.Get("date"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST",
			errors.New("date must be supplied as YYYY-MM-DD"))
		return
	}

	slotDuration := h.defaultSlotDuration
	if raw := query.Get("slot_minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST",
				errors.New("slot_minutes must be an integer"))
			return
		}
		slotDuration = time.Duration(minutes) * time.Minute
	}

	principal, _ := PrincipalFromContext(r.Context())
	slots, err := h.service.GetAvailableSlots(r.Context(), application.AvailabilityParams{
		Principal:    principal,
		ZoneID:       zoneID,
		Date:         date,
		SlotDuration: slotDuration,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := struct {
		ZoneID string    `json:"zone_id"`
		Date   string    `json:"date"`
		Slots  []slotDTO `json:"slots"`
	}{
		ZoneID: zoneID,
		Date:   date.Format("2006-01-02"),
		Slots:  toSlotDTOs(slots),
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// ZoneReservations handles GET /zones/{id}/reservations?from=...&to=...
func (h *ReservationHandler) ZoneReservations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	zoneID, ok := ZoneIDFromContext(r.Context())
	if !ok || zoneID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidZoneID)
		return
	}

	query := r.URL.Query()
	from, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST",
			errors.New("from must be an RFC 3339 timestamp"))
		return
	}
	to, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST",
			errors.New("to must be an RFC 3339 timestamp"))
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListZoneReservations(r.Context(), application.ListReservationsParams{
		Principal: principal,
		ZoneID:    zoneID,
		From:      from,
		To:        to,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := struct {
		Reservations []reservationDTO `json:"reservations"`
	}{Reservations: toReservationDTOs(reservations)}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// CreateBooking handles POST /bookings.
func (h *ReservationHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}
	if err := validateStruct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(booking))
}

// CreateEvent handles POST /events.
func (h *ReservationHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}
	if err := validateStruct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.CreateHighPriorityEvent(r.Context(), application.CreateEventParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := struct {
		Event             reservationDTO    `json:"event"`
		CancelledBookings []cancellationDTO `json:"cancelled_bookings"`
		CancelledEvents   []cancellationDTO `json:"cancelled_events"`
	}{
		Event:             toReservationDTO(result.Event),
		CancelledBookings: toCancellationDTOs(result.CancelledBookings),
		CancelledEvents:   toCancellationDTOs(result.CancelledEvents),
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, payload)
}

// EventCancellations handles GET /events/{id}/cancellations.
func (h *ReservationHandler) EventCancellations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ReservationIDFromContext(r.Context())
	if !ok || eventID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	records, err := h.service.CascadeCancellations(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := struct {
		Cancellations []cancellationDTO `json:"cancellations"`
	}{Cancellations: toCancellationDTOs(records)}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Update handles PUT /reservations/{id}.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidReservationID)
		return
	}

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}
	if err := validateStruct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	start, _ := time.Parse(time.RFC3339, req.Start)
	end, _ := time.Parse(time.RFC3339, req.End)

	principal, _ := PrincipalFromContext(r.Context())
	updated, err := h.service.UpdateTime(r.Context(), application.UpdateTimeParams{
		Principal:       principal,
		ReservationID:   reservationID,
		ExpectedVersion: req.ExpectedVersion,
		Start:           start,
		End:             end,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(updated))
}

// Cancel handles POST /reservations/{id}/cancel. The body is optional; an
// expected_version field enables an optimistic concurrency check.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidReservationID)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	err := h.service.Cancel(r.Context(), application.CancelParams{
		Principal:       principal,
		ReservationID:   reservationID,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type bookingRequest struct {
	ZoneID  string `json:"zone_id" validate:"required"`
	LabID   string `json:"lab_id" validate:"required"`
	OwnerID string `json:"owner_id"`
	Start   string `json:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	End     string `json:"end" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func (r bookingRequest) toInput() application.BookingInput {
	start, _ := time.Parse(time.RFC3339, r.Start)
	end, _ := time.Parse(time.RFC3339, r.End)
	return application.BookingInput{
		ZoneID:  r.ZoneID,
		LabID:   r.LabID,
		OwnerID: r.OwnerID,
		Start:   start,
		End:     end,
	}
}

type eventRequest struct {
	ZoneID       string `json:"zone_id" validate:"required"`
	LabID        string `json:"lab_id" validate:"required"`
	OrganizerID  string `json:"organizer_id"`
	Start        string `json:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	End          string `json:"end" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	HighPriority bool   `json:"high_priority"`
}

func (r eventRequest) toInput() application.EventInput {
	start, _ := time.Parse(time.RFC3339, r.Start)
	end, _ := time.Parse(time.RFC3339, r.End)
	return application.EventInput{
		ZoneID:       r.ZoneID,
		LabID:        r.LabID,
		OrganizerID:  r.OrganizerID,
		Start:        start,
		End:          end,
		HighPriority: r.HighPriority,
	}
}

type updateReservationRequest struct {
	Start           string `json:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	End             string `json:"end" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ExpectedVersion int64  `json:"expected_version" validate:"required,min=1"`
}

type cancelRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

type reservationDTO struct {
	ID       string `json:"id"`
	ZoneID   string `json:"zone_id"`
	LabID    string `json:"lab_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Kind     string `json:"kind"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
	OwnerID  string `json:"owner_id"`
	Version  int64  `json:"version"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:       reservation.ID,
		ZoneID:   reservation.ZoneID,
		LabID:    reservation.LabID,
		Start:    reservation.Start.UTC().Format(time.RFC3339),
		End:      reservation.End.UTC().Format(time.RFC3339),
		Kind:     string(reservation.Kind),
		Priority: reservation.Priority.String(),
		Status:   string(reservation.Status),
		OwnerID:  reservation.OwnerID,
		Version:  reservation.Version,
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

type cancellationDTO struct {
	ReservationID string `json:"reservation_id"`
	Kind          string `json:"kind"`
	Start         string `json:"start"`
	End           string `json:"end"`
	ReasonCode    string `json:"reason_code"`
	CascadeRootID string `json:"cascade_root_id"`
	RecordedAt    string `json:"recorded_at"`
}

func toCancellationDTOs(records []application.CancellationRecord) []cancellationDTO {
	out := make([]cancellationDTO, 0, len(records))
	for _, record := range records {
		out = append(out, cancellationDTO{
			ReservationID: record.ReservationID,
			Kind:          string(record.Kind),
			Start:         record.Start.UTC().Format(time.RFC3339),
			End:           record.End.UTC().Format(time.RFC3339),
			ReasonCode:    record.ReasonCode,
			CascadeRootID: record.CascadeRootID,
			RecordedAt:    record.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

type slotDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

func toSlotDTOs(slots []application.SlotStatus) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{
			Start:     slot.Start.UTC().Format(time.RFC3339),
			End:       slot.End.UTC().Format(time.RFC3339),
			Available: slot.Available,
		})
	}
	return out
}
