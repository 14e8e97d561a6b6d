package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/lab-scheduler/internal/metrics"
	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/policy"
	"github.com/example/lab-scheduler/internal/scheduling"
)

// ReservationChangeSet describes the writes of one atomic scheduling
// operation handed to the persistence collaborator.
type ReservationChangeSet struct {
	Create        []Reservation
	Update        []Reservation
	Cancellations []CancellationRecord
}

// ReservationRepository captures the persistence interactions needed by the
// scheduler. Implementations must make CommitAtomic all-or-nothing and fail
// it with a version conflict when any touched record changed since the read.
type ReservationRepository interface {
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, zoneID string, window scheduling.Interval) ([]Reservation, error)
	CommitAtomic(ctx context.Context, changes ReservationChangeSet) error
	ListCancellationRecords(ctx context.Context, cascadeRootID string) ([]CancellationRecord, error)
}

// ZoneCatalog exposes zone lookup operations.
type ZoneCatalog interface {
	GetZone(ctx context.Context, id string) (Zone, error)
}

// CancellationNotifier announces cascade cancellations downstream. Delivery
// is at-least-once and happens only after the atomic commit; a publish
// failure never rolls anything back.
type CancellationNotifier interface {
	PublishCancelled(ctx context.Context, record CancellationRecord) error
}

// SchedulerService orchestrates availability queries, booking and event
// creation with cascade resolution, and reservation mutation.
type SchedulerService struct {
	reservations  ReservationRepository
	zones         ZoneCatalog
	notifier      CancellationNotifier
	idGenerator   func() string
	now           func() time.Time
	location      *time.Location
	commitTimeout time.Duration
	logger        *slog.Logger
}

// NewSchedulerService wires dependencies for scheduling operations. The
// location is the single zone all operating windows are interpreted in;
// commitTimeout bounds the atomic commit step.
func NewSchedulerService(reservations ReservationRepository, zones ZoneCatalog, notifier CancellationNotifier, idGenerator func() string, now func() time.Time, location *time.Location, commitTimeout time.Duration) *SchedulerService {
	return NewSchedulerServiceWithLogger(reservations, zones, notifier, idGenerator, now, location, commitTimeout, nil)
}

// NewSchedulerServiceWithLogger wires dependencies together with a logger.
func NewSchedulerServiceWithLogger(reservations ReservationRepository, zones ZoneCatalog, notifier CancellationNotifier, idGenerator func() string, now func() time.Time, location *time.Location, commitTimeout time.Duration, logger *slog.Logger) *SchedulerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	if commitTimeout <= 0 {
		commitTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SchedulerService{
		reservations:  reservations,
		zones:         zones,
		notifier:      notifier,
		idGenerator:   idGenerator,
		now:           now,
		location:      location,
		commitTimeout: commitTimeout,
		logger:        logger,
	}
}

// GetAvailableSlots returns the availability grid of a zone for one day.
// Slots touching any active reservation are unavailable; that includes
// high-priority events, which are never reported free regardless of cascade
// eligibility — displacing them takes an explicit, audited action, not a
// passive booking. The result depends only on stored state, so repeated
// calls with unchanged state return identical grids.
func (s *SchedulerService) GetAvailableSlots(ctx context.Context, params AvailabilityParams) ([]SlotStatus, error) {
	if s == nil {
		return nil, fmt.Errorf("SchedulerService is nil")
	}
	if !policy.CanPerform(params.Principal.Role, policy.ActionViewAvailability, false) {
		return nil, ErrForbidden
	}

	vErr := &ValidationError{}
	if params.ZoneID == "" {
		vErr.add("zone_id", "zone id is required")
	}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if params.SlotDuration <= 0 {
		vErr.add("slot_minutes", "slot duration must be positive")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	zone, err := s.zones.GetZone(ctx, params.ZoneID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	window, err := s.operatingWindow(zone, params.Date)
	if err != nil {
		return nil, err
	}

	existing, err := s.reservations.ListReservations(ctx, params.ZoneID, window)
	if err != nil {
		return nil, mapRepoError(err)
	}

	busy := make([]scheduling.Interval, 0, len(existing))
	for _, reservation := range existing {
		if reservation.Status == scheduling.StatusCancelled {
			continue
		}
		busy = append(busy, scheduling.Interval{Start: reservation.Start, End: reservation.End})
	}

	free, err := scheduling.FreeSlots(window, params.SlotDuration, busy)
	if err != nil {
		if errors.Is(err, scheduling.ErrInvalidConfiguration) {
			vErr.add("slot_minutes", "slot duration must be positive")
			return nil, vErr
		}
		return nil, err
	}

	var slots []SlotStatus
	fi := 0
	for start := window.Start; ; start = start.Add(params.SlotDuration) {
		end := start.Add(params.SlotDuration)
		if end.After(window.End) {
			break
		}
		available := false
		if fi < len(free) && free[fi].Start.Equal(start) {
			available = true
			fi++
		}
		slots = append(slots, SlotStatus{Start: start, End: end, Available: available})
	}
	return slots, nil
}

// CreateBooking creates a normal-priority booking. Any active conflicting
// reservation blocks it; bookings never displace anything.
func (s *SchedulerService) CreateBooking(ctx context.Context, params CreateBookingParams) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("SchedulerService is nil")
	}

	input := params.Input
	if input.OwnerID == "" {
		input.OwnerID = params.Principal.UserID
	}

	if !policy.CanPerform(params.Principal.Role, policy.ActionCreateBooking, input.OwnerID == params.Principal.UserID) {
		return Reservation{}, ErrForbidden
	}

	interval, err := s.validateReservationInput(input.ZoneID, input.LabID, input.OwnerID, input.Start, input.End)
	if err != nil {
		return Reservation{}, err
	}

	existing, err := s.reservations.ListReservations(ctx, input.ZoneID, interval)
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}

	conflicts := scheduling.FindConflicts(interval, toSchedulingReservations(existing, ""))
	if len(conflicts) > 0 {
		metrics.SlotConflictsTotal.Inc()
		return Reservation{}, &SlotUnavailableError{Conflicts: blockedWindows(conflicts)}
	}

	createdAt := s.now()
	booking := Reservation{
		ID:        s.idGenerator(),
		ZoneID:    input.ZoneID,
		LabID:     input.LabID,
		Start:     interval.Start,
		End:       interval.End,
		Kind:      scheduling.KindBooking,
		Priority:  scheduling.PriorityNormal,
		Status:    scheduling.StatusConfirmed,
		OwnerID:   input.OwnerID,
		Version:   1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	if err := s.commit(ctx, ReservationChangeSet{Create: []Reservation{booking}}); err != nil {
		return Reservation{}, err
	}

	s.logger.InfoContext(ctx, "booking created",
		"booking_id", booking.ID, "zone_id", booking.ZoneID, "owner_id", booking.OwnerID)
	return booking, nil
}

// CreateHighPriorityEvent creates a lab event. A high-priority event cancels
// every conflicting normal-priority reservation in one atomic unit; any
// conflicting high-priority reservation aborts the whole operation instead.
// Cancellation notifications go out only after the commit succeeds.
func (s *SchedulerService) CreateHighPriorityEvent(ctx context.Context, params CreateEventParams) (EventCreationResult, error) {
	if s == nil {
		return EventCreationResult{}, fmt.Errorf("SchedulerService is nil")
	}

	input := params.Input
	if input.OrganizerID == "" {
		input.OrganizerID = params.Principal.UserID
	}

	if !policy.CanPerform(params.Principal.Role, policy.ActionCreateEvent, input.OrganizerID == params.Principal.UserID) {
		return EventCreationResult{}, ErrForbidden
	}

	interval, err := s.validateReservationInput(input.ZoneID, input.LabID, input.OrganizerID, input.Start, input.End)
	if err != nil {
		return EventCreationResult{}, err
	}

	priority := scheduling.PriorityNormal
	if input.HighPriority {
		priority = scheduling.PriorityHigh
	}

	createdAt := s.now()
	event := Reservation{
		ID:        s.idGenerator(),
		ZoneID:    input.ZoneID,
		LabID:     input.LabID,
		Start:     interval.Start,
		End:       interval.End,
		Kind:      scheduling.KindEvent,
		Priority:  priority,
		Status:    scheduling.StatusConfirmed,
		OwnerID:   input.OrganizerID,
		Version:   1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	existing, err := s.reservations.ListReservations(ctx, input.ZoneID, interval)
	if err != nil {
		return EventCreationResult{}, mapRepoError(err)
	}

	conflicts := scheduling.FindConflicts(interval, toSchedulingReservations(existing, ""))
	plan := scheduling.Resolve(toSchedulingReservation(event), conflicts)
	if !plan.Proceedable() {
		metrics.SlotConflictsTotal.Inc()
		return EventCreationResult{}, &SlotUnavailableError{Conflicts: blockedWindows(plan.Blocking)}
	}

	byID := make(map[string]Reservation, len(existing))
	for _, reservation := range existing {
		byID[reservation.ID] = reservation
	}

	cancelled := make([]Reservation, 0, len(plan.ToCancel))
	records := make([]CancellationRecord, 0, len(plan.ToCancel))
	for _, victim := range plan.ToCancel {
		reservation, ok := byID[victim.ID]
		if !ok {
			return EventCreationResult{}, fmt.Errorf("cascade references unknown reservation %s", victim.ID)
		}
		reservation.Status = scheduling.StatusCancelled
		reservation.UpdatedAt = createdAt
		cancelled = append(cancelled, reservation)
		records = append(records, CancellationRecord{
			ReservationID: reservation.ID,
			Kind:          reservation.Kind,
			Start:         reservation.Start,
			End:           reservation.End,
			ReasonCode:    ReasonDisplacedByHigherPriority,
			CascadeRootID: event.ID,
			RecordedAt:    createdAt,
		})
	}

	err = s.commit(ctx, ReservationChangeSet{
		Create:        []Reservation{event},
		Update:        cancelled,
		Cancellations: records,
	})
	if err != nil {
		return EventCreationResult{}, err
	}

	s.logger.InfoContext(ctx, "event created",
		"event_id", event.ID, "zone_id", event.ZoneID,
		"priority", event.Priority.String(), "cancelled", len(records))

	for _, record := range records {
		metrics.CascadeCancellationsTotal.WithLabelValues(string(record.Kind)).Inc()
	}
	s.publishCancellations(ctx, records)

	result := EventCreationResult{Event: event}
	for _, record := range records {
		if record.Kind == scheduling.KindEvent {
			result.CancelledEvents = append(result.CancelledEvents, record)
		} else {
			result.CancelledBookings = append(result.CancelledBookings, record)
		}
	}
	return result, nil
}

// Cancel transitions a reservation to its terminal cancelled state. Already
// cancelled or unknown reservations report not found. When ExpectedVersion is
// nonzero it must match the stored version.
func (s *SchedulerService) Cancel(ctx context.Context, params CancelParams) error {
	if s == nil {
		return fmt.Errorf("SchedulerService is nil")
	}

	reservation, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return mapRepoError(err)
	}
	if reservation.Status == scheduling.StatusCancelled {
		return ErrNotFound
	}

	if !policy.CanPerform(params.Principal.Role, policy.ActionCancelReservation, reservation.OwnerID == params.Principal.UserID) {
		return ErrForbidden
	}

	if params.ExpectedVersion != 0 && params.ExpectedVersion != reservation.Version {
		return ErrVersionConflict
	}

	reservation.Status = scheduling.StatusCancelled
	reservation.UpdatedAt = s.now()

	if err := s.commit(ctx, ReservationChangeSet{Update: []Reservation{reservation}}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "reservation cancelled",
		"reservation_id", reservation.ID, "zone_id", reservation.ZoneID)
	return nil
}

// UpdateTime moves a reservation to a new interval. The caller must supply
// the version it last read; conflict detection runs against the new interval
// with the reservation's own record excluded.
func (s *SchedulerService) UpdateTime(ctx context.Context, params UpdateTimeParams) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("SchedulerService is nil")
	}

	reservation, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}
	if reservation.Status == scheduling.StatusCancelled {
		return Reservation{}, ErrNotFound
	}

	if !policy.CanPerform(params.Principal.Role, policy.ActionUpdateReservation, reservation.OwnerID == params.Principal.UserID) {
		return Reservation{}, ErrForbidden
	}

	if params.ExpectedVersion != reservation.Version {
		return Reservation{}, ErrVersionConflict
	}

	interval, err := scheduling.NewInterval(params.Start, params.End)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return Reservation{}, vErr
	}

	existing, err := s.reservations.ListReservations(ctx, reservation.ZoneID, interval)
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}

	conflicts := scheduling.FindConflicts(interval, toSchedulingReservations(existing, reservation.ID))
	if len(conflicts) > 0 {
		metrics.SlotConflictsTotal.Inc()
		return Reservation{}, &SlotUnavailableError{Conflicts: blockedWindows(conflicts)}
	}

	reservation.Start = interval.Start
	reservation.End = interval.End
	reservation.UpdatedAt = s.now()

	if err := s.commit(ctx, ReservationChangeSet{Update: []Reservation{reservation}}); err != nil {
		return Reservation{}, err
	}

	updated, err := s.reservations.GetReservation(ctx, reservation.ID)
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}
	return updated, nil
}

// ListZoneReservations returns a zone's reservations inside [from, to).
// Members see only their own; privileged roles see everything.
func (s *SchedulerService) ListZoneReservations(ctx context.Context, params ListReservationsParams) ([]Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("SchedulerService is nil")
	}

	unrestricted := policy.CanPerform(params.Principal.Role, policy.ActionViewReservations, false)
	if !unrestricted && !policy.CanPerform(params.Principal.Role, policy.ActionViewReservations, true) {
		return nil, ErrForbidden
	}

	window, err := scheduling.NewInterval(params.From, params.To)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("window", "from must be before to")
		return nil, vErr
	}

	reservations, err := s.reservations.ListReservations(ctx, params.ZoneID, window)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if unrestricted {
		return reservations, nil
	}
	var own []Reservation
	for _, reservation := range reservations {
		if reservation.OwnerID == params.Principal.UserID {
			own = append(own, reservation)
		}
	}
	return own, nil
}

// CascadeCancellations returns the audit records of the cascade rooted at the
// given event.
func (s *SchedulerService) CascadeCancellations(ctx context.Context, principal Principal, eventID string) ([]CancellationRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("SchedulerService is nil")
	}

	event, err := s.reservations.GetReservation(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if !policy.CanPerform(principal.Role, policy.ActionViewReservations, event.OwnerID == principal.UserID) {
		return nil, ErrForbidden
	}

	records, err := s.reservations.ListCancellationRecords(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}

func (s *SchedulerService) validateReservationInput(zoneID, labID, ownerID string, start, end time.Time) (scheduling.Interval, error) {
	vErr := &ValidationError{}
	if zoneID == "" {
		vErr.add("zone_id", "zone id is required")
	}
	if labID == "" {
		vErr.add("lab_id", "lab id is required")
	}
	if ownerID == "" {
		vErr.add("owner_id", "owner id is required")
	}

	interval, err := scheduling.NewInterval(start, end)
	if err != nil {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		return scheduling.Interval{}, vErr
	}
	return interval, nil
}

// commit runs the atomic write step under its own short deadline so a slow
// store surfaces a timeout instead of holding the request.
func (s *SchedulerService) commit(ctx context.Context, changes ReservationChangeSet) error {
	commitCtx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	if err := s.reservations.CommitAtomic(commitCtx, changes); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return mapRepoError(err)
	}
	return nil
}

func (s *SchedulerService) publishCancellations(ctx context.Context, records []CancellationRecord) {
	if s.notifier == nil {
		return
	}
	for _, record := range records {
		if err := s.notifier.PublishCancelled(ctx, record); err != nil {
			// The commit already happened; downstream consumers tolerate
			// duplicates, so the record will be re-announced elsewhere.
			s.logger.WarnContext(ctx, "failed to publish cancellation",
				"reservation_id", record.ReservationID, "error", err)
		}
	}
}

func toSchedulingReservation(reservation Reservation) scheduling.Reservation {
	return scheduling.Reservation{
		ID:       reservation.ID,
		Interval: scheduling.Interval{Start: reservation.Start, End: reservation.End},
		Kind:     reservation.Kind,
		Priority: reservation.Priority,
		Status:   reservation.Status,
	}
}

// toSchedulingReservations projects reservations for the detector, optionally
// excluding one id (a reservation never conflicts with itself on update).
func toSchedulingReservations(reservations []Reservation, excludeID string) []scheduling.Reservation {
	out := make([]scheduling.Reservation, 0, len(reservations))
	for _, reservation := range reservations {
		if excludeID != "" && reservation.ID == excludeID {
			continue
		}
		out = append(out, toSchedulingReservation(reservation))
	}
	return out
}

func blockedWindows(conflicts []scheduling.Reservation) []BlockedWindow {
	windows := make([]BlockedWindow, 0, len(conflicts))
	for _, conflict := range conflicts {
		windows = append(windows, BlockedWindow{Start: conflict.Interval.Start, End: conflict.Interval.End})
	}
	return windows
}

func (s *SchedulerService) operatingWindow(zone Zone, date time.Time) (scheduling.Interval, error) {
	dayStart, err := time.Parse("15:04", zone.DayStart)
	if err != nil {
		return scheduling.Interval{}, fmt.Errorf("zone %s has malformed day_start %q: %w", zone.ID, zone.DayStart, err)
	}
	dayEnd, err := time.Parse("15:04", zone.DayEnd)
	if err != nil {
		return scheduling.Interval{}, fmt.Errorf("zone %s has malformed day_end %q: %w", zone.ID, zone.DayEnd, err)
	}

	day := date.In(s.location)
	start := time.Date(day.Year(), day.Month(), day.Day(), dayStart.Hour(), dayStart.Minute(), 0, 0, s.location)
	end := time.Date(day.Year(), day.Month(), day.Day(), dayEnd.Hour(), dayEnd.Minute(), 0, 0, s.location)
	return scheduling.NewInterval(start, end)
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrVersionConflict), errors.Is(err, persistence.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("zone_id", "zone is referenced by reservations or does not exist")
		return vErr
	default:
		return err
	}
}
