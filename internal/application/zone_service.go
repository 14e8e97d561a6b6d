package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/lab-scheduler/internal/policy"
)

// ZoneStore captures the persistence interactions needed for zone management.
type ZoneStore interface {
	CreateZone(ctx context.Context, zone Zone) error
	UpdateZone(ctx context.Context, zone Zone) error
	GetZone(ctx context.Context, id string) (Zone, error)
	ListZones(ctx context.Context) ([]Zone, error)
	DeleteZone(ctx context.Context, id string) error
}

// ZoneService provides zone management operations.
type ZoneService struct {
	store       ZoneStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewZoneService wires dependencies for zone management.
func NewZoneService(store ZoneStore, idGenerator func() string, now func() time.Time) *ZoneService {
	return NewZoneServiceWithLogger(store, idGenerator, now, nil)
}

// NewZoneServiceWithLogger wires dependencies together with a logger.
func NewZoneServiceWithLogger(store ZoneStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ZoneService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ZoneService{store: store, idGenerator: idGenerator, now: now, logger: logger}
}

// CreateZone registers a new bookable zone.
func (s *ZoneService) CreateZone(ctx context.Context, principal Principal, input ZoneInput) (Zone, error) {
	if s == nil {
		return Zone{}, fmt.Errorf("ZoneService is nil")
	}
	if !policy.CanPerform(principal.Role, policy.ActionManageZones, false) {
		return Zone{}, ErrForbidden
	}
	if err := validateZoneInput(input); err != nil {
		return Zone{}, err
	}

	now := s.now()
	zone := Zone{
		ID:        s.idGenerator(),
		LabID:     input.LabID,
		Name:      input.Name,
		DayStart:  input.DayStart,
		DayEnd:    input.DayEnd,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateZone(ctx, zone); err != nil {
		return Zone{}, mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "zone created", "zone_id", zone.ID, "lab_id", zone.LabID)
	return zone, nil
}

// UpdateZone replaces the mutable fields of an existing zone. Changing the
// operating window never touches existing reservations; it only affects
// future availability queries.
func (s *ZoneService) UpdateZone(ctx context.Context, principal Principal, id string, input ZoneInput) (Zone, error) {
	if s == nil {
		return Zone{}, fmt.Errorf("ZoneService is nil")
	}
	if !policy.CanPerform(principal.Role, policy.ActionManageZones, false) {
		return Zone{}, ErrForbidden
	}
	if err := validateZoneInput(input); err != nil {
		return Zone{}, err
	}

	zone, err := s.store.GetZone(ctx, id)
	if err != nil {
		return Zone{}, mapRepoError(err)
	}

	zone.LabID = input.LabID
	zone.Name = input.Name
	zone.DayStart = input.DayStart
	zone.DayEnd = input.DayEnd
	zone.UpdatedAt = s.now()

	if err := s.store.UpdateZone(ctx, zone); err != nil {
		return Zone{}, mapRepoError(err)
	}
	return zone, nil
}

// GetZone retrieves a zone by id. Any authenticated role may look zones up.
func (s *ZoneService) GetZone(ctx context.Context, id string) (Zone, error) {
	if s == nil {
		return Zone{}, fmt.Errorf("ZoneService is nil")
	}
	zone, err := s.store.GetZone(ctx, id)
	if err != nil {
		return Zone{}, mapRepoError(err)
	}
	return zone, nil
}

// ListZones returns all zones.
func (s *ZoneService) ListZones(ctx context.Context, principal Principal) ([]Zone, error) {
	if s == nil {
		return nil, fmt.Errorf("ZoneService is nil")
	}
	if !policy.CanPerform(principal.Role, policy.ActionViewAvailability, false) {
		return nil, ErrForbidden
	}
	zones, err := s.store.ListZones(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return zones, nil
}

// DeleteZone removes a zone.
func (s *ZoneService) DeleteZone(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("ZoneService is nil")
	}
	if !policy.CanPerform(principal.Role, policy.ActionManageZones, false) {
		return ErrForbidden
	}
	if err := s.store.DeleteZone(ctx, id); err != nil {
		return mapRepoError(err)
	}

	s.logger.InfoContext(ctx, "zone deleted", "zone_id", id)
	return nil
}

func validateZoneInput(input ZoneInput) error {
	vErr := &ValidationError{}
	if input.LabID == "" {
		vErr.add("lab_id", "lab id is required")
	}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}

	dayStart, startErr := time.Parse("15:04", input.DayStart)
	if startErr != nil {
		vErr.add("day_start", "must be a clock time in HH:MM form")
	}
	dayEnd, endErr := time.Parse("15:04", input.DayEnd)
	if endErr != nil {
		vErr.add("day_end", "must be a clock time in HH:MM form")
	}
	if startErr == nil && endErr == nil && !dayStart.Before(dayEnd) {
		vErr.add("day_end", "must be after day_start")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
