package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lab-scheduler/internal/persistence"
)

// ZoneRepository implements persistence.ZoneRepository on SQLite.
type ZoneRepository struct {
	pool *ConnectionPool
}

// NewZoneRepository creates a SQLite zone repository.
func NewZoneRepository(pool *ConnectionPool) *ZoneRepository {
	return &ZoneRepository{pool: pool}
}

// CreateZone inserts a new zone.
func (r *ZoneRepository) CreateZone(ctx context.Context, zone persistence.Zone) error {
	if zone.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	zone.CreatedAt = now
	zone.UpdatedAt = now

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO zones (id, lab_id, name, day_start, day_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		zone.ID, zone.LabID, zone.Name, zone.DayStart, zone.DayEnd,
		formatTime(zone.CreatedAt), formatTime(zone.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateZone updates an existing zone.
func (r *ZoneRepository) UpdateZone(ctx context.Context, zone persistence.Zone) error {
	if zone.ID == "" {
		return persistence.ErrNotFound
	}

	zone.UpdatedAt = time.Now().UTC()

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE zones
		SET lab_id = ?, name = ?, day_start = ?, day_end = ?, updated_at = ?
		WHERE id = ?`,
		zone.LabID, zone.Name, zone.DayStart, zone.DayEnd,
		formatTime(zone.UpdatedAt), zone.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetZone retrieves a zone by id.
func (r *ZoneRepository) GetZone(ctx context.Context, id string) (persistence.Zone, error) {
	if id == "" {
		return persistence.Zone{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, lab_id, name, day_start, day_end, created_at, updated_at
		FROM zones
		WHERE id = ?`, id)

	zone, err := scanZone(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Zone{}, persistence.ErrNotFound
		}
		return persistence.Zone{}, mapSQLiteError(err)
	}
	return zone, nil
}

// ListZones returns all zones ordered by name then id.
func (r *ZoneRepository) ListZones(ctx context.Context) ([]persistence.Zone, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, lab_id, name, day_start, day_end, created_at, updated_at
		FROM zones
		ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var zones []persistence.Zone
	for rows.Next() {
		zone, err := scanZone(rows.Scan)
		if err != nil {
			return nil, mapSQLiteError(err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return zones, nil
}

// DeleteZone removes a zone by id. Zones referenced by reservations are
// protected by the foreign key and surface ErrForeignKeyViolation.
func (r *ZoneRepository) DeleteZone(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM zones WHERE id = ?", id)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanZone(scan func(dest ...any) error) (persistence.Zone, error) {
	var zone persistence.Zone
	var createdAt, updatedAt string

	if err := scan(&zone.ID, &zone.LabID, &zone.Name, &zone.DayStart, &zone.DayEnd, &createdAt, &updatedAt); err != nil {
		return persistence.Zone{}, err
	}

	var err error
	if zone.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Zone{}, err
	}
	if zone.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Zone{}, err
	}
	return zone, nil
}
