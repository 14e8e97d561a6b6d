package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lab-scheduler/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository on SQLite.
type ReservationRepository struct {
	pool *ConnectionPool
}

// NewReservationRepository creates a SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// GetReservation retrieves a reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, zone_id, lab_id, start_time, end_time, kind, priority, status, owner_id, version, created_at, updated_at
		FROM reservations
		WHERE id = ?`, id)

	reservation, err := scanReservation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, mapSQLiteError(err)
	}
	return reservation, nil
}

// ListReservations returns the reservations of a zone overlapping [from, to),
// ordered by start time then id.
func (r *ReservationRepository) ListReservations(ctx context.Context, zoneID string, from, to time.Time) ([]persistence.Reservation, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, zone_id, lab_id, start_time, end_time, kind, priority, status, owner_id, version, created_at, updated_at
		FROM reservations
		WHERE zone_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC, id ASC`,
		zoneID, formatTime(to), formatTime(from),
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, mapSQLiteError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return reservations, nil
}

// CommitAtomic applies a change set in one transaction.
//
// Updates run first with a version-checked conditional write, so a cascade's
// cancellations are visible before the new event is inserted. Both writes are
// guarded by an in-transaction re-check for active overlapping rows: any
// overlap present at commit time means the caller decided on stale state, and
// the whole commit fails with ErrVersionConflict so the caller can retry from
// the top. Updates that cancel a reservation skip the guard, since a cancelled
// row occupies no slot. Cancellation audit records go in last. Transient lock
// contention is retried with backoff.
func (r *ReservationRepository) CommitAtomic(ctx context.Context, changes persistence.ReservationChangeSet) error {
	if changes.Empty() {
		return nil
	}

	return withRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, reservation := range changes.Update {
				if err := applyVersionedUpdate(tx, reservation); err != nil {
					return err
				}
			}
			for _, reservation := range changes.Create {
				if err := insertGuarded(tx, reservation); err != nil {
					return err
				}
			}
			for _, record := range changes.Cancellations {
				if err := insertCancellationRecord(tx, record); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// ListCancellationRecords returns the audit records of one cascade.
func (r *ReservationRepository) ListCancellationRecords(ctx context.Context, cascadeRootID string) ([]persistence.CancellationRecord, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT reservation_id, kind, start_time, end_time, reason_code, cascade_root_id, recorded_at
		FROM cancellation_records
		WHERE cascade_root_id = ?
		ORDER BY reservation_id ASC`, cascadeRootID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var records []persistence.CancellationRecord
	for rows.Next() {
		var record persistence.CancellationRecord
		var startTime, endTime, recordedAt string
		if err := rows.Scan(&record.ReservationID, &record.Kind, &startTime, &endTime,
			&record.ReasonCode, &record.CascadeRootID, &recordedAt); err != nil {
			return nil, mapSQLiteError(err)
		}
		if record.StartTime, err = parseTime(startTime); err != nil {
			return nil, err
		}
		if record.EndTime, err = parseTime(endTime); err != nil {
			return nil, err
		}
		if record.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return records, nil
}

func applyVersionedUpdate(tx *sql.Tx, reservation persistence.Reservation) error {
	result, err := tx.Exec(`
		UPDATE reservations
		SET start_time = ?, end_time = ?, status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		formatTime(reservation.StartTime),
		formatTime(reservation.EndTime),
		reservation.Status,
		formatTime(reservation.UpdatedAt),
		reservation.ID,
		reservation.Version,
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		if reservation.Status == "cancelled" {
			return nil
		}
		return checkNoActiveOverlap(tx, reservation)
	}

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM reservations WHERE id = ?", reservation.ID).Scan(&exists); err != nil {
		return mapSQLiteError(err)
	}
	if exists == 0 {
		return persistence.ErrNotFound
	}
	return persistence.ErrVersionConflict
}

// checkNoActiveOverlap fails the transaction when another active reservation
// occupies any part of the reservation's window.
func checkNoActiveOverlap(tx *sql.Tx, reservation persistence.Reservation) error {
	var overlapping int
	err := tx.QueryRow(`
		SELECT COUNT(*)
		FROM reservations
		WHERE zone_id = ? AND status != 'cancelled' AND start_time < ? AND end_time > ? AND id != ?`,
		reservation.ZoneID,
		formatTime(reservation.EndTime),
		formatTime(reservation.StartTime),
		reservation.ID,
	).Scan(&overlapping)
	if err != nil {
		return mapSQLiteError(err)
	}
	if overlapping > 0 {
		return persistence.ErrVersionConflict
	}
	return nil
}

func insertGuarded(tx *sql.Tx, reservation persistence.Reservation) error {
	if err := checkNoActiveOverlap(tx, reservation); err != nil {
		return err
	}

	_, err := tx.Exec(`
		INSERT INTO reservations (id, zone_id, lab_id, start_time, end_time, kind, priority, status, owner_id, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID,
		reservation.ZoneID,
		reservation.LabID,
		formatTime(reservation.StartTime),
		formatTime(reservation.EndTime),
		reservation.Kind,
		reservation.Priority,
		reservation.Status,
		reservation.OwnerID,
		reservation.Version,
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	return mapSQLiteError(err)
}

func insertCancellationRecord(tx *sql.Tx, record persistence.CancellationRecord) error {
	_, err := tx.Exec(`
		INSERT INTO cancellation_records (reservation_id, kind, start_time, end_time, reason_code, cascade_root_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ReservationID,
		record.Kind,
		formatTime(record.StartTime),
		formatTime(record.EndTime),
		record.ReasonCode,
		record.CascadeRootID,
		formatTime(record.RecordedAt),
	)
	return mapSQLiteError(err)
}

func scanReservation(scan func(dest ...any) error) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var startTime, endTime, createdAt, updatedAt string

	if err := scan(
		&reservation.ID,
		&reservation.ZoneID,
		&reservation.LabID,
		&startTime,
		&endTime,
		&reservation.Kind,
		&reservation.Priority,
		&reservation.Status,
		&reservation.OwnerID,
		&reservation.Version,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	var err error
	if reservation.StartTime, err = parseTime(startTime); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.EndTime, err = parseTime(endTime); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
