// Package sqlite implements the persistence repositories on SQLite using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/lab-scheduler/internal/persistence"
)

// Store bundles the SQLite-backed repositories behind a single handle. It
// implements persistence.ZoneRepository and persistence.ReservationRepository.
type Store struct {
	pool         *ConnectionPool
	zones        *ZoneRepository
	reservations *ReservationRepository
}

// Open opens the database for the DSN and prepares the repositories. Callers
// must run Migrate before issuing queries against a fresh database.
func Open(dsn string) (*Store, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:         pool,
		zones:        NewZoneRepository(pool),
		reservations: NewReservationRepository(pool),
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create zones",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS zones (
				id         TEXT PRIMARY KEY,
				lab_id     TEXT NOT NULL,
				name       TEXT NOT NULL,
				day_start  TEXT NOT NULL,
				day_end    TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (day_start < day_end)
			)`,
		},
	},
	{
		version: 2,
		name:    "create reservations",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS reservations (
				id         TEXT PRIMARY KEY,
				zone_id    TEXT NOT NULL REFERENCES zones(id),
				lab_id     TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time   TEXT NOT NULL,
				kind       TEXT NOT NULL CHECK (kind IN ('booking', 'event')),
				priority   INTEGER NOT NULL,
				status     TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled')),
				owner_id   TEXT NOT NULL,
				version    INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (start_time < end_time)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_zone_window
				ON reservations (zone_id, start_time)`,
		},
	},
	{
		version: 3,
		name:    "create cancellation records",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS cancellation_records (
				reservation_id  TEXT NOT NULL REFERENCES reservations(id),
				kind            TEXT NOT NULL,
				start_time      TEXT NOT NULL,
				end_time        TEXT NOT NULL,
				reason_code     TEXT NOT NULL,
				cascade_root_id TEXT NOT NULL,
				recorded_at     TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_cancellation_records_root
				ON cancellation_records (cascade_root_id)`,
		},
	},
}

// Migrate applies the pending schema migrations in order. Applied versions
// are tracked in schema_migrations, so Migrate is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.DB().ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := s.migrationApplied(ctx, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		err = s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
				m.version, m.name, formatTime(time.Now()),
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := s.pool.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return count > 0, nil
}

// --- persistence.ZoneRepository ---

func (s *Store) CreateZone(ctx context.Context, zone persistence.Zone) error {
	return s.zones.CreateZone(ctx, zone)
}

func (s *Store) UpdateZone(ctx context.Context, zone persistence.Zone) error {
	return s.zones.UpdateZone(ctx, zone)
}

func (s *Store) GetZone(ctx context.Context, id string) (persistence.Zone, error) {
	return s.zones.GetZone(ctx, id)
}

func (s *Store) ListZones(ctx context.Context) ([]persistence.Zone, error) {
	return s.zones.ListZones(ctx)
}

func (s *Store) DeleteZone(ctx context.Context, id string) error {
	return s.zones.DeleteZone(ctx, id)
}

// --- persistence.ReservationRepository ---

func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	return s.reservations.GetReservation(ctx, id)
}

func (s *Store) ListReservations(ctx context.Context, zoneID string, from, to time.Time) ([]persistence.Reservation, error) {
	return s.reservations.ListReservations(ctx, zoneID, from, to)
}

func (s *Store) CommitAtomic(ctx context.Context, changes persistence.ReservationChangeSet) error {
	return s.reservations.CommitAtomic(ctx, changes)
}

func (s *Store) ListCancellationRecords(ctx context.Context, cascadeRootID string) ([]persistence.CancellationRecord, error) {
	return s.reservations.ListCancellationRecords(ctx, cascadeRootID)
}

// Times are stored as UTC RFC3339 strings. The format is fixed-width at
// second precision, so lexicographic comparison in SQL matches chronological
// order.
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", value, err)
	}
	return ts, nil
}
