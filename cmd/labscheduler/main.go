package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/config"
	httptransport "github.com/example/lab-scheduler/internal/http"
	"github.com/example/lab-scheduler/internal/logging"
	"github.com/example/lab-scheduler/internal/metrics"
	"github.com/example/lab-scheduler/internal/notification"
	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/persistence/sqlite"
	"github.com/example/lab-scheduler/internal/scheduling"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	var notifier application.CancellationNotifier = notification.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Error("failed to build kafka publisher", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				logger.Error("failed to close kafka publisher", "error", cerr)
			}
		}()
		notifier = publisher
	} else {
		logger.Warn("no kafka brokers configured, cancellation notifications are disabled")
	}

	idGenerator := uuid.NewString
	now := time.Now

	zoneStore := newZoneStoreAdapter(storage)
	reservationRepo := newReservationRepositoryAdapter(storage)

	schedulerService := application.NewSchedulerServiceWithLogger(
		reservationRepo, zoneStore, notifier, idGenerator, now, cfg.Location(), cfg.CommitTimeout, logger)
	zoneService := application.NewZoneServiceWithLogger(zoneStore, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Zones:        httptransport.NewZoneHandler(zoneService, logger),
		Reservations: httptransport.NewReservationHandler(schedulerService, time.Duration(cfg.DefaultSlotMinutes)*time.Minute, logger),
		Health:       healthHandler(storage),
		Metrics:      metrics.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			metrics.Middleware,
			httptransport.RequireActor(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("lab scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func healthHandler(storage *sqlite.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := storage.Ping(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

type zoneStoreAdapter struct {
	repo persistence.ZoneRepository
}

func newZoneStoreAdapter(repo persistence.ZoneRepository) *zoneStoreAdapter {
	return &zoneStoreAdapter{repo: repo}
}

func (a *zoneStoreAdapter) CreateZone(ctx context.Context, zone application.Zone) error {
	return a.repo.CreateZone(ctx, toPersistenceZone(zone))
}

func (a *zoneStoreAdapter) UpdateZone(ctx context.Context, zone application.Zone) error {
	return a.repo.UpdateZone(ctx, toPersistenceZone(zone))
}

func (a *zoneStoreAdapter) GetZone(ctx context.Context, id string) (application.Zone, error) {
	stored, err := a.repo.GetZone(ctx, id)
	if err != nil {
		return application.Zone{}, err
	}
	return toApplicationZone(stored), nil
}

func (a *zoneStoreAdapter) ListZones(ctx context.Context) ([]application.Zone, error) {
	models, err := a.repo.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	zones := make([]application.Zone, 0, len(models))
	for _, model := range models {
		zones = append(zones, toApplicationZone(model))
	}
	return zones, nil
}

func (a *zoneStoreAdapter) DeleteZone(ctx context.Context, id string) error {
	return a.repo.DeleteZone(ctx, id)
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, zoneID string, window scheduling.Interval) ([]application.Reservation, error) {
	models, err := a.repo.ListReservations(ctx, zoneID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations, nil
}

func (a *reservationRepositoryAdapter) CommitAtomic(ctx context.Context, changes application.ReservationChangeSet) error {
	persisted := persistence.ReservationChangeSet{}
	for _, reservation := range changes.Create {
		persisted.Create = append(persisted.Create, toPersistenceReservation(reservation))
	}
	for _, reservation := range changes.Update {
		persisted.Update = append(persisted.Update, toPersistenceReservation(reservation))
	}
	for _, record := range changes.Cancellations {
		persisted.Cancellations = append(persisted.Cancellations, toPersistenceCancellation(record))
	}
	return a.repo.CommitAtomic(ctx, persisted)
}

func (a *reservationRepositoryAdapter) ListCancellationRecords(ctx context.Context, cascadeRootID string) ([]application.CancellationRecord, error) {
	models, err := a.repo.ListCancellationRecords(ctx, cascadeRootID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	records := make([]application.CancellationRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toApplicationCancellation(model))
	}
	return records, nil
}

func toPersistenceZone(zone application.Zone) persistence.Zone {
	return persistence.Zone{
		ID:        zone.ID,
		LabID:     zone.LabID,
		Name:      zone.Name,
		DayStart:  zone.DayStart,
		DayEnd:    zone.DayEnd,
		CreatedAt: zone.CreatedAt,
		UpdatedAt: zone.UpdatedAt,
	}
}

func toApplicationZone(zone persistence.Zone) application.Zone {
	return application.Zone{
		ID:        zone.ID,
		LabID:     zone.LabID,
		Name:      zone.Name,
		DayStart:  zone.DayStart,
		DayEnd:    zone.DayEnd,
		CreatedAt: zone.CreatedAt,
		UpdatedAt: zone.UpdatedAt,
	}
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:        reservation.ID,
		ZoneID:    reservation.ZoneID,
		LabID:     reservation.LabID,
		StartTime: reservation.Start,
		EndTime:   reservation.End,
		Kind:      string(reservation.Kind),
		Priority:  int(reservation.Priority),
		Status:    string(reservation.Status),
		OwnerID:   reservation.OwnerID,
		Version:   reservation.Version,
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.UpdatedAt,
	}
}

func toApplicationReservation(reservation persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:        reservation.ID,
		ZoneID:    reservation.ZoneID,
		LabID:     reservation.LabID,
		Start:     reservation.StartTime,
		End:       reservation.EndTime,
		Kind:      scheduling.Kind(reservation.Kind),
		Priority:  scheduling.Priority(reservation.Priority),
		Status:    scheduling.Status(reservation.Status),
		OwnerID:   reservation.OwnerID,
		Version:   reservation.Version,
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.UpdatedAt,
	}
}

func toPersistenceCancellation(record application.CancellationRecord) persistence.CancellationRecord {
	return persistence.CancellationRecord{
		ReservationID: record.ReservationID,
		Kind:          string(record.Kind),
		StartTime:     record.Start,
		EndTime:       record.End,
		ReasonCode:    record.ReasonCode,
		CascadeRootID: record.CascadeRootID,
		RecordedAt:    record.RecordedAt,
	}
}

func toApplicationCancellation(record persistence.CancellationRecord) application.CancellationRecord {
	return application.CancellationRecord{
		ReservationID: record.ReservationID,
		Kind:          scheduling.Kind(record.Kind),
		Start:         record.StartTime,
		End:           record.EndTime,
		ReasonCode:    record.ReasonCode,
		CascadeRootID: record.CascadeRootID,
		RecordedAt:    record.RecordedAt,
	}
}
