package booking

import (
	"context"
	"time"

	"roomkeeper/database/repository"
	"roomkeeper/models"

	"go.uber.org/zap"
)

// AvailabilityService answers which units are free. It never writes.
type AvailabilityService interface {
	FindAvailable(ctx context.Context, q models.AvailabilityQuery) ([]models.Candidate, error)
	Calendar(ctx context.Context, q models.CalendarQuery) ([]models.RoomTypeCalendar, error)
}

// ReservationService drives reservations through their lifecycle.
type ReservationService interface {
	CreateReservation(ctx context.Context, hotelID string, req models.CreateReservationRequest, actor string) (*models.Reservation, error)
	UpdateReservation(ctx context.Context, id string, req models.UpdateReservationRequest, actor string) (*models.Reservation, error)
	Transition(ctx context.Context, id string, event models.ReservationEvent, actor string) (*models.Reservation, error)
	ChangeStatus(ctx context.Context, id string, target models.ReservationStatus, actor string) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	DeleteReservation(ctx context.Context, id string, actor string) error
	SweepNoShows(ctx context.Context, now time.Time) (int, error)
}

// RoomService reads the catalog and applies housekeeping events to units.
type RoomService interface {
	CreateRoomType(ctx context.Context, hotelID string, req models.CreateRoomTypeRequest) (*models.RoomType, error)
	ListRoomTypes(ctx context.Context, hotelID string) ([]models.RoomType, error)
	GetUnit(ctx context.Context, hotelID, number string) (*models.RoomUnit, error)
	ApplyRoomEvent(ctx context.Context, hotelID, number string, event models.RoomEvent, actor string) (*models.RoomUnit, error)
}

// Engine is the full availability and lifecycle surface.
type Engine interface {
	AvailabilityService
	ReservationService
	RoomService
}

// EventPublisher hands committed changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.EngineEvent) error
}

// DefaultEngine implements Engine over a catalog, a reservation store and a guard.
type DefaultEngine struct {
	Catalog      repository.CatalogRepository
	Reservations repository.ReservationRepository
	Guard        *ConflictGuard
	Events       EventPublisher
	Logger       *zap.Logger
	// NoShowGrace is how long after check-in day starts a reservation may still arrive.
	NoShowGrace time.Duration
	// Now is overridable in tests.
	Now func() time.Time
}

var _ Engine = (*DefaultEngine)(nil)

func (e *DefaultEngine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *DefaultEngine) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// publish never fails the caller: the change is already committed.
func (e *DefaultEngine) publish(ctx context.Context, event models.EngineEvent) {
	if e.Events == nil {
		return
	}
	event.OccurredAt = e.now()
	if err := e.Events.Publish(ctx, event); err != nil {
		e.log().Warn("failed to publish engine event",
			zap.String("kind", event.Kind),
			zap.String("reservationId", event.ReservationID),
			zap.Error(err))
	}
}
