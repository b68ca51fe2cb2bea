package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomkeeper/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict means the document changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	// ErrStateMismatch means a unit was not in the state a change expected.
	ErrStateMismatch = errors.New("unit state mismatch")
	// ErrUnavailable marks transient store failures that a caller may retry.
	ErrUnavailable = errors.New("store unavailable")
)

// UnitStateChange moves one unit from an expected state to a new one.
type UnitStateChange struct {
	RoomTypeID string
	UnitID     string
	From       models.RoomState
	To         models.RoomState
	At         time.Time
}

// CatalogRepository reads room types and owns unit operational state.
type CatalogRepository interface {
	CreateRoomType(ctx context.Context, rt *models.RoomType) error
	GetRoomType(ctx context.Context, hotelID, roomTypeID string) (*models.RoomType, error)
	ListRoomTypes(ctx context.Context, hotelID string) ([]models.RoomType, error)
	// FindUnit returns the unit with the given number and the room type that holds it.
	FindUnit(ctx context.Context, hotelID, number string) (*models.RoomType, *models.RoomUnit, error)
	SetUnitState(ctx context.Context, change UnitStateChange) error
}

// ReservationRepository is the durable record of reservations.
type ReservationRepository interface {
	Get(ctx context.Context, id string) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	// FindOverlapping returns live reservations, other than excludeID, that claim any of
	// unitIDs on a night inside stay.
	FindOverlapping(ctx context.Context, unitIDs []string, stay models.DateRange, excludeID string) ([]models.Reservation, error)
	// ListDueNoShows returns pending and confirmed reservations checking in on or before the cutoff.
	ListDueNoShows(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	// Commit writes res and applies unitChanges atomically. expectedVersion zero inserts;
	// otherwise the stored version must match. On success res.Version is the new version.
	Commit(ctx context.Context, res *models.Reservation, expectedVersion int, unitChanges []UnitStateChange) error
	// Delete removes a reservation and records the audit entry in the same unit of work.
	Delete(ctx context.Context, id string, audit models.AuditEntry) error
}

// Classify maps driver errors onto the package sentinels, keeping the original
// error in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrStateMismatch), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	case isTransient(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var sse topology.ServerSelectionError
	if errors.As(err, &sse) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError") {
		return true
	}
	return false
}
