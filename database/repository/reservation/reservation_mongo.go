package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"roomkeeper/database"
	"roomkeeper/database/repository"
	"roomkeeper/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoReservationRepo implements repository.ReservationRepository. It also holds the
// room_types collection so unit state changes commit in the same transaction as the
// reservation they belong to.
type MongoReservationRepo struct {
	reservationColl *mongo.Collection
	roomTypeColl    *mongo.Collection
	auditColl       *mongo.Collection
}

// NewMongoReservationRepo constructs the repository and makes sure its indexes exist.
func NewMongoReservationRepo() *MongoReservationRepo {
	db := database.DB()
	repo := &MongoReservationRepo{
		reservationColl: db.Collection("reservations"),
		roomTypeColl:    db.Collection("room_types"),
		auditColl:       db.Collection("audit_log"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create reservation indexes: %v\n", err)
	}
	return repo
}

// liveStatuses are the statuses that still claim units.
var liveStatuses = bson.A{
	models.StatusPending, models.StatusConfirmed, models.StatusCheckedIn, models.StatusCheckedOut,
}

func (r *MongoReservationRepo) Get(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var res models.Reservation
	if err := r.reservationColl.FindOne(ctx, bson.M{"id": id}).Decode(&res); err != nil {
		return nil, fmt.Errorf("fetch reservation %s: %w", id, repository.Classify(err))
	}
	return &res, nil
}

func (r *MongoReservationRepo) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	q := bson.M{}
	if filter.HotelID != "" {
		q["hotelId"] = filter.HotelID
	}
	if len(filter.Statuses) > 0 {
		q["status"] = bson.M{"$in": filter.Statuses}
	}
	if !filter.From.IsZero() {
		q["checkOut"] = bson.M{"$gt": filter.From}
	}
	if !filter.To.IsZero() {
		q["checkIn"] = bson.M{"$lt": filter.To}
	}
	return r.find(ctx, q)
}

func (r *MongoReservationRepo) FindOverlapping(ctx context.Context, unitIDs []string, stay models.DateRange, excludeID string) ([]models.Reservation, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	// Half-open overlap: existing.checkIn < stay.checkOut && existing.checkOut > stay.checkIn.
	q := bson.M{
		"status":             bson.M{"$in": liveStatuses},
		"assignments.unitId": bson.M{"$in": unitIDs},
		"checkIn":            bson.M{"$lt": stay.CheckOut},
		"checkOut":           bson.M{"$gt": stay.CheckIn},
	}
	if excludeID != "" {
		q["id"] = bson.M{"$ne": excludeID}
	}
	return r.find(ctx, q)
}

func (r *MongoReservationRepo) ListDueNoShows(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	q := bson.M{
		"status":  bson.M{"$in": bson.A{models.StatusPending, models.StatusConfirmed}},
		"checkIn": bson.M{"$lte": cutoff},
	}
	return r.find(ctx, q)
}

func (r *MongoReservationRepo) find(ctx context.Context, q bson.M) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "checkIn", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.reservationColl.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", repository.Classify(err))
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	for cursor.Next(ctx) {
		var res models.Reservation
		if err := cursor.Decode(&res); err != nil {
			return nil, fmt.Errorf("error decoding reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", repository.Classify(err))
	}
	return out, nil
}

var _ repository.ReservationRepository = (*MongoReservationRepo)(nil)
