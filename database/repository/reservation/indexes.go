package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes behind the overlap, listing and no-show queries.
func (r *MongoReservationRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Overlap probe: unit first, then the interval bounds.
		{
			Keys: bson.D{
				{Key: "assignments.unitId", Value: 1},
				{Key: "checkIn", Value: 1},
				{Key: "checkOut", Value: 1},
			},
			Options: options.Index().SetName("unit_stay_idx"),
		},
		{
			Keys:    bson.D{{Key: "hotelId", Value: 1}, {Key: "checkIn", Value: 1}},
			Options: options.Index().SetName("hotel_checkin_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "checkIn", Value: 1}},
			Options: options.Index().SetName("status_checkin_idx"),
		},
	}

	if _, err := r.reservationColl.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create reservation indexes: %w", err)
	}

	auditIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entityId", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("entity_at_idx"),
		},
	}
	if _, err := r.auditColl.Indexes().CreateMany(ctx, auditIndexes); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}
