package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the room_types collection.
func (r *MongoCatalogRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "hotelId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("hotel_name_idx"),
		},
		// Unit numbers are unique per hotel, not globally.
		{
			Keys:    bson.D{{Key: "hotelId", Value: 1}, {Key: "units.number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("hotel_unit_number_idx"),
		},
		{
			Keys:    bson.D{{Key: "units.id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unit_id_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create room type indexes: %w", err)
	}
	return nil
}
