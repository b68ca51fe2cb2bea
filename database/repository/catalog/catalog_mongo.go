package catalogRepo

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

// MongoCatalogRepo implements repository.CatalogRepository on the room_types collection.
// Units are embedded in their room type document.
type MongoCatalogRepo struct {
	coll *mongo.Collection
}

// NewMongoCatalogRepo constructs the repository and makes sure its indexes exist.
func NewMongoCatalogRepo() *MongoCatalogRepo {
	repo := &MongoCatalogRepo{coll: database.DB().Collection("room_types")}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create room type indexes: %v\n", err)
	}
	return repo
}

func (r *MongoCatalogRepo) CreateRoomType(ctx context.Context, rt *models.RoomType) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, rt); err != nil {
		return fmt.Errorf("insert room type %s: %w", rt.Name, repository.Classify(err))
	}
	return nil
}

func (r *MongoCatalogRepo) GetRoomType(ctx context.Context, hotelID, roomTypeID string) (*models.RoomType, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rt models.RoomType
	filter := bson.M{"id": roomTypeID, "hotelId": hotelID}
	if err := r.coll.FindOne(ctx, filter).Decode(&rt); err != nil {
		return nil, fmt.Errorf("fetch room type %s: %w", roomTypeID, repository.Classify(err))
	}
	return &rt, nil
}

func (r *MongoCatalogRepo) ListRoomTypes(ctx context.Context, hotelID string) ([]models.RoomType, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"hotelId": hotelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list room types: %w", repository.Classify(err))
	}
	defer cursor.Close(ctx)

	var types []models.RoomType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("decode room types: %w", repository.Classify(err))
	}
	return types, nil
}

func (r *MongoCatalogRepo) FindUnit(ctx context.Context, hotelID, number string) (*models.RoomType, *models.RoomUnit, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rt models.RoomType
	filter := bson.M{"hotelId": hotelID, "units.number": number}
	if err := r.coll.FindOne(ctx, filter).Decode(&rt); err != nil {
		return nil, nil, fmt.Errorf("fetch unit %s: %w", number, repository.Classify(err))
	}
	u, ok := rt.UnitByNumber(number)
	if !ok {
		return nil, nil, fmt.Errorf("unit %s: %w", number, repository.ErrNotFound)
	}
	unit := *u
	return &rt, &unit, nil
}

func (r *MongoCatalogRepo) SetUnitState(ctx context.Context, change repository.UnitStateChange) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return ApplyUnitChange(ctx, r.coll, change)
}

// ApplyUnitChange compares-and-sets the state of one embedded unit. It is shared with
// the reservation repository, which calls it inside its commit transaction.
func ApplyUnitChange(ctx context.Context, coll *mongo.Collection, change repository.UnitStateChange) error {
	filter := bson.M{
		"id": change.RoomTypeID,
		"units": bson.M{
			"$elemMatch": bson.M{"id": change.UnitID, "state": change.From},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"units.$[u].state":          change.To,
			"units.$[u].stateChangedAt": change.At,
			"updatedAt":                 change.At,
		},
		"$inc": bson.M{"version": 1},
	}
	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"u.id": change.UnitID, "u.state": change.From},
		},
	}
	opts := options.Update().SetArrayFilters(arrayFilters)

	res, err := coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("update unit %s state: %w", change.UnitID, repository.Classify(err))
	}
	if res.MatchedCount == 0 {
		n, err := coll.CountDocuments(ctx, bson.M{"id": change.RoomTypeID, "units.id": change.UnitID})
		if err != nil {
			return fmt.Errorf("recheck unit %s: %w", change.UnitID, repository.Classify(err))
		}
		if n == 0 {
			return fmt.Errorf("unit %s: %w", change.UnitID, repository.ErrNotFound)
		}
		return fmt.Errorf("unit %s is not %s: %w", change.UnitID, change.From, repository.ErrStateMismatch)
	}
	return nil
}

var _ repository.CatalogRepository = (*MongoCatalogRepo)(nil)
