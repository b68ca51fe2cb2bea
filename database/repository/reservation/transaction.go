package reservationRepo

import (
	"context"
	"fmt"

	"roomkeeper/database/repository"
	catalogRepo "roomkeeper/database/repository/catalog"
	"roomkeeper/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// withTransaction runs fn in a session transaction and aborts on any error.
func (r *MongoReservationRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := r.reservationColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", repository.Classify(err))
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return repository.Classify(err)
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return repository.Classify(sc.CommitTransaction(sc))
	})
}

// Commit writes the reservation and its unit state changes in one transaction.
func (r *MongoReservationRepo) Commit(ctx context.Context, res *models.Reservation, expectedVersion int, unitChanges []repository.UnitStateChange) error {
	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	doc := res.Clone()
	doc.Version = expectedVersion + 1

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if expectedVersion == 0 {
			if _, err := r.reservationColl.InsertOne(sc, doc); err != nil {
				return fmt.Errorf("insert reservation failed: %w", repository.Classify(err))
			}
		} else {
			filter := bson.M{"id": doc.ID, "version": expectedVersion}
			out, err := r.reservationColl.ReplaceOne(sc, filter, doc)
			if err != nil {
				return fmt.Errorf("replace reservation failed: %w", repository.Classify(err))
			}
			if out.MatchedCount == 0 {
				return fmt.Errorf("reservation %s no longer at version %d: %w", doc.ID, expectedVersion, repository.ErrVersionConflict)
			}
		}

		for _, ch := range unitChanges {
			if err := catalogRepo.ApplyUnitChange(sc, r.roomTypeColl, ch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reservation transaction failed: %w", err)
	}

	res.Version = doc.Version
	return nil
}

// Delete records the audit entry and removes the reservation together.
func (r *MongoReservationRepo) Delete(ctx context.Context, id string, audit models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.auditColl.InsertOne(sc, audit); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", repository.Classify(err))
		}
		out, err := r.reservationColl.DeleteOne(sc, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("delete reservation failed: %w", repository.Classify(err))
		}
		if out.DeletedCount == 0 {
			return fmt.Errorf("reservation %s: %w", id, repository.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transaction failed: %w", err)
	}
	return nil
}
