// File: database/repository/slot/allocator.go
package slotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Reserve conditionally decrements available. The filter carries the
// capacity predicate, so the decrement and the check are one atomic
// document update; no external lock is needed.
func (r *MongoSlotRepo) Reserve(ctx context.Context, slotID string, qty int) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": slotID, "available": bson.M{"$gte": qty}}
	update := bson.M{"$inc": bson.M{"available": -qty}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to reserve slot %s: %w", slotID, err)
	}
	return res.MatchedCount > 0, nil
}

// Release increments available, clamped to capacity via a pipeline update so
// a double release cannot inflate availability past the ceiling.
func (r *MongoSlotRepo) Release(ctx context.Context, slotID string, qty int) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "available", Value: bson.D{
				{Key: "$min", Value: bson.A{
					"$capacity",
					bson.D{{Key: "$add", Value: bson.A{"$available", qty}}},
				}},
			}},
		}}},
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": slotID}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to release slot %s: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("slot %s not found", slotID)
	}
	return nil
}

// IsAvailable reads the remaining capacity for (date, startTime).
func (r *MongoSlotRepo) IsAvailable(ctx context.Context, date, startTime string, qty int) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"date": date, "startTime": startTime}
	var doc struct {
		Available int `bson:"available"`
	}
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read slot availability: %w", err)
	}
	return doc.Available >= qty, nil
}
