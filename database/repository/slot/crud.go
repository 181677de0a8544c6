// File: database/repository/slot/crud.go
package slotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yoyaku/models"
	"yoyaku/utils"
)

func (r *MongoSlotRepo) CreateMany(ctx context.Context, slots []models.TimeSlot) error {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	docs := make([]interface{}, len(slots))
	for i, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		docs[i] = slot
	}

	// Unordered insert: duplicates against the (date, startTime) unique index
	// are skipped so seeding stays idempotent.
	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert time slots: %w", err)
	}
	return nil
}

func (r *MongoSlotRepo) GetByDateTime(ctx context.Context, date, startTime string) (*models.TimeSlot, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"date": date, "startTime": startTime}
	var slot models.TimeSlot
	err := r.coll.FindOne(ctx, filter).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find slot %s %s: %w", date, startTime, err)
	}
	return &slot, nil
}

func (r *MongoSlotRepo) GetByDate(ctx context.Context, date string) ([]models.TimeSlot, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var slots []models.TimeSlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// FindAvailableDates returns the distinct dates within [from, from+daysAhead]
// that still have at least one open seat.
func (r *MongoSlotRepo) FindAvailableDates(ctx context.Context, from string, daysAhead int) ([]string, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	until, err := utils.AddDays(from, daysAhead)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"date":      bson.M{"$gte": from, "$lte": until},
		"available": bson.M{"$gt": 0},
	}
	raw, err := r.coll.Distinct(ctx, "date", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list available dates: %w", err)
	}

	dates := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			dates = append(dates, s)
		}
	}
	return dates, nil
}

func (r *MongoSlotRepo) CountFrom(ctx context.Context, date string) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"date": bson.M{"$gte": date}})
	if err != nil {
		return 0, fmt.Errorf("failed to count slots: %w", err)
	}
	return n, nil
}
