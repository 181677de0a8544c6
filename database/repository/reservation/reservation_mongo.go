package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yoyaku/config"
	"yoyaku/database"
	"yoyaku/models"
)

// MongoReservationRepo implements ReservationRepository using MongoDB.
type MongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo creates a new instance of ReservationRepository using MongoDB.
func NewMongoReservationRepo() ReservationRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("reservations")
	repo := &MongoReservationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries. The
// partial unique index on (userId, date, startTime) for confirmed rows backs
// the no-self-double-booking invariant at the storage layer.
func (r *MongoReservationRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.StatusConfirmed}),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create reservation: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var res models.Reservation
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reservation %s: %w", id, err)
	}
	return &res, nil
}

func (r *MongoReservationRepo) Update(ctx context.Context, id string, upd models.ReservationUpdate) (*models.Reservation, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if upd.Date != nil {
		set["date"] = *upd.Date
	}
	if upd.StartTime != nil {
		set["startTime"] = *upd.StartTime
	}
	if upd.EndTime != nil {
		set["endTime"] = *upd.EndTime
	}
	if upd.GuestCount != nil {
		set["guestCount"] = *upd.GuestCount
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var res models.Reservation
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to update reservation %s: %w", id, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to update reservation %s: %w", id, err)
	}
	return &res, nil
}

// Cancel is a conditional update: the status filter makes concurrent cancels
// race on a single matched row.
func (r *MongoReservationRepo) Cancel(ctx context.Context, id string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.StatusConfirmed}
	update := bson.M{"$set": bson.M{"status": models.StatusCancelled, "updatedAt": time.Now()}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel reservation %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoReservationRepo) HasConflicting(ctx context.Context, userID, date, startTime, excludeID string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"userId":    userID,
		"date":      date,
		"startTime": startTime,
		"status":    models.StatusConfirmed,
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicting reservation: %w", err)
	}
	return n > 0, nil
}

func (r *MongoReservationRepo) FindUpcomingByUser(ctx context.Context, userID, fromDate, fromTime string) ([]models.Reservation, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"userId": userID,
		"status": models.StatusConfirmed,
		"$or": bson.A{
			bson.M{"date": bson.M{"$gt": fromDate}},
			bson.M{"date": fromDate, "startTime": bson.M{"$gt": fromTime}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoReservationRepo) FindConfirmedByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"date": date, "status": models.StatusConfirmed}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
