package notificationRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yoyaku/config"
	"yoyaku/database"
	"yoyaku/models"
)

// MongoNotificationRepo implements NotificationRepository using MongoDB.
type MongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo creates a new instance of NotificationRepository using MongoDB.
func NewMongoNotificationRepo() NotificationRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("notification_logs")
	repo := &MongoNotificationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates the unique (reservationId, type) index that Claim's
// insert races against.
func (r *MongoNotificationRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "reservationId", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Claim inserts a pending row; a duplicate-key error means another producer
// holds the pair, in which case only a failed row or a pending row gone
// stale may be re-claimed via a conditional update.
func (r *MongoNotificationRepo) Claim(ctx context.Context, reservationID, notifType string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	doc := models.NotificationLog{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		Type:          notifType,
		Status:        models.NotificationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}

	filter := bson.M{
		"reservationId": reservationID,
		"type":          notifType,
		"$or": bson.A{
			bson.M{"status": models.NotificationFailed},
			bson.M{
				"status":    models.NotificationPending,
				"updatedAt": bson.M{"$lt": now.Add(-StaleClaimAge)},
			},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":       models.NotificationPending,
		"errorMessage": "",
		"updatedAt":    time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to re-claim notification: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoNotificationRepo) MarkSent(ctx context.Context, reservationID, notifType string) error {
	return r.setStatus(ctx, reservationID, notifType, models.NotificationSent, "")
}

func (r *MongoNotificationRepo) MarkFailed(ctx context.Context, reservationID, notifType, errMsg string) error {
	return r.setStatus(ctx, reservationID, notifType, models.NotificationFailed, errMsg)
}

func (r *MongoNotificationRepo) setStatus(ctx context.Context, reservationID, notifType, status, errMsg string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"reservationId": reservationID, "type": notifType}
	update := bson.M{"$set": bson.M{
		"status":       status,
		"errorMessage": errMsg,
		"updatedAt":    time.Now(),
	}}
	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark notification %s: %w", status, err)
	}
	return nil
}

func (r *MongoNotificationRepo) HasSent(ctx context.Context, reservationID, notifType string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"reservationId": reservationID,
		"type":          notifType,
		"status":        models.NotificationSent,
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check sent notification: %w", err)
	}
	return n > 0, nil
}
