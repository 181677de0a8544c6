package userRepo

import (
	"context"
	"errors"
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

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo() UserRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("users")
	repo := &MongoUserRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "lineUserId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", id, err)
	}
	return &user, nil
}

func (r *MongoUserRepo) FindByLineID(ctx context.Context, lineUserID string) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"lineUserId": lineUserID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by line id: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepo) FindOrCreate(ctx context.Context, lineUserID, displayName string) (*models.User, error) {
	user, err := r.FindByLineID(ctx, lineUserID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		now := time.Now()
		user = &models.User{
			ID:          uuid.New().String(),
			LineUserID:  lineUserID,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		cctx, cancel := newContext(ctx, 5*time.Second)
		defer cancel()
		if _, err := r.coll.InsertOne(cctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return user, nil
	}

	if displayName != "" && user.DisplayName != displayName {
		cctx, cancel := newContext(ctx, 5*time.Second)
		defer cancel()
		update := bson.M{"$set": bson.M{"displayName": displayName, "updatedAt": time.Now()}}
		if _, err := r.coll.UpdateOne(cctx, bson.M{"id": user.ID}, update); err != nil {
			return nil, fmt.Errorf("failed to refresh display name: %w", err)
		}
		user.DisplayName = displayName
	}
	return user, nil
}
