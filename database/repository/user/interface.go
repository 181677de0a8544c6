package userRepo

import (
	"context"

	"yoyaku/models"
)

// UserRepository owns the users collection, keyed by LINE user ID.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindByLineID(ctx context.Context, lineUserID string) (*models.User, error)

	// FindOrCreate returns the user for lineUserID, creating it on first
	// contact and refreshing the cached display name when it changed.
	FindOrCreate(ctx context.Context, lineUserID, displayName string) (*models.User, error)
}
