// Package session holds the per-user conversation state behind a keyed
// store with TTL semantics. The store is an injected interface so the
// Redis-backed implementation can be swapped for the in-memory one (tests,
// single-process deployments) without touching dialogue logic.
package session

import (
	"context"
	"time"

	"yoyaku/config"
	"yoyaku/models"
)

// Store is the conversation session surface. Get returns nil for missing or
// expired sessions; expiry is handled by the store itself. Set and Update
// slide the TTL forward, reads do not.
type Store interface {
	Set(ctx context.Context, userID string, sess *models.Session) error
	Get(ctx context.Context, userID string) (*models.Session, error)
	Update(ctx context.Context, userID string, apply func(*models.Session)) (*models.Session, error)
	Delete(ctx context.Context, userID string) error
	Extend(ctx context.Context, userID string) (bool, error)
}

// TTL returns the configured session lifetime.
func TTL() time.Duration {
	return time.Duration(config.AppConfig.SessionTTLMin) * time.Minute
}

func sessionKey(userID string) string {
	return "session:" + userID
}
