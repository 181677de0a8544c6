package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"yoyaku/models"
)

// RedisStore keeps sessions as JSON blobs under "session:<userId>" and lets
// Redis enforce the TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, userID string, sess *models.Session) error {
	sess.UserID = userID
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(userID), data, TTL()).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, userID string, apply func(*models.Session)) (*models.Session, error) {
	sess, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	apply(sess)
	if err := s.Set(ctx, userID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Extend refreshes the TTL of a live session without rewriting it.
func (s *RedisStore) Extend(ctx context.Context, userID string) (bool, error) {
	ok, err := s.client.Expire(ctx, sessionKey(userID), TTL()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to extend session: %w", err)
	}
	return ok, nil
}
