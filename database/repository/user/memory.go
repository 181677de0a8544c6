// File: database/repository/user/memory.go
package userRepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"yoyaku/models"
)

// MemoryUserRepo is an in-memory UserRepository used by service tests.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // by internal ID
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepo) FindByLineID(_ context.Context, lineUserID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.LineUserID == lineUserID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepo) FindOrCreate(_ context.Context, lineUserID, displayName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.LineUserID == lineUserID {
			if displayName != "" && u.DisplayName != displayName {
				u.DisplayName = displayName
				u.UpdatedAt = time.Now()
			}
			cp := *u
			return &cp, nil
		}
	}

	now := time.Now()
	u := &models.User{
		ID:          uuid.New().String(),
		LineUserID:  lineUserID,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.users[u.ID] = u
	cp := *u
	return &cp, nil
}
