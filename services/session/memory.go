package session

import (
	"context"
	"sync"
	"time"

	"yoyaku/models"
)

type memoryEntry struct {
	sess      models.Session
	expiresAt time.Time
}

// MemoryStore is a process-local Store with the same TTL behavior as the
// Redis implementation. A background janitor drops expired entries so the
// map does not grow with abandoned conversations.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	stop     chan struct{}
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]memoryEntry),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) Set(ctx context.Context, userID string, sess *models.Session) error {
	sess.UserID = userID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = memoryEntry{sess: *sess, expiresAt: s.now().Add(TTL())}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, userID)
		return nil, nil
	}
	sess := entry.sess
	return &sess, nil
}

func (s *MemoryStore) Update(ctx context.Context, userID string, apply func(*models.Session)) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.sessions, userID)
		return nil, nil
	}
	apply(&entry.sess)
	entry.expiresAt = s.now().Add(TTL())
	s.sessions[userID] = entry
	sess := entry.sess
	return &sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *MemoryStore) Extend(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.sessions, userID)
		return false, nil
	}
	entry.expiresAt = s.now().Add(TTL())
	s.sessions[userID] = entry
	return true, nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() {
	close(s.stop)
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
