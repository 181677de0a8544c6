package session

import (
	"context"
	"testing"
	"time"

	"yoyaku/config"
	"yoyaku/models"
)

func init() {
	config.AppConfig = config.Config{SessionTTLMin: 30}
}

func newTestStore() (*MemoryStore, *time.Time) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStoreSetGet(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "U1", &models.Session{State: models.StateSelectingDate}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "U1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.State != models.StateSelectingDate {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.UserID != "U1" {
		t.Fatalf("expected UserID to be stamped, got %q", got.UserID)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s, now := newTestStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "U1", &models.Session{State: models.StateSelectingDate}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	*now = now.Add(31 * time.Minute)

	got, err := s.Get(ctx, "U1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected expired session to be absent, got %+v", got)
	}
}

func TestMemoryStoreUpdateSlidesExpiry(t *testing.T) {
	s, now := newTestStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "U1", &models.Session{State: models.StateSelectingDate}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	*now = now.Add(20 * time.Minute)
	sess, err := s.Update(ctx, "U1", func(sess *models.Session) {
		sess.State = models.StateSelectingTime
		sess.SelectedDate = "2026-06-10"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if sess == nil || sess.State != models.StateSelectingTime {
		t.Fatalf("unexpected session after update: %+v", sess)
	}

	// 25 minutes past the original write but only 5 past the update.
	*now = now.Add(25 * time.Minute)
	got, err := s.Get(ctx, "U1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected session to survive after TTL slide")
	}
	if got.SelectedDate != "2026-06-10" {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	sess, err := s.Update(context.Background(), "nobody", func(sess *models.Session) {
		sess.State = models.StateConfirming
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil for missing session, got %+v", sess)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "U1", &models.Session{State: models.StateConfirming}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, "U1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.Get(ctx, "U1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected deleted session to be absent, got %+v", got)
	}
}

func TestMemoryStoreExtend(t *testing.T) {
	s, now := newTestStore()
	defer s.Close()
	ctx := context.Background()

	if ok, _ := s.Extend(ctx, "U1"); ok {
		t.Fatal("extend of missing session should report false")
	}

	if err := s.Set(ctx, "U1", &models.Session{State: models.StateSelectingDate}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	*now = now.Add(25 * time.Minute)
	ok, err := s.Extend(ctx, "U1")
	if err != nil || !ok {
		t.Fatalf("Extend: ok=%v err=%v", ok, err)
	}
	*now = now.Add(20 * time.Minute)
	got, _ := s.Get(ctx, "U1")
	if got == nil {
		t.Fatal("expected extended session to survive")
	}
}
