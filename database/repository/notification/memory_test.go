package notificationRepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"yoyaku/models"
)

func TestClaimWinsOnce(t *testing.T) {
	r := NewMemoryNotificationRepo()
	ctx := context.Background()

	ok, err := r.Claim(ctx, "res-1", models.NotificationTypeReminder)
	if err != nil || !ok {
		t.Fatalf("first Claim: ok=%v err=%v", ok, err)
	}
	ok, err = r.Claim(ctx, "res-1", models.NotificationTypeReminder)
	if err != nil || ok {
		t.Fatalf("second Claim must lose: ok=%v err=%v", ok, err)
	}
}

func TestClaimAfterFailureRetries(t *testing.T) {
	r := NewMemoryNotificationRepo()
	ctx := context.Background()

	if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); !ok {
		t.Fatal("claim failed")
	}
	if err := r.MarkFailed(ctx, "res-1", models.NotificationTypeReminder, "push timeout"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	// Failed rows may be re-claimed; sent rows may not.
	ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder)
	if !ok {
		t.Fatal("failed row must be re-claimable")
	}
	if err := r.MarkSent(ctx, "res-1", models.NotificationTypeReminder); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); ok {
		t.Fatal("sent row must not be re-claimable")
	}

	sent, err := r.HasSent(ctx, "res-1", models.NotificationTypeReminder)
	if err != nil || !sent {
		t.Fatalf("HasSent: sent=%v err=%v", sent, err)
	}
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	r := NewMemoryNotificationRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners int
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one claim winner, got %d", winners)
	}
}

func TestClaimIsPerTypeAndReservation(t *testing.T) {
	r := NewMemoryNotificationRepo()
	ctx := context.Background()

	if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); !ok {
		t.Fatal("claim res-1 failed")
	}
	if ok, _ := r.Claim(ctx, "res-2", models.NotificationTypeReminder); !ok {
		t.Fatal("claim for a different reservation must win")
	}
	if ok, _ := r.Claim(ctx, "res-1", "followup"); !ok {
		t.Fatal("claim for a different type must win")
	}
}

func TestClaimTakesOverStalePending(t *testing.T) {
	r := NewMemoryNotificationRepo()
	ctx := context.Background()

	if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); !ok {
		t.Fatal("claim failed")
	}
	if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); ok {
		t.Fatal("fresh pending row must stay held")
	}

	// A worker that died after claiming leaves the row pending; age it past
	// the takeover threshold so the sweep can pick the reminder up again.
	r.mu.Lock()
	r.logs[key("res-1", models.NotificationTypeReminder)].UpdatedAt =
		time.Now().Add(-StaleClaimAge - time.Minute)
	r.mu.Unlock()

	ok, err := r.Claim(ctx, "res-1", models.NotificationTypeReminder)
	if err != nil || !ok {
		t.Fatalf("stale pending row must be re-claimable: ok=%v err=%v", ok, err)
	}

	// The takeover refreshes the hold.
	if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); ok {
		t.Fatal("re-claimed row must be held again")
	}
	if err := r.MarkSent(ctx, "res-1", models.NotificationTypeReminder); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if ok, _ := r.Claim(ctx, "res-1", models.NotificationTypeReminder); ok {
		t.Fatal("sent row must never be re-claimable")
	}
}
