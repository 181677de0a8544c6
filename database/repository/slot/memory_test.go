package slotRepo

import (
	"context"
	"sync"
	"testing"

	"yoyaku/config"
	"yoyaku/models"
)

func init() {
	config.AppConfig = config.Config{BusinessTimezone: "Asia/Tokyo", ClosedWeekday: 2}
}

func seed(t *testing.T, r *MemorySlotRepo, capacity int) string {
	t.Helper()
	slot := models.TimeSlot{
		ID: "s1", Date: "2027-06-10", StartTime: "18:00", EndTime: "19:00",
		Capacity: capacity, Available: capacity,
	}
	if err := r.CreateMany(context.Background(), []models.TimeSlot{slot}); err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	return slot.ID
}

func TestReserveConditional(t *testing.T) {
	r := NewMemorySlotRepo()
	ctx := context.Background()
	id := seed(t, r, 4)

	ok, err := r.Reserve(ctx, id, 3)
	if err != nil || !ok {
		t.Fatalf("Reserve(3): ok=%v err=%v", ok, err)
	}
	// 2 more do not fit into the remaining 1.
	ok, err = r.Reserve(ctx, id, 2)
	if err != nil || ok {
		t.Fatalf("Reserve(2) into 1 remaining: ok=%v err=%v", ok, err)
	}
	ok, err = r.Reserve(ctx, id, 1)
	if err != nil || !ok {
		t.Fatalf("Reserve(1): ok=%v err=%v", ok, err)
	}

	slot, _ := r.GetByDateTime(ctx, "2027-06-10", "18:00")
	if slot.Available != 0 {
		t.Fatalf("available = %d, want 0", slot.Available)
	}
}

func TestReleaseClampsToCapacity(t *testing.T) {
	r := NewMemorySlotRepo()
	ctx := context.Background()
	id := seed(t, r, 4)

	if ok, _ := r.Reserve(ctx, id, 2); !ok {
		t.Fatal("Reserve(2) failed")
	}
	// A retried compensation may release more than was taken; available must
	// never exceed capacity.
	if err := r.Release(ctx, id, 2); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := r.Release(ctx, id, 2); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	slot, _ := r.GetByDateTime(ctx, "2027-06-10", "18:00")
	if slot.Available != 4 {
		t.Fatalf("available = %d, want clamp at capacity 4", slot.Available)
	}
}

func TestConcurrentReserveReleaseInvariant(t *testing.T) {
	r := NewMemorySlotRepo()
	ctx := context.Background()
	id := seed(t, r, 4)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if ok, _ := r.Reserve(ctx, id, 1); ok {
					_ = r.Release(ctx, id, 1)
				}
			}
		}()
	}
	wg.Wait()

	slot, _ := r.GetByDateTime(ctx, "2027-06-10", "18:00")
	if slot.Available < 0 || slot.Available > slot.Capacity {
		t.Fatalf("available %d out of [0, %d]", slot.Available, slot.Capacity)
	}
	if slot.Available != 4 {
		t.Fatalf("available = %d after balanced reserve/release, want 4", slot.Available)
	}
}

func TestCreateManySkipsDuplicates(t *testing.T) {
	r := NewMemorySlotRepo()
	ctx := context.Background()
	id := seed(t, r, 4)

	if ok, _ := r.Reserve(ctx, id, 2); !ok {
		t.Fatal("Reserve failed")
	}
	// Re-seeding the same (date, startTime) must not reset availability.
	if err := r.CreateMany(ctx, []models.TimeSlot{{
		ID: "s1-dup", Date: "2027-06-10", StartTime: "18:00", EndTime: "19:00",
		Capacity: 4, Available: 4,
	}}); err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	slot, _ := r.GetByDateTime(ctx, "2027-06-10", "18:00")
	if slot.Available != 2 {
		t.Fatalf("available = %d, want 2", slot.Available)
	}
}

func TestFindAvailableDates(t *testing.T) {
	r := NewMemorySlotRepo()
	ctx := context.Background()

	slots := []models.TimeSlot{
		{ID: "a", Date: "2027-06-10", StartTime: "18:00", Capacity: 4, Available: 4},
		{ID: "b", Date: "2027-06-11", StartTime: "18:00", Capacity: 4, Available: 0},
		{ID: "c", Date: "2027-06-12", StartTime: "18:00", Capacity: 4, Available: 1},
	}
	if err := r.CreateMany(ctx, slots); err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	dates, err := r.FindAvailableDates(ctx, "2027-06-10", 30)
	if err != nil {
		t.Fatalf("FindAvailableDates: %v", err)
	}
	want := []string{"2027-06-10", "2027-06-12"}
	if len(dates) != len(want) || dates[0] != want[0] || dates[1] != want[1] {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
}
