// File: database/repository/slot/memory.go
package slotRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"yoyaku/models"
	"yoyaku/utils"
)

// MemorySlotRepo is an in-memory SlotRepository with the same conditional
// semantics as the Mongo implementation. It backs service tests and dry runs.
type MemorySlotRepo struct {
	mu    sync.Mutex
	slots map[string]*models.TimeSlot // by slot ID
}

func NewMemorySlotRepo() *MemorySlotRepo {
	return &MemorySlotRepo{slots: make(map[string]*models.TimeSlot)}
}

func (r *MemorySlotRepo) Reserve(_ context.Context, slotID string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotID]
	if !ok || slot.Available < qty {
		return false, nil
	}
	slot.Available -= qty
	return true, nil
}

func (r *MemorySlotRepo) Release(_ context.Context, slotID string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotID]
	if !ok {
		return fmt.Errorf("slot %s not found", slotID)
	}
	slot.Available += qty
	if slot.Available > slot.Capacity {
		slot.Available = slot.Capacity
	}
	return nil
}

func (r *MemorySlotRepo) IsAvailable(_ context.Context, date, startTime string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range r.slots {
		if slot.Date == date && slot.StartTime == startTime {
			return slot.Available >= qty, nil
		}
	}
	return false, nil
}

func (r *MemorySlotRepo) GetByDateTime(_ context.Context, date, startTime string) (*models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range r.slots {
		if slot.Date == date && slot.StartTime == startTime {
			cp := *slot
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemorySlotRepo) GetByDate(_ context.Context, date string) ([]models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TimeSlot
	for _, slot := range r.slots {
		if slot.Date == date {
			out = append(out, *slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *MemorySlotRepo) FindAvailableDates(_ context.Context, from string, daysAhead int) ([]string, error) {
	until, err := utils.AddDays(from, daysAhead)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	for _, slot := range r.slots {
		if slot.Date >= from && slot.Date <= until && slot.Available > 0 {
			seen[slot.Date] = true
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

func (r *MemorySlotRepo) CountFrom(_ context.Context, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, slot := range r.slots {
		if slot.Date >= date {
			n++
		}
	}
	return n, nil
}

func (r *MemorySlotRepo) CreateMany(_ context.Context, slots []models.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		exists := false
		for _, have := range r.slots {
			if have.Date == slot.Date && have.StartTime == slot.StartTime {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		cp := slot
		r.slots[cp.ID] = &cp
	}
	return nil
}
