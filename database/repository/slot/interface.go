package slotRepo

import (
	"context"

	"yoyaku/models"
)

// SlotRepository owns the time_slots collection. Reserve and Release are the
// only operations that mutate availability; both are single conditional
// updates so concurrent callers on one slot can never drive available outside
// [0, capacity].
type SlotRepository interface {
	// Reserve decrements available by qty only if available >= qty, in one
	// atomic compare-and-update. It reports whether the decrement occurred.
	// A false return is the authoritative "slot full" signal.
	Reserve(ctx context.Context, slotID string, qty int) (bool, error)

	// Release increments available by qty, clamped to capacity. Clamping
	// protects against a retried compensation inflating availability.
	Release(ctx context.Context, slotID string, qty int) error

	// IsAvailable is a read-only hint; true at check time does not guarantee
	// a later Reserve succeeds.
	IsAvailable(ctx context.Context, date, startTime string, qty int) (bool, error)

	GetByDateTime(ctx context.Context, date, startTime string) (*models.TimeSlot, error)
	GetByDate(ctx context.Context, date string) ([]models.TimeSlot, error)
	FindAvailableDates(ctx context.Context, from string, daysAhead int) ([]string, error)
	CountFrom(ctx context.Context, date string) (int64, error)
	CreateMany(ctx context.Context, slots []models.TimeSlot) error
}
