// File: database/repository/reservation/memory.go
package reservationRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"yoyaku/models"
)

// MemoryReservationRepo is an in-memory ReservationRepository used by
// service tests. Cancel keeps the conditional-update semantics of the Mongo
// implementation, and writes enforce the unique confirmed (userId, date,
// startTime) constraint the Mongo partial index provides.
type MemoryReservationRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Reservation
}

func NewMemoryReservationRepo() *MemoryReservationRepo {
	return &MemoryReservationRepo{rows: make(map[string]*models.Reservation)}
}

// hasConfirmedLocked reports whether a confirmed row other than excludeID
// already occupies (userID, date, startTime). Callers hold r.mu.
func (r *MemoryReservationRepo) hasConfirmedLocked(userID, date, startTime, excludeID string) bool {
	for _, row := range r.rows {
		if row.ID == excludeID {
			continue
		}
		if row.UserID == userID && row.Date == date && row.StartTime == startTime &&
			row.Status == models.StatusConfirmed {
			return true
		}
	}
	return false
}

func (r *MemoryReservationRepo) Create(_ context.Context, res *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.Status == models.StatusConfirmed &&
		r.hasConfirmedLocked(res.UserID, res.Date, res.StartTime, res.ID) {
		return fmt.Errorf("failed to create reservation: %w", ErrDuplicateKey)
	}

	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now
	cp := *res
	r.rows[cp.ID] = &cp
	return nil
}

func (r *MemoryReservationRepo) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *MemoryReservationRepo) Update(_ context.Context, id string, upd models.ReservationUpdate) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}

	targetDate, targetTime := row.Date, row.StartTime
	if upd.Date != nil {
		targetDate = *upd.Date
	}
	if upd.StartTime != nil {
		targetTime = *upd.StartTime
	}
	if row.Status == models.StatusConfirmed &&
		r.hasConfirmedLocked(row.UserID, targetDate, targetTime, row.ID) {
		return nil, fmt.Errorf("failed to update reservation %s: %w", id, ErrDuplicateKey)
	}

	if upd.Date != nil {
		row.Date = *upd.Date
	}
	if upd.StartTime != nil {
		row.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		row.EndTime = *upd.EndTime
	}
	if upd.GuestCount != nil {
		row.GuestCount = *upd.GuestCount
	}
	row.UpdatedAt = time.Now()
	cp := *row
	return &cp, nil
}

func (r *MemoryReservationRepo) Cancel(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok || row.Status != models.StatusConfirmed {
		return false, nil
	}
	row.Status = models.StatusCancelled
	row.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryReservationRepo) HasConflicting(_ context.Context, userID, date, startTime, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasConfirmedLocked(userID, date, startTime, excludeID), nil
}

func (r *MemoryReservationRepo) FindUpcomingByUser(_ context.Context, userID, fromDate, fromTime string) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Reservation
	for _, row := range r.rows {
		if row.UserID != userID || row.Status != models.StatusConfirmed {
			continue
		}
		if row.Date > fromDate || (row.Date == fromDate && row.StartTime > fromTime) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *MemoryReservationRepo) FindConfirmedByDate(_ context.Context, date string) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Reservation
	for _, row := range r.rows {
		if row.Date == date && row.Status == models.StatusConfirmed {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}
