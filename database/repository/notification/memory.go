// File: database/repository/notification/memory.go
package notificationRepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"yoyaku/models"
)

// MemoryNotificationRepo is an in-memory NotificationRepository with the
// same claim semantics as the Mongo implementation.
type MemoryNotificationRepo struct {
	mu   sync.Mutex
	logs map[string]*models.NotificationLog // by reservationID + "/" + type
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{logs: make(map[string]*models.NotificationLog)}
}

func key(reservationID, notifType string) string {
	return reservationID + "/" + notifType
}

func (r *MemoryNotificationRepo) Claim(_ context.Context, reservationID, notifType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(reservationID, notifType)
	if row, ok := r.logs[k]; ok {
		stalePending := row.Status == models.NotificationPending &&
			time.Since(row.UpdatedAt) >= StaleClaimAge
		if row.Status != models.NotificationFailed && !stalePending {
			return false, nil
		}
		row.Status = models.NotificationPending
		row.ErrorMessage = ""
		row.UpdatedAt = time.Now()
		return true, nil
	}

	now := time.Now()
	r.logs[k] = &models.NotificationLog{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		Type:          notifType,
		Status:        models.NotificationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return true, nil
}

func (r *MemoryNotificationRepo) MarkSent(_ context.Context, reservationID, notifType string) error {
	return r.setStatus(reservationID, notifType, models.NotificationSent, "")
}

func (r *MemoryNotificationRepo) MarkFailed(_ context.Context, reservationID, notifType, errMsg string) error {
	return r.setStatus(reservationID, notifType, models.NotificationFailed, errMsg)
}

func (r *MemoryNotificationRepo) setStatus(reservationID, notifType, status, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if row, ok := r.logs[key(reservationID, notifType)]; ok {
		row.Status = status
		row.ErrorMessage = errMsg
		row.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryNotificationRepo) HasSent(_ context.Context, reservationID, notifType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.logs[key(reservationID, notifType)]
	return ok && row.Status == models.NotificationSent, nil
}
