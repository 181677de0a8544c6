package notificationRepo

import (
	"context"
	"time"
)

// StaleClaimAge is how long a pending row may sit unresolved before another
// producer may take it over. A worker that crashes between Claim and
// MarkSent/MarkFailed would otherwise pin the row in pending forever, and
// the daily sweep could never retry the delivery.
const StaleClaimAge = 10 * time.Minute

// NotificationRepository owns the notification_logs collection, the durable
// record of reminder delivery. Claim is the idempotency gate: both the timer
// path and the recovery sweep go through it, and at most one obtains the
// pending row for a (reservation, type) pair.
type NotificationRepository interface {
	// Claim records a pending delivery attempt. It reports false when a sent
	// row or a fresh pending row already exists; failed attempts and pending
	// rows older than StaleClaimAge may be re-claimed.
	Claim(ctx context.Context, reservationID, notifType string) (bool, error)

	MarkSent(ctx context.Context, reservationID, notifType string) error
	MarkFailed(ctx context.Context, reservationID, notifType, errMsg string) error

	HasSent(ctx context.Context, reservationID, notifType string) (bool, error)
}
