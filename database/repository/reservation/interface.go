package reservationRepo

import (
	"context"
	"errors"

	"yoyaku/models"
)

// ErrDuplicateKey reports that a write collided with the unique constraint on
// confirmed (userId, date, startTime) rows. The service layer maps it to the
// user-facing duplicate-booking conflict.
var ErrDuplicateKey = errors.New("duplicate confirmed reservation")

// ReservationRepository owns the reservations collection. Reservations are
// never deleted; Cancel is a conditional status flip guarded on "confirmed"
// so concurrent cancels resolve to exactly one winner.
type ReservationRepository interface {
	// Create inserts a confirmed reservation. A write that races another
	// confirmed row for the same (userId, date, startTime) returns an error
	// wrapping ErrDuplicateKey.
	Create(ctx context.Context, res *models.Reservation) error
	GetByID(ctx context.Context, id string) (*models.Reservation, error)

	// Update rewrites date/time/guestCount fields. Moving onto a (date,
	// startTime) the user already holds returns an error wrapping
	// ErrDuplicateKey, same as Create.
	Update(ctx context.Context, id string, upd models.ReservationUpdate) (*models.Reservation, error)

	// Cancel flips status confirmed -> cancelled and reports whether any row
	// matched. False means the reservation was already out of "confirmed".
	Cancel(ctx context.Context, id string) (bool, error)

	// HasConflicting reports whether the user already holds a confirmed
	// reservation at (date, startTime), excluding excludeID when non-empty.
	HasConflicting(ctx context.Context, userID, date, startTime, excludeID string) (bool, error)

	FindUpcomingByUser(ctx context.Context, userID, fromDate, fromTime string) ([]models.Reservation, error)
	FindConfirmedByDate(ctx context.Context, date string) ([]models.Reservation, error)
}
