package reservation

import (
	"context"

	"yoyaku/database"
	reservationRepo "yoyaku/database/repository/reservation"
	slotRepo "yoyaku/database/repository/slot"
	userRepo "yoyaku/database/repository/user"
	"yoyaku/models"
)

// CreateRequest carries everything needed to book a table.
type CreateRequest struct {
	LineUserID      string
	DisplayName     string
	Date            string
	StartTime       string
	GuestCount      int
	SpecialRequests string
}

// UpdateRequest moves an existing reservation. Nil fields keep the current
// value.
type UpdateRequest struct {
	ReservationID string
	NewDate       *string
	NewTime       *string
	NewGuestCount *int
}

// ReservationService is the transactional reservation lifecycle: create,
// update (saga with explicit compensation) and cancel, plus the read-side
// availability helpers that gate the dialogue.
type ReservationService interface {
	Create(ctx context.Context, req CreateRequest) (*models.Reservation, error)
	Update(ctx context.Context, req UpdateRequest) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID string) (*models.Reservation, error)

	GetAvailableSlots(ctx context.Context, date string) ([]models.TimeSlot, error)
	ValidateReservationTime(date, tm string) error
	GetUserReservations(ctx context.Context, lineUserID string) ([]models.Reservation, error)
}

// DefaultReservationService implements ReservationService.
type DefaultReservationService struct {
	Users        userRepo.UserRepository
	Slots        slotRepo.SlotRepository
	Reservations reservationRepo.ReservationRepository
	Tx           database.TxRunner
}
