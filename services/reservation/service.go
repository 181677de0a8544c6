// File: services/reservation/service.go
package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	reservationRepo "yoyaku/database/repository/reservation"
	"yoyaku/models"
	"yoyaku/utils"
)

// Create books a table inside one atomic unit of work. The conditional
// Reserve is the authoritative admission gate; the availability and conflict
// checks before it only produce friendlier failures for the common cases.
func (s *DefaultReservationService) Create(ctx context.Context, req CreateRequest) (*models.Reservation, error) {
	if req.GuestCount < 1 {
		return nil, NewValidationError("ご利用人数は1名以上でご指定ください")
	}
	// Time may have passed since the dialogue validated, so the rules are
	// re-checked here.
	if err := s.ValidateReservationTime(req.Date, req.StartTime); err != nil {
		return nil, err
	}

	var created *models.Reservation
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, err := s.Users.FindOrCreate(ctx, req.LineUserID, req.DisplayName)
		if err != nil {
			return fmt.Errorf("find or create user: %w", err)
		}

		slot, err := s.Slots.GetByDateTime(ctx, req.Date, req.StartTime)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrSlotNotFound
		}

		ok, err := s.Slots.IsAvailable(ctx, req.Date, req.StartTime, req.GuestCount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSlotFull
		}

		conflict, err := s.Reservations.HasConflicting(ctx, user.ID, req.Date, req.StartTime, "")
		if err != nil {
			return err
		}
		if conflict {
			return ErrDuplicateBooking
		}

		// The availability hint above may already be stale; a false return
		// here means we lost the race.
		reserved, err := s.Slots.Reserve(ctx, slot.ID, req.GuestCount)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrSlotFull
		}

		endTime, err := utils.EndTime(req.StartTime)
		if err != nil {
			return err
		}

		res := &models.Reservation{
			ID:              uuid.New().String(),
			UserID:          user.ID,
			Date:            req.Date,
			StartTime:       req.StartTime,
			EndTime:         endTime,
			GuestCount:      req.GuestCount,
			Status:          models.StatusConfirmed,
			SpecialRequests: req.SpecialRequests,
		}
		if err := s.Reservations.Create(ctx, res); err != nil {
			// The insert still races the unique index when two submissions
			// for the same (user, date, time) both pass HasConflicting. On
			// any insert failure the seats taken above go back; without this
			// the standalone-Mongo deployment would leak capacity.
			s.undoNewReserve(ctx, slot.ID, req.GuestCount)
			if errors.Is(err, reservationRepo.ErrDuplicateKey) {
				return ErrDuplicateBooking
			}
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update moves a reservation to a new date/time/guest count. Moving capacity
// between two slots is not a single atomic accounting step, so this runs as a
// saga: release the old slot up front, and on any later failure re-reserve it
// before surfacing the error.
func (s *DefaultReservationService) Update(ctx context.Context, req UpdateRequest) (*models.Reservation, error) {
	var updated *models.Reservation
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.Reservations.GetByID(ctx, req.ReservationID)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status != models.StatusConfirmed {
			return ErrReservationNotFound
		}

		oldSlot, err := s.Slots.GetByDateTime(ctx, existing.Date, existing.StartTime)
		if err != nil {
			return err
		}

		// Tentative release so the freed seats are visible to concurrent
		// viewers while the target slot is resolved.
		if oldSlot != nil {
			if err := s.Slots.Release(ctx, oldSlot.ID, existing.GuestCount); err != nil {
				return err
			}
		}

		targetDate := existing.Date
		if req.NewDate != nil {
			targetDate = *req.NewDate
		}
		targetTime := existing.StartTime
		if req.NewTime != nil {
			targetTime = *req.NewTime
		}
		targetGuests := existing.GuestCount
		if req.NewGuestCount != nil {
			targetGuests = *req.NewGuestCount
		}
		if targetGuests < 1 {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return NewValidationError("ご利用人数は1名以上でご指定ください")
		}
		if err := s.ValidateReservationTime(targetDate, targetTime); err != nil {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return err
		}

		newSlot, err := s.Slots.GetByDateTime(ctx, targetDate, targetTime)
		if err != nil {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return err
		}
		if newSlot == nil {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return ErrSlotNotFound
		}

		ok, err := s.Slots.IsAvailable(ctx, targetDate, targetTime, targetGuests)
		if err != nil {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return err
		}
		if !ok {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return ErrSlotFull
		}

		conflict, err := s.Reservations.HasConflicting(ctx, existing.UserID, targetDate, targetTime, existing.ID)
		if err != nil {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return err
		}
		if conflict {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return ErrDuplicateBooking
		}

		reserved, err := s.Slots.Reserve(ctx, newSlot.ID, targetGuests)
		if err != nil {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return err
		}
		if !reserved {
			s.restoreOldSlot(ctx, oldSlot, existing)
			return ErrSlotFull
		}

		endTime, err := utils.EndTime(targetTime)
		if err != nil {
			s.undoNewReserve(ctx, newSlot.ID, targetGuests)
			s.restoreOldSlot(ctx, oldSlot, existing)
			return err
		}

		row, err := s.Reservations.Update(ctx, existing.ID, models.ReservationUpdate{
			Date:       &targetDate,
			StartTime:  &targetTime,
			EndTime:    &endTime,
			GuestCount: &targetGuests,
		})
		if err != nil || row == nil {
			// Last-resort compensation: give back the new seats, then take
			// the old ones again.
			s.undoNewReserve(ctx, newSlot.ID, targetGuests)
			s.restoreOldSlot(ctx, oldSlot, existing)
			if errors.Is(err, reservationRepo.ErrDuplicateKey) {
				return ErrDuplicateBooking
			}
			if err != nil {
				return err
			}
			return ErrReservationNotFound
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel releases the seats and flips the status with a conditional update
// guarded on "confirmed". Losing that race undoes the release, so a double
// cancel never frees capacity twice.
func (s *DefaultReservationService) Cancel(ctx context.Context, reservationID string) (*models.Reservation, error) {
	var cancelled *models.Reservation
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		res, err := s.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrReservationNotFound
		}
		if res.Status != models.StatusConfirmed {
			return ErrAlreadyCancelled
		}

		slot, err := s.Slots.GetByDateTime(ctx, res.Date, res.StartTime)
		if err != nil {
			return err
		}
		if slot != nil {
			if err := s.Slots.Release(ctx, slot.ID, res.GuestCount); err != nil {
				return err
			}
		}

		ok, err := s.Reservations.Cancel(ctx, reservationID)
		if err != nil {
			return err
		}
		if !ok {
			// Cancelled concurrently; take the seats back.
			s.restoreOldSlot(ctx, slot, res)
			return ErrAlreadyCancelled
		}

		res.Status = models.StatusCancelled
		cancelled = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// restoreOldSlot re-reserves the released seats during saga compensation.
// A failed undo here is the known narrow double-failure window: it is logged
// loudly and the caller still returns the original failure.
func (s *DefaultReservationService) restoreOldSlot(ctx context.Context, slot *models.TimeSlot, res *models.Reservation) {
	if slot == nil {
		return
	}
	ok, err := s.Slots.Reserve(ctx, slot.ID, res.GuestCount)
	if err != nil || !ok {
		utils.GetLogger().Error("consistency alert: failed to restore slot capacity during compensation",
			zap.String("slotID", slot.ID),
			zap.String("reservationID", res.ID),
			zap.Int("guestCount", res.GuestCount),
			zap.Bool("reserved", ok),
			zap.Error(err),
		)
	}
}

// undoNewReserve gives back seats taken on the target slot when the saga
// fails after its reserve step.
func (s *DefaultReservationService) undoNewReserve(ctx context.Context, slotID string, qty int) {
	if err := s.Slots.Release(ctx, slotID, qty); err != nil {
		utils.GetLogger().Error("consistency alert: failed to release target slot during compensation",
			zap.String("slotID", slotID),
			zap.Int("guestCount", qty),
			zap.Error(err),
		)
	}
}
