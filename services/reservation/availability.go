// File: services/reservation/availability.go
package reservation

import (
	"context"
	"fmt"

	"yoyaku/config"
	"yoyaku/models"
	"yoyaku/utils"
)

// GetAvailableSlots lists the slots for a date, already filtered by the
// closed-day and future-date rules. An empty result is the normal outcome
// for a closed or past day, not an error.
func (s *DefaultReservationService) GetAvailableSlots(ctx context.Context, date string) ([]models.TimeSlot, error) {
	if utils.IsClosedDay(date) {
		return nil, nil
	}
	if !utils.IsFuture(date, "") {
		return nil, nil
	}
	slots, err := s.Slots.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	open := slots[:0]
	for _, slot := range slots {
		if slot.Available > 0 {
			open = append(open, slot)
		}
	}
	return open, nil
}

// ValidateReservationTime applies the three admission rules that gate a
// booking attempt: weekly closed day, no past date/time, and the business
// hours window. These are re-checked inside Create, because time passes
// between the dialogue's validation and the final confirmation.
func (s *DefaultReservationService) ValidateReservationTime(date, tm string) error {
	if utils.IsClosedDay(date) {
		return NewValidationError(fmt.Sprintf("%s曜日は定休日です", utils.WeekdayJP(config.AppConfig.ClosedWeekday)))
	}
	if !utils.IsFuture(date, tm) {
		return NewValidationError("過去の日時は指定できません")
	}
	if !utils.IsWithinBusinessHours(tm) {
		return NewValidationError(fmt.Sprintf("営業時間外です（%d:00-%d:00）",
			config.AppConfig.OpenHour, config.AppConfig.CloseHour))
	}
	return nil
}

// GetUserReservations returns the user's upcoming confirmed reservations,
// soonest first. Unknown users simply have none.
func (s *DefaultReservationService) GetUserReservations(ctx context.Context, lineUserID string) ([]models.Reservation, error) {
	user, err := s.Users.FindByLineID(ctx, lineUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	now := utils.BusinessNow()
	return s.Reservations.FindUpcomingByUser(ctx, user.ID,
		now.Format(utils.DateLayout), now.Format(utils.TimeLayout))
}
