// Package slotinit seeds the bookable time slot inventory at startup.
package slotinit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yoyaku/config"
	"yoyaku/database/repository"
	"yoyaku/models"
	"yoyaku/utils"
)

// Seed creates hourly slots for the configured booking window, skipping the
// weekly closed day. It is idempotent: if any future slots exist the seed is
// a no-op, and duplicate slot inserts are tolerated for partially seeded
// windows.
func Seed(ctx context.Context, slots repository.SlotRepository) error {
	logger := utils.GetLogger().Sugar()
	today := utils.FormatDate(utils.BusinessNow())

	existing, err := slots.CountFrom(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to count existing slots: %w", err)
	}
	if existing > 0 {
		logger.Debugw("time slots already initialized", "futureSlots", existing)
		return nil
	}

	cfg := config.AppConfig
	batch := make([]models.TimeSlot, 0, cfg.SlotDaysAhead*(cfg.CloseHour-cfg.OpenHour))
	now := time.Now()
	for i := 0; i < cfg.SlotDaysAhead; i++ {
		date, err := utils.AddDays(today, i)
		if err != nil {
			return err
		}
		if utils.IsClosedDay(date) {
			continue
		}
		for hour := cfg.OpenHour; hour < cfg.CloseHour; hour++ {
			batch = append(batch, models.TimeSlot{
				ID:        uuid.New().String(),
				Date:      date,
				StartTime: fmt.Sprintf("%02d:00", hour),
				EndTime:   fmt.Sprintf("%02d:00", hour+1),
				Capacity:  cfg.SlotCapacity,
				Available: cfg.SlotCapacity,
				CreatedAt: now,
			})
		}
	}

	if err := slots.CreateMany(ctx, batch); err != nil {
		return fmt.Errorf("failed to seed time slots: %w", err)
	}
	logger.Infow("time slots initialized", "slots", len(batch), "daysAhead", cfg.SlotDaysAhead)
	return nil
}
