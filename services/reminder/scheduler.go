// Package reminder schedules and delivers day-before reservation reminders.
// Two paths lead to delivery: a deferred queue task scheduled at booking
// time, and a daily recovery sweep that picks up anything the timer path
// missed. The notification log arbitrates between them so each reservation
// is reminded at most once.
package reminder

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"yoyaku/database/repository"
	"yoyaku/models"
	"yoyaku/utils"
)

// Enqueuer is the slice of asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier delivers a plain text push message to a LINE user.
type Notifier interface {
	PushText(ctx context.Context, to, text string) error
}

// Scheduler wires reminder scheduling, delivery, and the recovery sweep.
type Scheduler struct {
	Reservations repository.ReservationRepository
	Users        repository.UserRepository
	Logs         repository.NotificationRepository
	Notifier     Notifier
	Enqueuer     Enqueuer
}

// Schedule enqueues a reminder for res, due the day before at the configured
// reminder hour. Reservations made within a day of the visit have no timer;
// same-day visits get no reminder at all and next-day visits are covered by
// the sweep.
func (s *Scheduler) Schedule(ctx context.Context, res *models.Reservation) error {
	logger := utils.GetLogger().Sugar()

	fireAt, err := utils.ReminderFireTime(res.Date)
	if err != nil {
		return fmt.Errorf("failed to compute reminder time: %w", err)
	}
	if !fireAt.After(utils.BusinessNow()) {
		logger.Debugw("reminder time already passed, relying on daily sweep",
			"reservationID", res.ID, "fireAt", fireAt)
		return nil
	}

	task, opts, err := NewReminderTask(models.ReminderPayload{ReservationID: res.ID}, fireAt)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	info, err := s.Enqueuer.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	logger.Infow("reminder scheduled", "reservationID", res.ID, "taskID", info.ID, "fireAt", fireAt)
	return nil
}

// Deliver sends the reminder for reservationID if it is still due. The
// reservation is re-read because it may have been cancelled or moved since
// the task was enqueued, and the notification log is claimed first so a
// concurrent sweep cannot double-send.
func (s *Scheduler) Deliver(ctx context.Context, reservationID string) error {
	logger := utils.GetLogger().Sugar()

	res, err := s.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("failed to load reservation %s: %w", reservationID, err)
	}
	if res == nil || res.Status != models.StatusConfirmed {
		logger.Debugw("reminder skipped, reservation no longer confirmed", "reservationID", reservationID)
		return nil
	}

	claimed, err := s.Logs.Claim(ctx, res.ID, models.NotificationTypeReminder)
	if err != nil {
		return fmt.Errorf("failed to claim reminder for %s: %w", res.ID, err)
	}
	if !claimed {
		logger.Debugw("reminder already handled", "reservationID", res.ID)
		return nil
	}

	user, err := s.Users.GetByID(ctx, res.UserID)
	if err != nil || user == nil {
		s.markFailed(ctx, res.ID, "user lookup failed")
		return fmt.Errorf("failed to load user for reservation %s: %w", res.ID, err)
	}

	text := buildReminderText(user.DisplayName, res)
	if err := s.Notifier.PushText(ctx, user.LineUserID, text); err != nil {
		s.markFailed(ctx, res.ID, err.Error())
		return fmt.Errorf("failed to push reminder for %s: %w", res.ID, err)
	}

	if err := s.Logs.MarkSent(ctx, res.ID, models.NotificationTypeReminder); err != nil {
		logger.Errorw("reminder sent but log update failed", "reservationID", res.ID, "error", err)
	}
	logger.Infow("reminder sent", "reservationID", res.ID, "userID", res.UserID)
	return nil
}

// SweepTomorrow delivers reminders for every confirmed reservation tomorrow
// that has no sent record yet. It is the safety net for reminders whose
// queued task was lost or never scheduled.
func (s *Scheduler) SweepTomorrow(ctx context.Context) {
	logger := utils.GetLogger().Sugar()

	date := utils.Tomorrow()
	reservations, err := s.Reservations.FindConfirmedByDate(ctx, date)
	if err != nil {
		logger.Errorw("reminder sweep failed to list reservations", "date", date, "error", err)
		return
	}

	var delivered int
	for i := range reservations {
		res := &reservations[i]
		sent, err := s.Logs.HasSent(ctx, res.ID, models.NotificationTypeReminder)
		if err != nil {
			logger.Errorw("reminder sweep log check failed", "reservationID", res.ID, "error", err)
			continue
		}
		if sent {
			continue
		}
		if err := s.Deliver(ctx, res.ID); err != nil {
			logger.Errorw("reminder sweep delivery failed", "reservationID", res.ID, "error", err)
			continue
		}
		delivered++
	}
	logger.Infow("reminder sweep finished", "date", date, "candidates", len(reservations), "delivered", delivered)
}

func (s *Scheduler) markFailed(ctx context.Context, reservationID, reason string) {
	if err := s.Logs.MarkFailed(ctx, reservationID, models.NotificationTypeReminder, reason); err != nil {
		utils.GetLogger().Sugar().Errorw("failed to record reminder failure",
			"reservationID", reservationID, "error", err)
	}
}

func buildReminderText(displayName string, res *models.Reservation) string {
	shortID := res.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return "🔔 予約のリマインド\n\n" +
		fmt.Sprintf("%sさん、明日のご予約の確認です。\n\n", displayName) +
		fmt.Sprintf("📅 予約日時: %s\n", utils.FormatDateTimeJP(res.Date, res.StartTime)) +
		fmt.Sprintf("👥 ご利用人数: %d名\n", res.GuestCount) +
		fmt.Sprintf("🆔 予約ID: %s\n\n", shortID) +
		"ご来店をお待ちしております！\n\n" +
		"※変更・キャンセルをご希望の場合は、\n" +
		"「予約変更」または「予約キャンセル」とお送りください。"
}
