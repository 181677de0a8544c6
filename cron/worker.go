// Package cron runs the background side of reminder delivery: the asynq
// worker that fires deferred reminder tasks and the daily recovery sweep.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"yoyaku/config"
	"yoyaku/models"
	"yoyaku/services/reminder"
	"yoyaku/utils"
)

// InitReminderWorker starts the asynq worker in the background. Returns the
// server so the caller can shut it down.
func InitReminderWorker(scheduler *reminder.Scheduler) *asynq.Server {
	logger := utils.GetLogger().Sugar()

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(reminder.TypeSendReminder, handleReminderTask(scheduler))

	go func() {
		logger.Infow("starting reminder worker")
		const maxAttempts = 5
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Errorw("reminder worker failed to start",
				"attempt", attempt, "maxAttempts", maxAttempts, "error", err)
			if attempt == maxAttempts {
				logger.Fatalw("reminder worker gave up starting")
			}
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}
	}()

	return srv
}

func handleReminderTask(scheduler *reminder.Scheduler) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid reminder payload: %w", err)
		}
		return scheduler.Deliver(ctx, p.ReservationID)
	}
}

// StartDailySweep schedules the recovery sweep at the reminder hour every
// day, in the business timezone. Returns the cron runner for shutdown.
func StartDailySweep(scheduler *reminder.Scheduler) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(utils.Location()))
	spec := fmt.Sprintf("0 %d * * *", config.AppConfig.ReminderHour)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		scheduler.SweepTomorrow(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule daily reminder sweep: %w", err)
	}
	c.Start()
	utils.GetLogger().Sugar().Infow("daily reminder sweep scheduled", "spec", spec)
	return c, nil
}
