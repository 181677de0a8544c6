package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"yoyaku/config"
	"yoyaku/cron"
	"yoyaku/database"
	"yoyaku/database/repository"
	"yoyaku/handlers"
	"yoyaku/routes"
	"yoyaku/services/line"
	"yoyaku/services/reminder"
	"yoyaku/services/reservation"
	"yoyaku/services/session"
	"yoyaku/services/slotinit"
	"yoyaku/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	slotRepo := repository.NewMongoSlotRepo()
	reservationRepo := repository.NewMongoReservationRepo()
	userRepo := repository.NewMongoUserRepo()
	notificationRepo := repository.NewMongoNotificationRepo()

	// Seed the bookable slot window before taking traffic.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := slotinit.Seed(seedCtx, slotRepo); err != nil {
		logger.Sugar().Fatalf("main: failed to seed time slots: %v", err)
	}
	cancelSeed()

	// services.
	reservationService := &reservation.DefaultReservationService{
		Users:        userRepo,
		Slots:        slotRepo,
		Reservations: reservationRepo,
		Tx:           database.NewMongoTxRunner(database.MongoClient),
	}

	lineClient := line.NewClient()

	queueOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
	queueClient := asynq.NewClient(queueOpts)
	defer queueClient.Close()

	reminderScheduler := &reminder.Scheduler{
		Reservations: reservationRepo,
		Users:        userRepo,
		Logs:         notificationRepo,
		Notifier:     lineClient,
		Enqueuer:     queueClient,
	}

	dialogueHandler := &handlers.DialogueHandler{
		Sessions:     session.NewRedisStore(utils.GetSessionCacheClient()),
		Reservations: reservationService,
		Reminders:    reminderScheduler,
		Gateway:      lineClient,
	}

	routes.RegisterRoutes(router, dialogueHandler)

	// Background reminder delivery.
	workerSrv := cron.InitReminderWorker(reminderScheduler)
	sweeper, err := cron.StartDailySweep(reminderScheduler)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to start daily sweep: %v", err)
	}

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetSessionCacheClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	sweeper.Stop()
	workerSrv.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
