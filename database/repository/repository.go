package repository

import (
	notificationRepo "yoyaku/database/repository/notification"
	reservationRepo "yoyaku/database/repository/reservation"
	slotRepo "yoyaku/database/repository/slot"
	userRepo "yoyaku/database/repository/user"
)

// Re-export the SlotRepository interface and constructor.
type SlotRepository = slotRepo.SlotRepository

var NewMongoSlotRepo = slotRepo.NewMongoSlotRepo

// Re-export the ReservationRepository interface and constructor.
type ReservationRepository = reservationRepo.ReservationRepository

var NewMongoReservationRepo = reservationRepo.NewMongoReservationRepo

// Re-export the UserRepository interface and constructor.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepo = userRepo.NewMongoUserRepo

// Re-export the NotificationRepository interface and constructor.
type NotificationRepository = notificationRepo.NotificationRepository

var NewMongoNotificationRepo = notificationRepo.NewMongoNotificationRepo
