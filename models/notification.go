package models

import "time"

// Notification log statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification types.
const (
	NotificationTypeReminder = "reminder"
)

// NotificationLog is the durable record of an outbound notification. The
// "sent" row per (reservation, type) is the source of truth for whether a
// reminder was already delivered; delivery producers claim a pending row
// before sending so at most one of them wins.
type NotificationLog struct {
	ID            string    `bson:"id" json:"id"`
	ReservationID string    `bson:"reservationId" json:"reservationId"`
	Type          string    `bson:"type" json:"type"`
	Status        string    `bson:"status" json:"status"`
	ErrorMessage  string    `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
