package models

import "time"

// Reservation status values. A reservation leaves "confirmed" exactly once,
// to either "cancelled" or "completed", and is never physically deleted.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Reservation represents a confirmed table booking.
type Reservation struct {
	ID              string    `bson:"id" json:"id"`
	UserID          string    `bson:"userId" json:"userId"`
	Date            string    `bson:"date" json:"date"`
	StartTime       string    `bson:"startTime" json:"startTime"`
	EndTime         string    `bson:"endTime" json:"endTime"`
	GuestCount      int       `bson:"guestCount" json:"guestCount"`
	Status          string    `bson:"status" json:"status"`
	SpecialRequests string    `bson:"specialRequests,omitempty" json:"specialRequests,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ReservationUpdate carries the mutable fields of an update. Nil means
// "leave unchanged".
type ReservationUpdate struct {
	Date       *string
	StartTime  *string
	EndTime    *string
	GuestCount *int
}
