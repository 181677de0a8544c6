package models

import "time"

// TimeSlot represents one bookable hour of the restaurant's day. Identity is
// the (date, startTime) pair. Available is only ever mutated through the slot
// repository's conditional primitives and stays within [0, capacity].
type TimeSlot struct {
	ID        string    `bson:"id" json:"id"`
	Date      string    `bson:"date" json:"date"`           // "2006-01-02"
	StartTime string    `bson:"startTime" json:"startTime"` // "15:04"
	EndTime   string    `bson:"endTime" json:"endTime"`
	Capacity  int       `bson:"capacity" json:"capacity"`
	Available int       `bson:"available" json:"available"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// IsAvailable reports whether the slot still admits at least one guest.
func (s TimeSlot) IsAvailable() bool {
	return s.Available > 0
}
