package models

import "time"

// User is a LINE contact who has attempted at least one reservation.
// Identity is keyed by the external LINE user ID; the display name is a
// cached copy of the LINE profile, refreshed opportunistically.
type User struct {
	ID          string    `bson:"id" json:"id"`
	LineUserID  string    `bson:"lineUserId" json:"lineUserId"`
	DisplayName string    `bson:"displayName,omitempty" json:"displayName,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
