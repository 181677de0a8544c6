package models

// ReminderPayload is the body of a deferred reminder task. Only the
// reservation ID travels on the queue; everything else is re-read at fire
// time because the reservation may have changed since scheduling.
type ReminderPayload struct {
	ReservationID string `json:"reservationId"`
}
