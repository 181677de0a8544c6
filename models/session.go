package models

// Conversation session states. The dialogue progresses
// selecting_date -> selecting_time -> confirming; "editing" drives the
// modify-existing-reservation flow on the same machine.
const (
	StateSelectingDate = "selecting_date"
	StateSelectingTime = "selecting_time"
	StateConfirming    = "confirming"
	StateEditing       = "editing"
)

// Session is the per-user conversation state with the in-progress booking
// draft. It lives in the session store under the user's LINE ID with a TTL;
// expiry is handled by the store, not carried here.
type Session struct {
	UserID          string `json:"userId"`
	State           string `json:"state"`
	SelectedDate    string `json:"selectedDate,omitempty"`
	SelectedTime    string `json:"selectedTime,omitempty"`
	GuestCount      int    `json:"guestCount,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
	// ReservationID is set while editing an existing reservation.
	ReservationID string `json:"reservationId,omitempty"`
}
