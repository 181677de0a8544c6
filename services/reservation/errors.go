package reservation

import (
	"errors"
	"fmt"
)

// Error codes classifying reservation failures. Validation, capacity,
// conflict and not-found errors are user-reportable and never retried;
// anything else is a persistence failure surfaced as a generic error.
const (
	CodeValidation = "validationError"
	CodeCapacity   = "capacityError"
	CodeConflict   = "conflictError"
	CodeNotFound   = "notFoundError"
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrSlotNotFound        = &Error{Code: CodeNotFound, Message: "指定された時間枠が見つかりません"}
	ErrSlotFull            = &Error{Code: CodeCapacity, Message: "ご指定の時間は満席です。別の時間をお選びください。"}
	ErrDuplicateBooking    = &Error{Code: CodeConflict, Message: "この時間にすでに予約があります"}
	ErrReservationNotFound = &Error{Code: CodeNotFound, Message: "予約が見つかりません"}
	ErrAlreadyCancelled    = &Error{Code: CodeConflict, Message: "すでにキャンセル済みの予約です"}
)

// NewValidationError builds a user-facing business-rule violation.
func NewValidationError(msg string) error {
	return &Error{Code: CodeValidation, Message: msg}
}

// CodeOf extracts the reservation error code, or "" for plain errors.
func CodeOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// UserMessage returns the user-facing text for a reservation failure, or a
// generic apology for internal errors.
func UserMessage(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Message
	}
	return "処理中にエラーが発生しました。もう一度お試しください。"
}
