package booking

import "fmt"

type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func NewCommitError(err error) error {
	return &BookingError{
		Code:    "commitError",
		Message: "failed to write appointment",
		Err:     err,
	}
}

func NewInvalidBookingError(msg string) error {
	return &BookingError{
		Code:    "invalidBooking",
		Message: msg,
	}
}
