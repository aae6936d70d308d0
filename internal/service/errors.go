package service

import "errors"

var (
	ErrNotFound          = errors.New("homework not found")
	ErrClassroomNotFound = errors.New("classroom not found")
	ErrForbidden         = errors.New("not allowed to perform this action")
	ErrInactive          = errors.New("homework is no longer active")
	ErrNotReady          = errors.New("questions are not ready yet")
)

// ValidationError marks a rejected request payload. Handlers translate it
// into a 400 with the reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErr(reason string) error {
	return &ValidationError{Reason: reason}
}
