// Package error defines domain-specific errors for the LifeOS application.
package error

import "errors"

// Progression domain errors.
var (
	// ErrInsufficientCoins is returned when spending more coins than the balance.
	ErrInsufficientCoins = errors.New("insufficient coins")

	// ErrInvalidAmount is returned for zero or negative XP or coin amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrTaskAlreadyCompleted is returned when completing a completed task.
	ErrTaskAlreadyCompleted = errors.New("task is already completed")

	// ErrTaskNotRestorable is returned when restoring a task that is still todo.
	ErrTaskNotRestorable = errors.New("task is not completed or cancelled")

	// ErrFutureDate is returned when logging a habit in the future.
	ErrFutureDate = errors.New("date is in the future")

	// ErrReviewAlreadySubmitted is returned for a second review on the same day.
	ErrReviewAlreadySubmitted = errors.New("daily review already submitted for this date")
)

// ProgressionErrorCode defines error codes for progression errors.
// Format: PRG-XXYYYY where XX is category and YYYY is specific error.
type ProgressionErrorCode string

const (
	// Economy errors (01XXXX)
	ErrCodeInsufficientCoins ProgressionErrorCode = "PRG-010001"
	ErrCodeInvalidAmount     ProgressionErrorCode = "PRG-010002"

	// State transition errors (02XXXX)
	ErrCodeTaskAlreadyCompleted   ProgressionErrorCode = "PRG-020001"
	ErrCodeTaskNotRestorable      ProgressionErrorCode = "PRG-020002"
	ErrCodeFutureDate             ProgressionErrorCode = "PRG-020003"
	ErrCodeReviewAlreadySubmitted ProgressionErrorCode = "PRG-020004"
)

// ProgressionError represents a progression error with code and message.
type ProgressionError struct {
	Code    ProgressionErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ProgressionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ProgressionError) Unwrap() error {
	return e.Err
}

// NewProgressionError creates a new ProgressionError with the given code and message.
func NewProgressionError(code ProgressionErrorCode, message string, err error) *ProgressionError {
	return &ProgressionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
