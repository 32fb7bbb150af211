// Package error defines domain-specific errors for the LifeOS application.
package error

import "errors"

// Goal domain errors.
var (
	// ErrMilestoneNotFound is returned when a milestone is not part of a goal.
	ErrMilestoneNotFound = errors.New("milestone not found")

	// ErrGoalArchived is returned when progress is recorded on an archived goal.
	ErrGoalArchived = errors.New("goal is archived")
)

// GoalErrorCode defines error codes for goal errors.
// Format: GOL-XXYYYY where XX is category and YYYY is specific error.
type GoalErrorCode string

const (
	ErrCodeMilestoneNotFound GoalErrorCode = "GOL-010001"
	ErrCodeGoalArchived      GoalErrorCode = "GOL-010002"
)

// GoalError represents a goal error with code and message.
type GoalError struct {
	Code    GoalErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *GoalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *GoalError) Unwrap() error {
	return e.Err
}

// NewGoalError creates a new GoalError with the given code and message.
func NewGoalError(code GoalErrorCode, message string, err error) *GoalError {
	return &GoalError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
