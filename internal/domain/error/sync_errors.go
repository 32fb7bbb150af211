// Package error defines domain-specific errors for the LifeOS application.
package error

import "errors"

// Sync domain errors.
var (
	// ErrSyncOffline is returned when the remote cannot be reached.
	ErrSyncOffline = errors.New("remote is unreachable")

	// ErrSyncUnauthorized is returned when the remote rejects the credentials.
	// It is never retried automatically.
	ErrSyncUnauthorized = errors.New("sync authorization failed")

	// ErrSyncRemote is returned when the remote answers with a server error.
	ErrSyncRemote = errors.New("remote sync failure")

	// ErrConflictNotFound is returned when resolving an unknown conflict.
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrInvalidStrategy is returned for an unknown resolution strategy.
	ErrInvalidStrategy = errors.New("invalid resolution strategy")

	// ErrInvalidSyncToken is returned when a sync token cannot be decoded.
	ErrInvalidSyncToken = errors.New("invalid sync token")

	// ErrSyncDisabled is returned when no remote is configured.
	ErrSyncDisabled = errors.New("sync is not configured")
)

// SyncErrorCode defines error codes for sync errors.
// Format: SYN-XXYYYY where XX is category and YYYY is specific error.
type SyncErrorCode string

const (
	// Transport errors (01XXXX)
	ErrCodeSyncOffline      SyncErrorCode = "SYN-010001"
	ErrCodeSyncUnauthorized SyncErrorCode = "SYN-010002"
	ErrCodeSyncRemote       SyncErrorCode = "SYN-010003"
	ErrCodeSyncDisabled     SyncErrorCode = "SYN-010004"

	// Protocol errors (02XXXX)
	ErrCodeInvalidSyncToken SyncErrorCode = "SYN-020001"
	ErrCodeInvalidPayload   SyncErrorCode = "SYN-020002"

	// Conflict errors (03XXXX)
	ErrCodeConflictNotFound SyncErrorCode = "SYN-030001"
	ErrCodeInvalidStrategy  SyncErrorCode = "SYN-030002"
)

// SyncError represents a sync error with code and message.
type SyncError struct {
	Code    SyncErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError with the given code and message.
func NewSyncError(code SyncErrorCode, message string, err error) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
