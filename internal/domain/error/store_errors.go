// Package error defines domain-specific errors for the LifeOS application.
package error

import "errors"

// Store domain errors.
var (
	// ErrRecordNotFound is returned when an id does not exist in a collection.
	ErrRecordNotFound = errors.New("record not found")

	// ErrQuotaExceeded is returned when a serialized collection exceeds the storage quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrPersistence is returned when a write did not durably land.
	ErrPersistence = errors.New("failed to persist data")

	// ErrSerialization is returned when a record cannot be encoded.
	ErrSerialization = errors.New("failed to serialize data")

	// ErrStoreClosed is returned when a disposed store handle is used.
	ErrStoreClosed = errors.New("store is closed")
)

// StoreErrorCode defines error codes for store errors.
// Format: STO-XXYYYY where XX is category and YYYY is specific error.
type StoreErrorCode string

const (
	// Lookup errors (01XXXX)
	ErrCodeRecordNotFound StoreErrorCode = "STO-010001"

	// Persistence errors (02XXXX)
	ErrCodePersistenceFailed StoreErrorCode = "STO-020001"
	ErrCodeQuotaExceeded     StoreErrorCode = "STO-020002"
	ErrCodeSerialization     StoreErrorCode = "STO-020003"
	ErrCodeStoreClosed       StoreErrorCode = "STO-020004"
)

// StoreError represents a store error with code and message.
type StoreError struct {
	Code    StoreErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given code and message.
func NewStoreError(code StoreErrorCode, message string, err error) *StoreError {
	return &StoreError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a not-found StoreError for the given collection.
func NewNotFoundError(collection, id string) *StoreError {
	return NewStoreError(ErrCodeRecordNotFound, collection+" "+id+" not found", ErrRecordNotFound)
}
