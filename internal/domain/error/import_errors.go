// Package error defines domain-specific errors for the LifeOS application.
package error

import "errors"

// ErrInvalidImport is returned when an import document is malformed.
var ErrInvalidImport = errors.New("invalid import document")

// ImportErrorCode defines error codes for import errors.
type ImportErrorCode string

const (
	ErrCodeMalformedDocument  ImportErrorCode = "IMP-010001"
	ErrCodeMissingCollection  ImportErrorCode = "IMP-010002"
	ErrCodeUnsupportedVersion ImportErrorCode = "IMP-010003"
	ErrCodeInvalidRecord      ImportErrorCode = "IMP-010004"
)

// ImportError represents an import error with code and message.
type ImportError struct {
	Code    ImportErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new ImportError wrapping ErrInvalidImport.
func NewImportError(code ImportErrorCode, message string) *ImportError {
	return &ImportError{
		Code:    code,
		Message: message,
		Err:     ErrInvalidImport,
	}
}
