// Package error defines domain-specific errors for the LifeOS application.
package error

import (
	"errors"
	"strings"
)

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrCodeValidation is the error code for payload validation failures.
const ErrCodeValidation = "VAL-010001"

// FieldError describes one violated constraint on one field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError collects every field violation of a payload.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add appends a field violation.
func (e *ValidationError) Add(field, rule, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// For returns the violations recorded for a field.
func (e *ValidationError) For(field string) []FieldError {
	var out []FieldError
	for _, f := range e.Fields {
		if f.Field == field {
			out = append(out, f)
		}
	}
	return out
}
