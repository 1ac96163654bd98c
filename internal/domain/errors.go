package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
	// Fields lists every offending request field for validation failures.
	Fields []*FieldError
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError builds a VALIDATION_ERROR that enumerates all offending fields.
func NewValidationError(fields []*FieldError) *DomainError {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Error())
	}
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: "invalid search parameters: " + strings.Join(msgs, "; "),
		Fields:  fields,
	}
}

// Error codes exposed to callers. They are stable and machine-readable.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeExecutableNotFound = "EXECUTABLE_NOT_FOUND"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeNonZeroExit        = "NON_ZERO_EXIT"
	ErrCodeMalformedOutput    = "MALFORMED_OUTPUT"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Process boundary errors
var (
	ErrExecutableNotFound = NewDomainError(ErrCodeExecutableNotFound, "scraper executable not found")
	ErrTimeout            = NewDomainError(ErrCodeTimeout, "scraper exceeded its timeout and was terminated")
	ErrNonZeroExit        = NewDomainError(ErrCodeNonZeroExit, "scraper exited with a failure status")
	ErrMalformedOutput    = NewDomainError(ErrCodeMalformedOutput, "scraper output could not be parsed")
)

// Session errors
var (
	ErrSessionNotFound = NewDomainError(ErrCodeSessionNotFound, "session not found")
)

// ErrorCode returns the stable code for err, or INTERNAL_ERROR for anything
// that is not a DomainError.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// IsProcessFailure reports whether err originated at the subprocess boundary.
func IsProcessFailure(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeExecutableNotFound, ErrCodeTimeout, ErrCodeNonZeroExit, ErrCodeMalformedOutput:
		return true
	}
	return false
}
