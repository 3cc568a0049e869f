package annotation

import (
	"errors"
	"fmt"
)

// Error kinds for the review core. Validation failures are fatal to the
// current operation; not-found lets the session skip the document; parse
// errors flag the document for manual inspection; write errors halt
// pagination so the operator does not lose the edit.
type errorKind int

const (
	kindValidation errorKind = iota
	kindNotFound
	kindParse
	kindWrite
)

// CoreError is the typed error all core operations return on failure.
type CoreError struct {
	kind    errorKind
	Message string
	Cause   error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Cause
}

// NewValidationError reports malformed input: zero-size geometry, a
// positional count mismatch, an unknown schema.
func NewValidationError(message string, cause error) *CoreError {
	return &CoreError{kind: kindValidation, Message: message, Cause: cause}
}

// NewNotFoundError reports a missing record or image file.
func NewNotFoundError(message string, cause error) *CoreError {
	return &CoreError{kind: kindNotFound, Message: message, Cause: cause}
}

// NewParseError reports a malformed stored record.
func NewParseError(message string, cause error) *CoreError {
	return &CoreError{kind: kindParse, Message: message, Cause: cause}
}

// NewWriteError reports a failed write or move.
func NewWriteError(message string, cause error) *CoreError {
	return &CoreError{kind: kindWrite, Message: message, Cause: cause}
}

func isKind(err error, kind errorKind) bool {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.kind == kind
	}
	return false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return isKind(err, kindValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return isKind(err, kindNotFound) }

// IsParse reports whether err is a parse error.
func IsParse(err error) bool { return isKind(err, kindParse) }

// IsWrite reports whether err is a write error.
func IsWrite(err error) bool { return isKind(err, kindWrite) }
