// Package derrors defines the domain error taxonomy shared across services.
//
// Services and engines return *Error values carrying a Code so callers
// (handlers, batch commit logic) can branch on the kind of failure without
// string matching. Infrastructure facts (row missing, lock held) use
// pkg/platform/sentinel instead; stores never import this package.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeMalformedAddress marks a stock address that failed to decode.
	// Fatal to the operation that supplied it, not to the batch.
	CodeMalformedAddress Code = "malformed_address"

	// CodeAddressSpaceExhausted: all 999 treecode slots in scope are live.
	CodeAddressSpaceExhausted Code = "address_space_exhausted"

	// CodeInvalidHierarchy: kind/parent mismatch rejected at authoring time.
	CodeInvalidHierarchy Code = "invalid_hierarchy"

	// CodeUnknownAddress: a withdrawal targeted a ledger line that does not
	// exist.
	CodeUnknownAddress Code = "unknown_address"

	// CodeValidation: bad operator input (missing expiry, negative count).
	// Collected across a batch; the whole commit is blocked if any exist.
	CodeValidation Code = "validation"

	// CodePersistenceConflict: transient store contention. Retryable.
	CodePersistenceConflict Code = "persistence_conflict"

	// CodePersistenceFailure: fatal after retry exhaustion; the pending
	// commit has been rolled back.
	CodePersistenceFailure Code = "persistence_failure"

	// CodeBadRequest covers malformed transport-level input.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound covers lookups against entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict covers uniqueness and state conflicts.
	CodeConflict Code = "conflict"

	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping it unwrappable.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, wrapped: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error
// carrying the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal if err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
