package chain

import (
	"errors"
	"fmt"
)

// Error is the typed failure returned by components, the host and the query
// layer. Every failure is terminal for the enclosing top-level call: the host
// reverts all state written during the call and returns the error verbatim.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (actor, token, limits, ...).
	Details map[string]string

	// Cause is the wrapped underlying error, if any.
	Cause error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// CodeValidation indicates malformed input (e.g. a zero code id).
	CodeValidation ErrorCode = "VALIDATION"

	// CodeAuthorization indicates the sender lacks the required role.
	CodeAuthorization ErrorCode = "AUTHORIZATION"

	// CodeCorrelation indicates a reply token is unknown or already resolved.
	CodeCorrelation ErrorCode = "CORRELATION"

	// CodeEligibility indicates the eligibility oracle denied or was unreachable.
	CodeEligibility ErrorCode = "ELIGIBILITY"

	// CodeWindow indicates minting is disabled or outside its time window.
	CodeWindow ErrorCode = "WINDOW"

	// CodeQuotaExceeded indicates the per-actor limit was reached.
	CodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// CodeTransport indicates a query encode/decode or channel failure.
	CodeTransport ErrorCode = "TRANSPORT"

	// CodeNotFound indicates the domain service has no such entity.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code, so errors.Is(err, &Error{Code: ...}) works.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// With returns the error with an additional detail.
func (e *Error) With(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// NewError creates an error with the given code.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an error with the given code wrapping cause.
func WrapError(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ValidationError creates a CodeValidation error.
func ValidationError(format string, args ...any) *Error {
	return NewError(CodeValidation, format, args...)
}

// AuthorizationError creates a CodeAuthorization error.
func AuthorizationError(format string, args ...any) *Error {
	return NewError(CodeAuthorization, format, args...)
}

// CorrelationError creates a CodeCorrelation error.
func CorrelationError(format string, args ...any) *Error {
	return NewError(CodeCorrelation, format, args...)
}

// EligibilityError creates a CodeEligibility error wrapping cause.
func EligibilityError(cause error, format string, args ...any) *Error {
	return WrapError(CodeEligibility, cause, format, args...)
}

// NotFoundError creates a CodeNotFound error.
func NotFoundError(format string, args ...any) *Error {
	return NewError(CodeNotFound, format, args...)
}

// WindowError creates a CodeWindow error.
func WindowError(format string, args ...any) *Error {
	return NewError(CodeWindow, format, args...)
}

// TransportError creates a CodeTransport error wrapping cause.
func TransportError(cause error, format string, args ...any) *Error {
	return WrapError(CodeTransport, cause, format, args...)
}

// QuotaExceededError creates a CodeQuotaExceeded error.
func QuotaExceededError(actor Addr, count, limit uint64) *Error {
	return (&Error{
		Code:    CodeQuotaExceeded,
		Message: fmt.Sprintf("%s reached mint limit (%d >= %d)", actor, count, limit),
	}).
		With("actor", string(actor)).
		With("count", fmt.Sprintf("%d", count)).
		With("limit", fmt.Sprintf("%d", limit))
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an *Error with code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return HasCode(err, CodeValidation) }

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool { return HasCode(err, CodeAuthorization) }

// IsCorrelation reports whether err is a correlation error.
func IsCorrelation(err error) bool { return HasCode(err, CodeCorrelation) }

// IsEligibility reports whether err is an eligibility error.
func IsEligibility(err error) bool { return HasCode(err, CodeEligibility) }

// IsWindow reports whether err is a window error.
func IsWindow(err error) bool { return HasCode(err, CodeWindow) }

// IsQuotaExceeded reports whether err is a quota error.
func IsQuotaExceeded(err error) bool { return HasCode(err, CodeQuotaExceeded) }

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool { return HasCode(err, CodeTransport) }

// IsNotFound reports whether err is a domain not-found refusal.
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }
