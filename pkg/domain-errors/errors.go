// Package domainerrors provides coded errors for the portal's domain boundary.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate them
// into coded domain errors here; transport maps codes to HTTP statuses. Raw
// storage errors never cross the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a domain error category. The set is closed: handlers switch on
// these, so adding a code means deciding its HTTP mapping too.
type Code string

const (
	// CodeUnauthenticated means no credential was presented at all.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeSessionInvalid covers malformed, unsigned, and expired tokens alike.
	// Callers are never told which of those it was.
	CodeSessionInvalid Code = "session_invalid"
	// CodeForbidden means a valid credential with an insufficient role.
	CodeForbidden Code = "insufficient_permissions"
	// CodeInvalidCredentials collapses unknown-email and wrong-password so login
	// failures carry no account-enumeration signal.
	CodeInvalidCredentials Code = "invalid_credentials"
	// CodePendingApproval blocks admin logins until a superadmin approves.
	CodePendingApproval Code = "pending_approval"

	CodeConflict           Code = "conflict"
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// Error is a coded domain error. It optionally wraps an underlying cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the chain
// for errors.Is/As while presenting the domain message outward.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// MessageOf returns the domain message of err, or a generic fallback when err is
// not a domain error. Use this for externally visible text.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// CodeOf returns the code of err, defaulting to CodeInternal for unknown errors
// so unexpected failures surface as generic ones.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to its HTTP status. The authentication
// statuses mirror the portal's external contract: a missing credential on an
// authenticated route is 403 "authentication required", a bad one is 401.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthenticated:
		return http.StatusForbidden
	case CodeSessionInvalid, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden, CodePendingApproval:
		return http.StatusForbidden
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
