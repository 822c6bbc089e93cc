package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive    ErrorCode = "ACCOUNT_INACTIVE"
	ErrCodeNoRoles            ErrorCode = "NO_ROLES"
	ErrCodeValidation         ErrorCode = "VALIDATION"
	ErrCodeDuplicateAccount   ErrorCode = "DUPLICATE_ACCOUNT"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSessionRevoked     ErrorCode = "SESSION_REVOKED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodePersistence        ErrorCode = "PERSISTENCE"
	ErrCodeInvalid            ErrorCode = "INVALID"
	ErrCodeInternal           ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match any instance carrying the same code, so a wrapped
// persistence error still compares equal to its sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && e.Code == t.Code
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError builds a field-level registration error. The message names
// the first violated rule; rules are never aggregated.
func ValidationError(message string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message}
}

// Common domain errors.
var (
	// ErrInvalidCredentials deliberately never says whether the username or
	// the password was wrong.
	ErrInvalidCredentials = NewError(ErrCodeInvalidCredentials, "invalid username or password")
	ErrAccountInactive    = NewError(ErrCodeAccountInactive, "account is deactivated")
	ErrNoRolesAssigned    = NewError(ErrCodeNoRoles, "user has no roles assigned, contact an administrator")
	ErrDuplicateAccount   = NewError(ErrCodeDuplicateAccount, "username or email already exists")
	ErrTokenInvalid       = NewError(ErrCodeTokenInvalid, "token is invalid")
	ErrTokenExpired       = NewError(ErrCodeTokenExpired, "token has expired")
	ErrSessionRevoked     = NewError(ErrCodeSessionRevoked, "session is no longer active")
	ErrUserNotFound       = NewError(ErrCodeNotFound, "user not found")
	ErrRoleNotFound       = NewError(ErrCodeNotFound, "role not found")
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrTierNotFound       = NewError(ErrCodeNotFound, "loyalty tier not found")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsAuthFailure reports whether the error is one of the three causes that
// collapse to a single "please log in again" answer for callers.
func IsAuthFailure(err error) bool {
	return IsDomainError(err, ErrCodeTokenInvalid) ||
		IsDomainError(err, ErrCodeTokenExpired) ||
		IsDomainError(err, ErrCodeSessionRevoked)
}
