// Package apperr defines the error taxonomy shared by the service
// layer and its callers. Business-rule violations are first-class
// outcomes here, not exceptional control flow: handlers translate them
// into stable error codes, stores wrap infrastructure failures with
// fmt.Errorf and let them propagate untyped.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindValidation     Kind = "validation_error"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication_error"
	KindAuthorization  Kind = "authorization_error"
	KindRateLimit      Kind = "rate_limit_exceeded"
)

// Error is a classified business error. Code refines Kind for cases
// callers need to tell apart (e.g. expired vs revoked tokens).
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same kind; when the target carries a code,
// the code must match too. errors.Is(err, ErrAuthentication) is true
// for every authentication failure, errors.Is(err, ErrTokenExpired)
// only for expiry.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	if other.Kind != e.Kind {
		return false
	}
	return other.Code == "" || other.Code == e.Code
}

var (
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation     = &Error{Kind: KindValidation, Message: "validation error"}
	ErrConflict       = &Error{Kind: KindConflict, Message: "conflict"}
	ErrAuthentication = &Error{Kind: KindAuthentication, Message: "authentication error"}
	ErrAuthorization  = &Error{Kind: KindAuthorization, Message: "authorization error"}
	ErrRateLimit      = &Error{Kind: KindRateLimit, Message: "rate limit exceeded"}
)

// Authentication failure reasons.
var (
	ErrInvalidCredential = &Error{Kind: KindAuthentication, Code: "invalid_credential", Message: "invalid credential"}
	ErrTokenExpired      = &Error{Kind: KindAuthentication, Code: "token_expired", Message: "token expired"}
	ErrTokenRevoked      = &Error{Kind: KindAuthentication, Code: "token_revoked", Message: "token revoked"}
	ErrInvalidToken      = &Error{Kind: KindAuthentication, Code: "invalid_token", Message: "invalid token"}
)

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s '%s' not found", entity, id)}
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...interface{}) error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies err, returning empty Kind for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
