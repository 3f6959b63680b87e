// Package apperr provides the typed domain errors shared by all services.
// Services return these errors and the HTTP layer maps them to transport
// status codes and stable machine-readable codes.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindUsernameConflict indicates the desired username is already taken.
	KindUsernameConflict
	// KindEmailConflict indicates the email is already in use by a profile.
	KindEmailConflict
	// KindInvalidCredentials indicates a failed login. It deliberately does
	// not distinguish an unknown email from any other lookup failure.
	KindInvalidCredentials
	// KindInvalidToken indicates token verification failed for any reason
	// (expired, malformed, bad signature). Provider-specific reasons collapse
	// into this one kind.
	KindInvalidToken
	// KindProfileNotFound indicates the operation requires an existing profile.
	KindProfileNotFound
	// KindProviderFailure wraps an unmodeled identity-provider failure.
	KindProviderFailure
	// KindStoreFailure wraps a profile/registry store I/O failure.
	KindStoreFailure
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUsernameConflict, KindEmailConflict:
		return http.StatusConflict
	case KindInvalidCredentials, KindInvalidToken:
		return http.StatusUnauthorized
	case KindProfileNotFound:
		return http.StatusNotFound
	case KindProviderFailure:
		return http.StatusBadGateway
	case KindStoreFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable code for this error kind,
// suitable for client-side error handling.
func (e *Error) Code() string {
	switch e.Kind {
	case KindUsernameConflict:
		return "USERNAME_ALREADY_EXISTS"
	case KindEmailConflict:
		return "EMAIL_ALREADY_EXISTS"
	case KindInvalidCredentials:
		return "INVALID_CREDENTIALS"
	case KindInvalidToken:
		return "INVALID_TOKEN"
	case KindProfileNotFound:
		return "PROFILE_NOT_FOUND"
	case KindProviderFailure:
		return "IDENTITY_PROVIDER_ERROR"
	case KindStoreFailure:
		return "STORE_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Convenience constructors for the error taxonomy.

// UsernameConflict creates a username-taken conflict error.
func UsernameConflict(message string) *Error {
	return New(KindUsernameConflict, message)
}

// EmailConflict creates an email-taken conflict error.
func EmailConflict(message string) *Error {
	return New(KindEmailConflict, message)
}

// InvalidCredentials creates the uniform failed-login error.
func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid credentials")
}

// InvalidToken creates the uniform failed-verification error.
func InvalidToken() *Error {
	return New(KindInvalidToken, "invalid token")
}

// ProfileNotFound creates a profile-not-found error.
func ProfileNotFound(message string) *Error {
	return New(KindProfileNotFound, message)
}

// ProviderFailure wraps an identity-provider failure.
func ProviderFailure(message string, err error) *Error {
	return Wrap(KindProviderFailure, message, err)
}

// StoreFailure wraps a store I/O failure.
func StoreFailure(message string, err error) *Error {
	return Wrap(KindStoreFailure, message, err)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
