package session

import (
	"errors"
	"net/http"
)

// Kind is the machine-readable classification of an auth failure. Every
// operation on Manager surfaces exactly one of these; callers never see raw
// identity-service error codes.
type Kind string

const (
	KindInvalidEmail       Kind = "invalid-email"
	KindWeakPassword       Kind = "weak-password"
	KindEmailAlreadyInUse  Kind = "email-already-in-use"
	KindInvalidCredentials Kind = "invalid-credentials"
	KindAccountDisabled    Kind = "account-disabled"
	KindTooManyAttempts    Kind = "too-many-attempts"
	KindPopupClosedByUser  Kind = "popup-closed-by-user"
	KindProviderError      Kind = "provider-error"
	KindUserNotFound       Kind = "user-not-found"
	KindRemote             Kind = "remote-service-error"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind to the conventional status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidEmail, KindWeakPassword, KindPopupClosedByUser:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindProviderError:
		return http.StatusUnauthorized
	case KindAccountDisabled:
		return http.StatusForbidden
	case KindUserNotFound:
		return http.StatusNotFound
	case KindEmailAlreadyInUse:
		return http.StatusConflict
	case KindTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// normalize guarantees the single-error contract: anything that is not
// already a *Error becomes a remote-service error with a generic message,
// the original detail kept only for logging via Unwrap.
func normalize(err error) *Error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}
	return NewError(KindRemote, "the service is temporarily unavailable, please try again", err)
}
