package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches rejections caused by a 404 response.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized matches rejections caused by a 401 response or a missing token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRequestFailed matches every other rejection: non-2xx responses,
	// unparseable error bodies and transport failures.
	ErrRequestFailed = errors.New("request failed")

	// ErrMissingToken is returned when an operation is dispatched without a bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidSessionID is returned by credential stores for ids that fail ValidateSessionID.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrUnknownOperation is returned when an operation tag is not registered.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnknownSlice is returned when a slice name is not registered.
	ErrUnknownSlice = errors.New("unknown slice")

	// ErrUnknownReset is returned when a slice has no reset action with the given name.
	ErrUnknownReset = errors.New("unknown reset action")
)

// GenericMessage is recorded when a failure carries no usable message.
const GenericMessage = "request failed"

// ErrorKind classifies a rejected operation.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindGeneric      ErrorKind = "generic"
)

// RequestError is the rejection value of an operation.
// Message is what the slice records and what the toast shows.
type RequestError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	// Detail is the server's own message when Message replaced it, as for 404.
	Detail    string `json:"detail,omitempty"`
	Operation string `json:"operation,omitempty"`
	Err       error  `json:"-"`
}

// ToastMessage is the text shown to the user: the server's message when
// there is one, otherwise Message.
func (e *RequestError) ToastMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind.
func (e *RequestError) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindUnauthorized:
		return target == ErrUnauthorized
	default:
		return target == ErrRequestFailed
	}
}

// String is used by log attributes.
func (e *RequestError) String() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%s, %d)", e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

// AsRequestError returns err as a *RequestError. Errors of any other type become
// a generic failure with the generic message. A nil error returns nil.
func AsRequestError(err error) *RequestError {
	if err == nil {
		return nil
	}
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr
	}
	if errors.Is(err, ErrMissingToken) {
		return &RequestError{Kind: KindUnauthorized, Message: ErrMissingToken.Error(), Err: err}
	}
	return &RequestError{Kind: KindGeneric, Message: GenericMessage, Err: err}
}
