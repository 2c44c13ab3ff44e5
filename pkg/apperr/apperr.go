package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInput           Kind = "input"
	KindTransport       Kind = "transport"
	KindValidation      Kind = "validation"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
)

// Error is a classified failure. Message is safe to show to the user;
// Err keeps the underlying cause for logs and errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Input(message string) *Error { return New(KindInput, message, nil) }

func Transport(message string, err error) *Error { return New(KindTransport, message, err) }

func Validation(message string, err error) *Error { return New(KindValidation, message, err) }

func PayloadTooLarge(message string, err error) *Error {
	return New(KindPayloadTooLarge, message, err)
}

func NotFound(message string) *Error { return New(KindNotFound, message, nil) }

func Conflict(message string) *Error { return New(KindConflict, message, nil) }

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Status maps a kind to the HTTP status the API answers with.
func Status(err error) int {
	switch KindOf(err) {
	case KindInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindValidation, KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
