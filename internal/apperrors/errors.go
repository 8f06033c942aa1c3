// Package apperrors classifies failures so the HTTP layer can map them to
// status codes without knowing which service produced them.
package apperrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindProcessing
	KindTransport
	KindStorage
)

var (
	ErrInternal     = &Error{Kind: KindInternal, Message: "internal error"}
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrProcessing   = &Error{Kind: KindProcessing, Message: "processing failed"}
	ErrTransport    = &Error{Kind: KindTransport, Message: "transport failed"}
	ErrStorage      = &Error{Kind: KindStorage, Message: "storage failure"}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target is one of the kind
// sentinels above, so errors.Is(err, ErrValidation) holds for every
// validation failure. Any other *Error target matches by identity only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if isKindSentinel(t) {
		return t.Kind == e.Kind
	}
	return t == e
}

func isKindSentinel(t *Error) bool {
	switch t {
	case ErrInternal, ErrValidation, ErrNotFound, ErrConflict, ErrUnauthorized,
		ErrForbidden, ErrProcessing, ErrTransport, ErrStorage:
		return true
	}
	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Storage(message string, err error) *Error {
	return Wrap(KindStorage, message, err)
}

func Processing(message string, err error) *Error {
	return Wrap(KindProcessing, message, err)
}

func Transport(message string, err error) *Error {
	return Wrap(KindTransport, message, err)
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to show an API caller. Storage, transport
// and internal failures never leak their cause.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal server error"
	}
	switch e.Kind {
	case KindStorage, KindTransport, KindInternal:
		return "Internal server error"
	}
	return e.Message
}
