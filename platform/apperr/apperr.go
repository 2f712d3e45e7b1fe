// Package apperr defines the typed domain errors services return. The HTTP
// layer maps each error Kind to a status code, so handlers never pick codes
// themselves.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes a domain error.
type Kind int

const (
	// KindUnknown is the zero value used when no kind was set.
	KindUnknown Kind = iota
	// KindNotFound means the requested resource does not exist.
	KindNotFound
	// KindValidation means the input failed a business rule.
	KindValidation
	// KindConflict means the request lost against existing state, for
	// example a duplicate active assignment or a stage moved concurrently.
	KindConflict
	// KindForbidden means the caller lacks the required role.
	KindForbidden
	// KindUnauthorized means authentication is missing or failed.
	KindUnauthorized
	// KindBadRequest means the request itself was malformed.
	KindBadRequest
	// KindInternal means an unexpected failure, usually infrastructure.
	KindInternal
)

// Error is a domain error carrying a Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // operation that failed, optional
	Err     error       // underlying cause, optional
	Details interface{} // extra payload for the response body, optional
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New builds an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error with an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp records the failing operation and returns the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails attaches a response payload and returns the error.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// NotFound builds a KindNotFound error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation builds a KindValidation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict builds a KindConflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Forbidden builds a KindForbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// BadRequest builds a KindBadRequest error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal builds a KindInternal error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind reports the kind of err, unwrapping as needed. Errors that are not
// *Error report KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
