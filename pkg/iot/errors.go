package iot

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

type ErrorKind string

const (
	ErrorKindMalformedRequest     ErrorKind = "malformed_request"
	ErrorKindPayloadTooLarge      ErrorKind = "payload_too_large"
	ErrorKindUnauthenticated      ErrorKind = "unauthenticated"
	ErrorKindForbidden            ErrorKind = "forbidden"
	ErrorKindNotFound             ErrorKind = "not_found"
	ErrorKindRateLimited          ErrorKind = "rate_limit_exceeded"
	ErrorKindStorageLimitExceeded ErrorKind = "storage_limit_exceeded"
	ErrorKindInternal             ErrorKind = "internal"
)

// Error is a domain outcome the transports map onto status codes. Message is
// safe to return to the caller as is.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case ErrorKindMalformedRequest:
		return http.StatusBadRequest
	case ErrorKindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorKindUnauthenticated:
		return http.StatusUnauthorized
	case ErrorKindForbidden:
		return http.StatusForbidden
	case ErrorKindNotFound:
		return http.StatusNotFound
	case ErrorKindRateLimited:
		return http.StatusTooManyRequests
	case ErrorKindStorageLimitExceeded:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

const (
	MessageMissingAuthHeader  = "Missing or invalid Authorization header"
	MessageInvalidCredFormat  = "Invalid device credentials format"
	MessageInvalidCredentials = "Invalid device credentials"
	MessageRateLimited        = "Too many requests. Please try again later."
	MessageNotFound           = "Device not found or not owned"
	MessagePayloadTooLarge    = "Request body too large"
)

var (
	errInvalidCredentials = &Error{Kind: ErrorKindForbidden, Message: MessageInvalidCredentials}
	errRateLimited        = &Error{Kind: ErrorKindRateLimited, Message: MessageRateLimited}
	errDeviceNotFound     = &Error{Kind: ErrorKindNotFound, Message: MessageNotFound}
	errPayloadTooLarge    = &Error{Kind: ErrorKindPayloadTooLarge, Message: MessagePayloadTooLarge}
)

func NewMalformedRequestError(message string, fields ...string) *Error {
	return &Error{Kind: ErrorKindMalformedRequest, Message: message, Fields: fields}
}

func NewUnauthenticatedError(message string) *Error {
	return &Error{Kind: ErrorKindUnauthenticated, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: message}
}

func NewStorageLimitError(limitDisplay string) *Error {
	return &Error{
		Kind: ErrorKindStorageLimitExceeded,
		Message: fmt.Sprintf(
			"Storage limit reached (%s). Please delete old telemetry data or upgrade your plan.",
			limitDisplay,
		),
	}
}

// AsError unwraps err into a domain *Error, reporting false for plain errors.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
