package service

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure surfaced to callers of the launch service
type Kind string

const (
	// KindNotFound means the requested launch does not exist
	KindNotFound Kind = "NOT_FOUND"
	// KindValidation means the caller supplied invalid input
	KindValidation Kind = "VALIDATION_ERROR"
	// KindHTTP means the upstream launch API failed
	KindHTTP Kind = "HTTP_ERROR"
	// KindParse means the upstream payload could not be decoded
	KindParse Kind = "PARSE_ERROR"
	// KindDatabase means the local store failed
	KindDatabase Kind = "DATABASE_ERROR"
	// KindTimeout means an operation ran out of time
	KindTimeout Kind = "TIMEOUT"
	// KindUnknown is used for anything that could not be classified
	KindUnknown Kind = "UNKNOWN_ERROR"
)

// ErrNotFound is the sentinel wrapped by NotFound errors
var ErrNotFound = errors.New("launch not found")

// Error is the structured error returned by the launch service and its collaborators
type Error struct {
	Kind    Kind
	Message string
	// Detail carries optional structured context, e.g. an upstream status line
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetail returns a copy of the error carrying the given detail
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// NotFound returns a KindNotFound error for the given launch ID
func NotFound(id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("launch with ID '%s' not found", id), Err: ErrNotFound}
}

// Validation returns a KindValidation error
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Database wraps a storage failure
func Database(message string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: message, Err: err}
}

// KindOf returns the Kind of err. Context deadlines map to KindTimeout and
// anything else that is not an *Error maps to KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// AsError converts err into an *Error, wrapping unclassified errors with the
// given message. It returns nil for a nil error.
func AsError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return &Error{Kind: KindOf(err), Message: message, Err: err}
}
