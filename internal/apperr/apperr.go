// Package apperr classifies service failures so the HTTP layer can map them
// to client-visible statuses without inspecting messages.
package apperr

import "errors"

// Kind identifies the class of failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindExpired
)

// Error carries a failure kind and a short client-safe message.
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

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a missing or malformed request field.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound reports an absent entity anywhere in an ownership chain.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden reports a failed authorization predicate.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Conflict reports a state clash such as a duplicate invite or self-removal.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Expired reports an invitation past its window, distinct from NotFound.
func Expired(message string) error {
	return &Error{Kind: KindExpired, Message: message}
}

// Internal wraps a store or infrastructure failure.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Message: "Server error", Err: err}
}

// KindOf extracts the failure kind, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf extracts the client-safe message, defaulting to a generic one.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Server error"
}
