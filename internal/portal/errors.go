// Package portal implements the authenticated session, CSRF token discovery
// and AJAX calls against the warranty portal.
package portal

import (
	"errors"
	"fmt"
)

// Kind classifies a portal failure. Every error this package returns
// carries exactly one Kind so callers can map failures without string
// matching.
type Kind string

const (
	// KindMissingCredentials means the portal username or password is unset.
	KindMissingCredentials Kind = "missing_credentials"
	// KindUnreachable covers transport failures, timeouts and HTTP error statuses.
	KindUnreachable Kind = "portal_unreachable"
	// KindAuthenticationFailed means the login marker cookie never appeared.
	KindAuthenticationFailed Kind = "authentication_failed"
	// KindTokenNotFound means no hidden field matched the CSRF token shape.
	KindTokenNotFound Kind = "csrf_token_not_found"
	// KindRequestRejected means the portal answered with a falsy status.
	KindRequestRejected Kind = "portal_request_rejected"
	// KindMalformedResponse means a portal payload failed to decode.
	KindMalformedResponse Kind = "malformed_portal_response"
	// KindInvalidInput means the caller supplied an empty chassis id.
	KindInvalidInput Kind = "invalid_input"
)

// Error is a portal failure with a classification, a human-readable
// message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the message, followed by the cause when present.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an Error with a formatted message and no cause.
func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapError builds an Error around a cause.
func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewInvalidInput builds a caller-input error; exported for the pipeline's
// pre-network validation.
func NewInvalidInput(format string, args ...any) *Error {
	return newError(KindInvalidInput, format, args...)
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// truncate shortens s to at most n runes for use in diagnostics.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
