package platform

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	// KindTransport covers network failures and timeouts. Retryable.
	KindTransport ErrorKind = "transport"

	// KindAuth means the credential expired or was revoked. Requires
	// re-authentication upstream; not retryable by this engine.
	KindAuth ErrorKind = "auth"

	// KindRateLimited means the platform throttled the call. Retryable
	// after backoff.
	KindRateLimited ErrorKind = "rate_limited"

	// KindValidation means the payload was malformed (empty payload,
	// price without media, oversize text). Not retryable without edit.
	KindValidation ErrorKind = "validation"

	// KindRejected means the platform refused the send (e.g. the fan
	// blocked the sender). Not retryable without operator action.
	KindRejected ErrorKind = "rejected"
)

// Error is a classified gateway failure.
type Error struct {
	Kind    ErrorKind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.err
}

// NewError creates a classified error with a message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error.
func WrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, err: err}
}

// KindOf extracts the error kind, if the error is classified.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// Retryable reports whether a failure is worth retrying as-is.
func Retryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindTransport || kind == KindRateLimited
}
