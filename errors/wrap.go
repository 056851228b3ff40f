package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already an *Error, the wrapper keeps its code and category.
// Otherwise the error is treated as a stream failure.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var tErr *Error
	if errors.As(err, &tErr) {
		wrapped := &Error{
			code:      tErr.code,
			category:  tErr.category,
			message:   message,
			cause:     err,
			metadata:  tErr.Metadata(),
			timestamp: tErr.timestamp,
			connID:    tErr.connID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeShutdownTimeout, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeIO, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsTransportError extracts a TransportError from an error chain.
// Returns nil if none is found.
func AsTransportError(err error) TransportError {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.category == category
	}
	return false
}

// IsFatal checks if the error ends the connection. Errors outside the
// taxonomy are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Fatal()
	}
	return true
}

// IsFraming checks if the error is a framing violation.
func IsFraming(err error) bool {
	return IsCategory(err, CategoryFraming)
}
