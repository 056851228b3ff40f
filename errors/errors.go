package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransportError is the interface for all structured errors in rpcframe.
type TransportError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category.
	Category() ErrorCategory

	// Fatal returns true if the connection cannot continue after this error.
	Fatal() bool

	// Metadata returns additional context as key-value pairs.
	Metadata() map[string]string

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of TransportError.
type Error struct {
	code      ErrorCode
	category  ErrorCategory
	message   string
	cause     error
	metadata  map[string]string
	timestamp time.Time
	connID    string // owning connection, if known
}

var (
	_ TransportError   = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Fatal reports whether the error ends the connection.
func (e *Error) Fatal() bool {
	return e.category.IsFatal()
}

// Metadata returns a copy of the error metadata.
func (e *Error) Metadata() map[string]string {
	result := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// ConnID returns the connection the error belongs to, if set.
func (e *Error) ConnID() string {
	return e.connID
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Code      ErrorCode         `json:"code"`
	Category  ErrorCategory     `json:"category"`
	Message   string            `json:"message"`
	Cause     string            `json:"cause,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	ConnID    string            `json:"conn_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:     e.code,
		Category: e.category,
		Message:  e.message,
		Metadata: e.metadata,
		ConnID:   e.connID,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.code = j.Code
	e.category = j.Category
	e.message = j.Message
	e.metadata = j.Metadata
	e.connID = j.ConnID
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithConnID sets the owning connection.
func WithConnID(id string) Option {
	return func(e *Error) {
		e.connID = id
	}
}

// WithTimestamp sets a custom timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Error) {
		e.timestamp = t
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// MalformedHeader reports a header line that breaks the framing rules.
// The offending line is quoted so stray whitespace stays visible.
func MalformedHeader(line string, opts ...Option) *Error {
	opts = append([]Option{WithMetadata("line", line)}, opts...)
	return New(ErrCodeMalformedHeader, fmt.Sprintf("malformed header: %q", line), opts...)
}

// NoContentLength reports a header block without a Content-Length header.
func NoContentLength(opts ...Option) *Error {
	return FromCode(ErrCodeNoContentLength, opts...)
}

// InvalidUTF8 reports a payload that is not UTF-8 text.
func InvalidUTF8(opts ...Option) *Error {
	return FromCode(ErrCodeInvalidUTF8, opts...)
}

// Decode reports a payload that is not a JSON-RPC message.
func Decode(message string, opts ...Option) *Error {
	return New(ErrCodeDecode, message, opts...)
}

// IO wraps a stream failure.
func IO(cause error, opts ...Option) *Error {
	return FromCode(ErrCodeIO, append(opts, WithCause(cause))...)
}

// UnexpectedMessage reports a message other than "exit" after a shutdown request.
func UnexpectedMessage(desc string, opts ...Option) *Error {
	return New(ErrCodeUnexpectedMessage, "unexpected message during shutdown: "+desc, opts...)
}

// ShutdownTimeout reports a receive failure while waiting for "exit".
func ShutdownTimeout(cause error, opts ...Option) *Error {
	return FromCode(ErrCodeShutdownTimeout, append(opts, WithCause(cause))...)
}

// Closed reports use of a connection after it was closed.
func Closed(opts ...Option) *Error {
	return FromCode(ErrCodeClosed, opts...)
}
