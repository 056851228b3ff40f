package errors

// ErrorCategory classifies errors by where in the transport they arise.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryFraming covers violations of the Content-Length header protocol.
	// Examples: header line without CRLF, missing Content-Length, non-UTF-8 body.
	CategoryFraming ErrorCategory = "framing"

	// CategoryDecode covers payloads that are valid text but not a JSON-RPC message.
	CategoryDecode ErrorCategory = "decode"

	// CategoryIO covers failures of the underlying stream.
	// Examples: read/write errors, truncated body, connect/accept failures.
	CategoryIO ErrorCategory = "io"

	// CategoryProtocol covers JSON-RPC lifecycle violations reported
	// synchronously to the caller, such as a broken shutdown handshake.
	CategoryProtocol ErrorCategory = "protocol"

	// CategoryFault indicates a worker goroutine died from a panic rather
	// than returning normally.
	CategoryFault ErrorCategory = "fault"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsFatal returns true if errors in this category end the connection.
// Protocol errors are returned to the caller and leave the I/O goroutines
// running.
func (c ErrorCategory) IsFatal() bool {
	switch c {
	case CategoryProtocol:
		return false
	default:
		return true
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for transport failure scenarios.
const (
	// Framing errors
	ErrCodeMalformedHeader ErrorCode = "MALFORMED_HEADER"  // Header line not CRLF terminated or without ": "
	ErrCodeNoContentLength ErrorCode = "NO_CONTENT_LENGTH" // Header block ended without Content-Length
	ErrCodeInvalidUTF8     ErrorCode = "INVALID_UTF8"      // Payload is not UTF-8 text

	// Decode errors
	ErrCodeDecode ErrorCode = "DECODE" // Payload is not a JSON-RPC message

	// IO errors
	ErrCodeIO      ErrorCode = "IO"      // Stream read or write failed
	ErrCodeConnect ErrorCode = "CONNECT" // Outbound connection could not be established
	ErrCodeAccept  ErrorCode = "ACCEPT"  // Listen or accept failed

	// Protocol errors
	ErrCodeUnexpectedMessage ErrorCode = "UNEXPECTED_MESSAGE" // Wrong message during shutdown
	ErrCodeShutdownTimeout   ErrorCode = "SHUTDOWN_TIMEOUT"   // No exit notification in time
	ErrCodeClosed            ErrorCode = "CLOSED"             // Connection already closed

	// Fault errors
	ErrCodeThreadFault ErrorCode = "THREAD_FAULT" // Reader or writer goroutine panicked
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeMalformedHeader, ErrCodeNoContentLength, ErrCodeInvalidUTF8:
		return CategoryFraming

	case ErrCodeDecode:
		return CategoryDecode

	case ErrCodeIO, ErrCodeConnect, ErrCodeAccept:
		return CategoryIO

	case ErrCodeUnexpectedMessage, ErrCodeShutdownTimeout, ErrCodeClosed:
		return CategoryProtocol

	case ErrCodeThreadFault:
		return CategoryFault

	default:
		return CategoryFault
	}
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeMalformedHeader:   "malformed header",
	ErrCodeNoContentLength:   "no Content-Length",
	ErrCodeInvalidUTF8:       "payload is not valid UTF-8",
	ErrCodeDecode:            "invalid JSON-RPC message",
	ErrCodeIO:                "stream I/O failed",
	ErrCodeConnect:           "connect failed",
	ErrCodeAccept:            "accept failed",
	ErrCodeUnexpectedMessage: "unexpected message during shutdown",
	ErrCodeShutdownTimeout:   "unexpected error during shutdown",
	ErrCodeClosed:            "connection closed",
	ErrCodeThreadFault:       "I/O goroutine panicked",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
