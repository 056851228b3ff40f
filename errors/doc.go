// Package errors provides the structured error taxonomy used by the rpcframe
// codec and transports.
//
// # Error Categories
//
// Errors are classified into five categories:
//
//   - Framing: the Content-Length header protocol was violated
//   - Decode: the payload is text but not a JSON-RPC message
//   - IO: the underlying stream, dial or accept failed
//   - Protocol: the shutdown handshake was not followed
//   - Fault: a reader or writer goroutine panicked
//
// Framing, Decode and IO errors end the goroutine that observed them and are
// reported when the application joins the I/O goroutines. Protocol errors are
// returned synchronously and the connection keeps running. Faults are
// re-raised as panics by the joiner.
//
// # Usage
//
//	err := errors.MalformedHeader(line)
//
//	if errors.Is(err, errors.ErrCodeNoContentLength) {
//	    // ...
//	}
//
// # JSON Serialization
//
// Errors marshal to JSON so they can travel as the data member of a
// JSON-RPC error response:
//
//	data, err := json.Marshal(tErr)
package errors
