package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	rpcerrors "github.com/vinayprograms/rpcframe/errors"
)

// Version is the protocol version merged into every encoded message.
const Version = "2.0"

// Method names with lifecycle meaning to the transport.
const (
	MethodShutdown = "shutdown"
	MethodExit     = "exit"
)

// Message kinds.
const (
	KindRequest      = "request"
	KindResponse     = "response"
	KindNotification = "notification"
)

// ErrMethodMismatch is returned by Extract when the message has another method.
var ErrMethodMismatch = errors.New("method mismatch")

// Message is one of *Request, *Response or *Notification.
type Message interface {
	// Kind returns "request", "response" or "notification".
	Kind() string

	message()
}

// Request is a call that expects a Response with the same ID.
type Request struct {
	ID     RequestID       `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request. Result and Error are both optional on the wire.
type Response struct {
	ID     RequestID       `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// Notification is a one-way message without an ID.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

func (*Request) Kind() string      { return KindRequest }
func (*Response) Kind() string     { return KindResponse }
func (*Notification) Kind() string { return KindNotification }

func (*Request) message()      {}
func (*Response) message()     {}
func (*Notification) message() {}

// ExtractError reports params that could not be decoded into the target type.
type ExtractError struct {
	Method string
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("invalid params for %s: %v", e.Method, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewRequest creates a request, marshaling params. Nil params are omitted.
func NewRequest(id RequestID, method string, params any) (*Request, error) {
	raw, err := marshalValue(params)
	if err != nil {
		return nil, fmt.Errorf("request %s params: %w", method, err)
	}
	return &Request{ID: id, Method: method, Params: nullToNil(raw)}, nil
}

// NewNotification creates a notification, marshaling params. Nil params are omitted.
func NewNotification(method string, params any) (*Notification, error) {
	raw, err := marshalValue(params)
	if err != nil {
		return nil, fmt.Errorf("notification %s params: %w", method, err)
	}
	return &Notification{Method: method, Params: nullToNil(raw)}, nil
}

// NewResultResponse creates a success response. A nil result is sent as
// JSON null, which still counts as a present result.
func NewResultResponse(id RequestID, result any) (*Response, error) {
	raw, err := marshalValue(result)
	if err != nil {
		return nil, fmt.Errorf("response %s result: %w", id, err)
	}
	return &Response{ID: id, Result: raw}, nil
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id RequestID, code int32, message string) *Response {
	return &Response{ID: id, Error: &ResponseError{Code: code, Message: message}}
}

// ErrorResponseFrom converts err into an error response. A *ResponseError is
// sent as is; transport errors map to a JSON-RPC code and travel as data.
func ErrorResponseFrom(id RequestID, err error) *Response {
	var rErr *ResponseError
	if errors.As(err, &rErr) {
		return &Response{ID: id, Error: rErr}
	}

	resp := NewErrorResponse(id, InternalError, err.Error())
	if tErr := rpcerrors.AsTransportError(err); tErr != nil {
		switch tErr.Category() {
		case rpcerrors.CategoryFraming, rpcerrors.CategoryDecode:
			resp.Error.Code = ParseError
		case rpcerrors.CategoryProtocol:
			resp.Error.Code = InvalidRequest
		}
		if data, mErr := json.Marshal(tErr); mErr == nil {
			resp.Error.Data = data
		}
	}
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		resp.Error.Code = InvalidParams
	}
	return resp
}

// IsShutdown reports whether this is the shutdown request.
func (r *Request) IsShutdown() bool {
	return r.Method == MethodShutdown
}

// Extract decodes params into dst if the method matches.
func (r *Request) Extract(method string, dst any) error {
	return extract(r.Method, method, r.Params, dst)
}

// IsExit reports whether this is the exit notification.
func (n *Notification) IsExit() bool {
	return n.Method == MethodExit
}

// Extract decodes params into dst if the method matches.
func (n *Notification) Extract(method string, dst any) error {
	return extract(n.Method, method, n.Params, dst)
}

// IsError reports whether the response carries an error.
func (r *Response) IsError() bool {
	return r.Error != nil
}

// DecodeResult decodes the result into dst. It returns the response error
// if there is one.
func (r *Response) DecodeResult(dst any) error {
	if r.Error != nil {
		return r.Error
	}
	if len(r.Result) == 0 {
		return fmt.Errorf("response %s: no result", r.ID)
	}
	return json.Unmarshal(r.Result, dst)
}

func extract(have, want string, params json.RawMessage, dst any) error {
	if have != want {
		return fmt.Errorf("%w: want %q, got %q", ErrMethodMismatch, want, have)
	}
	if len(params) == 0 {
		params = json.RawMessage("null")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return &ExtractError{Method: have, Err: err}
	}
	return nil
}

func marshalValue(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return json.Marshal(v)
}

func nullToNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil
	}
	return raw
}
