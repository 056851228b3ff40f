package message

import (
	"encoding/json"
	"fmt"
)

// Standard error codes.
const (
	ParseError     int32 = -32700
	InvalidRequest int32 = -32600
	MethodNotFound int32 = -32601
	InvalidParams  int32 = -32602
	InternalError  int32 = -32603

	// Reserved by the language server protocol.
	ServerNotInitialized int32 = -32002
	UnknownErrorCode     int32 = -32001
	RequestCanceled      int32 = -32800
	ContentModified      int32 = -32801
)

// ResponseError is the error member of a Response.
type ResponseError struct {
	Code    int32           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// responseErrorWire enforces that code and message are present.
type responseErrorWire struct {
	Code    *int32          `json:"code"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponseError(raw json.RawMessage) (*ResponseError, bool) {
	var w responseErrorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, false
	}
	if w.Code == nil || w.Message == nil {
		return nil, false
	}
	return &ResponseError{
		Code:    *w.Code,
		Message: *w.Message,
		Data:    nullToNil(w.Data),
	}, true
}
