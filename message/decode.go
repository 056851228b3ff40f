package message

import (
	"encoding/json"
	"fmt"

	rpcerrors "github.com/vinayprograms/rpcframe/errors"
)

// Decode parses one JSON-RPC message. The wire format is untagged, so the
// payload is first parsed into its members and then matched against each
// variant in turn: Request (valid id and method), Response (valid id),
// Notification (method). The first variant that fits wins. A null id never
// fits, so {"id":null,"method":"m"} is a Notification.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, rpcerrors.Decode(fmt.Sprintf("invalid message: %v", err), rpcerrors.WithCause(err))
	}
	if req, ok := asRequest(fields); ok {
		return req, nil
	}
	if resp, ok := asResponse(fields); ok {
		return resp, nil
	}
	if n, ok := asNotification(fields); ok {
		return n, nil
	}
	return nil, rpcerrors.Decode("data did not match any variant of Message")
}

// Encode serializes m with "jsonrpc":"2.0" merged in.
func Encode(m Message) ([]byte, error) {
	var v any
	switch m := m.(type) {
	case *Request:
		v = struct {
			JSONRPC string `json:"jsonrpc"`
			*Request
		}{Version, m}
	case *Response:
		v = struct {
			JSONRPC string `json:"jsonrpc"`
			*Response
		}{Version, m}
	case *Notification:
		v = struct {
			JSONRPC string `json:"jsonrpc"`
			*Notification
		}{Version, m}
	default:
		return nil, fmt.Errorf("encode: unsupported message %T", m)
	}
	return json.Marshal(v)
}

func asRequest(fields map[string]json.RawMessage) (*Request, bool) {
	id, ok := decodeID(fields)
	if !ok {
		return nil, false
	}
	method, ok := decodeString(fields["method"])
	if !ok {
		return nil, false
	}
	return &Request{ID: id, Method: method, Params: nullToNil(fields["params"])}, true
}

func asResponse(fields map[string]json.RawMessage) (*Response, bool) {
	id, ok := decodeID(fields)
	if !ok {
		return nil, false
	}
	resp := &Response{ID: id, Result: fields["result"]}
	if raw := nullToNil(fields["error"]); raw != nil {
		rErr, ok := decodeResponseError(raw)
		if !ok {
			return nil, false
		}
		resp.Error = rErr
	}
	return resp, true
}

func asNotification(fields map[string]json.RawMessage) (*Notification, bool) {
	method, ok := decodeString(fields["method"])
	if !ok {
		return nil, false
	}
	return &Notification{Method: method, Params: nullToNil(fields["params"])}, true
}

func decodeID(fields map[string]json.RawMessage) (RequestID, bool) {
	raw, ok := fields["id"]
	if !ok {
		return RequestID{}, false
	}
	var id RequestID
	if err := id.UnmarshalJSON(raw); err != nil {
		return RequestID{}, false
	}
	return id, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	if nullToNil(raw) == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
