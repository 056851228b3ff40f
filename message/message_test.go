package message

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	rpcerrors "github.com/vinayprograms/rpcframe/errors"
)

func mustRequest(t *testing.T, id RequestID, method string, params any) *Request {
	t.Helper()
	req, err := NewRequest(id, method, params)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func mustResult(t *testing.T, id RequestID, result any) *Response {
	t.Helper()
	resp, err := NewResultResponse(id, result)
	if err != nil {
		t.Fatalf("NewResultResponse: %v", err)
	}
	return resp
}

func mustNotification(t *testing.T, method string, params any) *Notification {
	t.Helper()
	n, err := NewNotification(method, params)
	if err != nil {
		t.Fatalf("NewNotification: %v", err)
	}
	return n
}

// --- Round trip ---

func TestEncodeDecode_RoundTrip(t *testing.T) {
	withData := NewErrorResponse(StringID("abc"), InvalidParams, "bad position")
	withData.Error.Data = json.RawMessage(`{"line":3}`)

	tests := []struct {
		name string
		msg  Message
	}{
		{"request int id", mustRequest(t, IntID(1), "textDocument/ast", map[string]any{"code": "fn main() {}"})},
		{"request string id", mustRequest(t, StringID("req-1"), "initialize", []int{1, 2})},
		{"request without params", mustRequest(t, IntID(-7), "shutdown", nil)},
		{"response result", mustResult(t, IntID(2), map[string]string{"astResult": "(source_file)"})},
		{"response null result", mustResult(t, IntID(3), nil)},
		{"response error", NewErrorResponse(IntID(4), MethodNotFound, "unknown method")},
		{"response error data", withData},
		{"response no payload", &Response{ID: IntID(5)}},
		{"notification", mustNotification(t, "window/logMessage", map[string]any{"type": 3, "message": "hi"})},
		{"notification without params", mustNotification(t, "exit", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode(%s): %v", data, err)
			}
			if diff := cmp.Diff(tt.msg, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_MergesVersion(t *testing.T) {
	data, err := Encode(mustRequest(t, IntID(1), "m", nil))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"jsonrpc":"2.0","id":1,"method":"m"}`
	if string(data) != want {
		t.Errorf("Encode = %s, want %s", data, want)
	}
}

func TestEncode_NullResultIsPresent(t *testing.T) {
	data, err := Encode(mustResult(t, IntID(1), nil))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"result":null`) {
		t.Errorf("expected explicit null result, got %s", data)
	}
}

// --- Request ids ---

func TestRequestID_NumericAndStringDiffer(t *testing.T) {
	num := mustRequest(t, IntID(92), "m", nil)
	str := mustRequest(t, StringID("92"), "m", nil)

	numData, _ := Encode(num)
	strData, _ := Encode(str)
	gotNum, err := Decode(numData)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	gotStr, err := Decode(strData)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	a := gotNum.(*Request).ID
	b := gotStr.(*Request).ID
	if a == b {
		t.Fatalf("ids %v and %v should differ", a, b)
	}
	if a.String() != "92" || b.String() != `"92"` {
		t.Errorf("String() = %s / %s", a.String(), b.String())
	}

	seen := map[RequestID]bool{a: true}
	if seen[b] {
		t.Error("string id collided with numeric id as map key")
	}
}

func TestRequestID_Compare(t *testing.T) {
	ids := []RequestID{IntID(-1), IntID(5), StringID(""), StringID("a"), StringID("b")}
	for i := range ids {
		for j := range ids {
			got := ids[i].Compare(ids[j])
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("%v.Compare(%v) = %d, want %d", ids[i], ids[j], got, want)
			}
		}
	}
}

func TestRequestID_Unmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    RequestID
		wantErr bool
	}{
		{`1`, IntID(1), false},
		{`-2147483648`, IntID(-2147483648), false},
		{`"x"`, StringID("x"), false},
		{`""`, StringID(""), false},
		{`2147483648`, RequestID{}, true},
		{`1.5`, RequestID{}, true},
		{`null`, RequestID{}, true},
		{`{}`, RequestID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id RequestID
			err := json.Unmarshal([]byte(tt.in), &id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", id)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.want {
				t.Errorf("id = %v, want %v", id, tt.want)
			}
		})
	}
}

func TestNewStringID_Unique(t *testing.T) {
	a, b := NewStringID(), NewStringID()
	if !a.IsString() || a == b {
		t.Errorf("NewStringID gave %v and %v", a, b)
	}
}

// --- Classification ---

func TestDecode_Classification(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind string
	}{
		{"request", `{"jsonrpc":"2.0","id":1,"method":"m"}`, KindRequest},
		{"request string id", `{"id":"1","method":"m","params":[1]}`, KindRequest},
		{"response result", `{"jsonrpc":"2.0","id":1,"result":{}}`, KindResponse},
		{"response bare id", `{"id":1}`, KindResponse},
		{"notification", `{"jsonrpc":"2.0","method":"exit"}`, KindNotification},
		{"null id is notification", `{"id":null,"method":"exit"}`, KindNotification},
		{"float id falls through to notification", `{"id":1.5,"method":"m"}`, KindNotification},
		{"non-string method falls through to response", `{"id":1,"method":5}`, KindResponse},
		{"jsonrpc version not checked", `{"jsonrpc":"1.0","method":"m"}`, KindNotification},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if msg.Kind() != tt.kind {
				t.Errorf("Kind() = %s, want %s", msg.Kind(), tt.kind)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"invalid json", `{invalid`},
		{"not an object", `[1,2]`},
		{"null", `null`},
		{"no id no method", `{"jsonrpc":"2.0","result":1}`},
		{"null id response", `{"id":null,"result":1}`},
		{"bad error shape", `{"id":1,"error":{"code":"x","message":"m"}}`},
		{"error without message", `{"id":1,"error":{"code":1}}`},
		{"null method", `{"method":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if !rpcerrors.Is(err, rpcerrors.ErrCodeDecode) {
				t.Errorf("expected DECODE error, got %v", err)
			}
		})
	}
}

func TestDecode_NullParamsAbsent(t *testing.T) {
	msg, err := Decode([]byte(`{"id":1,"method":"m","params":null}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p := msg.(*Request).Params; p != nil {
		t.Errorf("Params = %s, want nil", p)
	}
}

// --- Helpers ---

func TestRequest_Extract(t *testing.T) {
	type params struct {
		Language string `json:"language"`
	}
	req := mustRequest(t, IntID(1), "parse", params{Language: "rust"})

	var got params
	if err := req.Extract("parse", &got); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Language != "rust" {
		t.Errorf("Language = %q", got.Language)
	}

	err := req.Extract("other", &got)
	if !errors.Is(err, ErrMethodMismatch) {
		t.Errorf("expected ErrMethodMismatch, got %v", err)
	}

	var wrong []int
	err = req.Extract("parse", &wrong)
	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractError, got %v", err)
	}
	if extractErr.Method != "parse" {
		t.Errorf("Method = %q", extractErr.Method)
	}
}

func TestNotification_ExtractNoParams(t *testing.T) {
	n := mustNotification(t, "initialized", nil)
	var dst *struct{}
	if err := n.Extract("initialized", &dst); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if dst != nil {
		t.Error("expected nil params")
	}
}

func TestLifecycleHelpers(t *testing.T) {
	if !mustRequest(t, IntID(1), "shutdown", nil).IsShutdown() {
		t.Error("shutdown request not detected")
	}
	if mustRequest(t, IntID(1), "exit", nil).IsShutdown() {
		t.Error("exit request detected as shutdown")
	}
	if !mustNotification(t, "exit", nil).IsExit() {
		t.Error("exit notification not detected")
	}
}

func TestResponse_DecodeResult(t *testing.T) {
	var out map[string]int
	if err := mustResult(t, IntID(1), map[string]int{"n": 2}).DecodeResult(&out); err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if out["n"] != 2 {
		t.Errorf("out = %v", out)
	}

	errResp := NewErrorResponse(IntID(1), InternalError, "boom")
	var rErr *ResponseError
	if err := errResp.DecodeResult(&out); !errors.As(err, &rErr) {
		t.Errorf("expected *ResponseError, got %v", err)
	}
}

func TestErrorResponseFrom(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int32
		wantData bool
	}{
		{"response error", &ResponseError{Code: RequestCanceled, Message: "canceled"}, RequestCanceled, false},
		{"framing", rpcerrors.NoContentLength(), ParseError, true},
		{"protocol", rpcerrors.UnexpectedMessage("request"), InvalidRequest, true},
		{"extract", &ExtractError{Method: "m", Err: errors.New("bad")}, InvalidParams, false},
		{"plain", errors.New("boom"), InternalError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ErrorResponseFrom(IntID(9), tt.err)
			if resp.ID != IntID(9) {
				t.Errorf("ID = %v", resp.ID)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("Error = %+v, want code %d", resp.Error, tt.wantCode)
			}
			if (len(resp.Error.Data) > 0) != tt.wantData {
				t.Errorf("Data = %s, wantData %v", resp.Error.Data, tt.wantData)
			}
		})
	}
}
