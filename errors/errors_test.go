package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// 1. Error creation with different codes/categories
// ============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		code         ErrorCode
		message      string
		wantCategory ErrorCategory
	}{
		{"malformed_header", ErrCodeMalformedHeader, "bad header", CategoryFraming},
		{"no_content_length", ErrCodeNoContentLength, "missing", CategoryFraming},
		{"invalid_utf8", ErrCodeInvalidUTF8, "bad bytes", CategoryFraming},
		{"decode", ErrCodeDecode, "not json", CategoryDecode},
		{"io", ErrCodeIO, "broken pipe", CategoryIO},
		{"connect", ErrCodeConnect, "refused", CategoryIO},
		{"unexpected_message", ErrCodeUnexpectedMessage, "request", CategoryProtocol},
		{"thread_fault", ErrCodeThreadFault, "panic", CategoryFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)
			if err.Code() != tt.code {
				t.Errorf("Code() = %v, want %v", err.Code(), tt.code)
			}
			if err.Category() != tt.wantCategory {
				t.Errorf("Category() = %v, want %v", err.Category(), tt.wantCategory)
			}
			if err.Error() != tt.message {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.message)
			}
			if err.Timestamp().IsZero() {
				t.Error("Timestamp() should not be zero")
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeDecode, "unexpected field %s", "foo")
	if err.Error() != "unexpected field foo" {
		t.Errorf("Error() = %v", err.Error())
	}
}

func TestFromCode(t *testing.T) {
	err := FromCode(ErrCodeNoContentLength)
	if err.Error() != "no Content-Length" {
		t.Errorf("Error() = %v, want %v", err.Error(), "no Content-Length")
	}
}

func TestMalformedHeaderQuotesLine(t *testing.T) {
	err := MalformedHeader("Content-Length 12\n")
	if !strings.Contains(err.Error(), `"Content-Length 12\n"`) {
		t.Errorf("Error() = %v, want quoted line", err.Error())
	}
	if err.Metadata()["line"] != "Content-Length 12\n" {
		t.Errorf("metadata line = %q", err.Metadata()["line"])
	}
}

// ============================================================================
// 2. Fatal vs non-fatal
// ============================================================================

func TestFatal(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		wantFatal bool
	}{
		{ErrCodeMalformedHeader, true},
		{ErrCodeDecode, true},
		{ErrCodeIO, true},
		{ErrCodeThreadFault, true},
		{ErrCodeUnexpectedMessage, false},
		{ErrCodeShutdownTimeout, false},
		{ErrCodeClosed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "test")
			if err.Fatal() != tt.wantFatal {
				t.Errorf("Fatal() = %v, want %v", err.Fatal(), tt.wantFatal)
			}
			if IsFatal(err) != tt.wantFatal {
				t.Errorf("IsFatal() = %v, want %v", IsFatal(err), tt.wantFatal)
			}
		})
	}
}

func TestIsFatalForeignErrors(t *testing.T) {
	if IsFatal(nil) {
		t.Error("nil should not be fatal")
	}
	if !IsFatal(io.ErrClosedPipe) {
		t.Error("errors outside the taxonomy should be fatal")
	}
}

// ============================================================================
// 3. Metadata handling
// ============================================================================

func TestMetadataImmutability(t *testing.T) {
	err := New(ErrCodeIO, "test", WithMetadata("original", "value"))

	meta := err.Metadata()
	meta["injected"] = "evil"

	if err.Metadata()["injected"] != "" {
		t.Error("Metadata() should return a copy, not the original map")
	}
}

func TestNilMetadata(t *testing.T) {
	meta := New(ErrCodeIO, "test").Metadata()
	if meta == nil || len(meta) != 0 {
		t.Errorf("Metadata() = %v, want empty non-nil map", meta)
	}
}

// ============================================================================
// 4. Error wrapping and unwrapping
// ============================================================================

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("original error")
	err := Wrap(cause, "wrapped message")

	if err.Error() != "wrapped message: original error" {
		t.Errorf("Error() = %v", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
	if err.Code() != ErrCodeIO {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeIO)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if WrapWithCode(nil, ErrCodeIO, "message") != nil {
		t.Error("WrapWithCode(nil) should return nil")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := NoContentLength(WithConnID("c1"))
	outer := Wrap(inner, "reading frame")

	if outer.Code() != ErrCodeNoContentLength {
		t.Errorf("Code() = %v, want %v", outer.Code(), ErrCodeNoContentLength)
	}
	if outer.ConnID() != "c1" {
		t.Errorf("ConnID() = %q, want c1", outer.ConnID())
	}
	if !errors.Is(outer, inner) {
		t.Error("errors.Is should find inner error")
	}
}

func TestWrapDeadline(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, "waiting for exit")
	if err.Code() != ErrCodeShutdownTimeout {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeShutdownTimeout)
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("reader: %w", InvalidUTF8())
	if !Is(err, ErrCodeInvalidUTF8) {
		t.Error("Is should match through fmt wrapping")
	}
	if !IsFraming(err) {
		t.Error("IsFraming should match")
	}
	if IsCategory(err, CategoryProtocol) {
		t.Error("protocol category should not match")
	}
	if AsTransportError(err) == nil {
		t.Error("AsTransportError should find the error")
	}
	if AsTransportError(io.EOF) != nil {
		t.Error("AsTransportError should return nil for foreign errors")
	}
}

// ============================================================================
// 5. JSON serialization
// ============================================================================

func TestJSONRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	orig := New(ErrCodeUnexpectedMessage, "got request",
		WithCause(io.ErrUnexpectedEOF),
		WithMetadata("method", "initialize"),
		WithConnID("conn-7"),
		WithTimestamp(ts),
	)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Error
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Code() != orig.Code() || got.Category() != orig.Category() {
		t.Errorf("got %v/%v, want %v/%v", got.Code(), got.Category(), orig.Code(), orig.Category())
	}
	if got.Error() != orig.Error() {
		t.Errorf("Error() = %q, want %q", got.Error(), orig.Error())
	}
	if !got.Timestamp().Equal(ts) {
		t.Errorf("Timestamp() = %v, want %v", got.Timestamp(), ts)
	}
	if got.ConnID() != "conn-7" || got.Metadata()["method"] != "initialize" {
		t.Errorf("lost context: %+v", got)
	}
}
