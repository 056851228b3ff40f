package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RequestID identifies a request. It is either an int32 or a string, and the
// two never compare equal: IntID(92) != StringID("92").
//
// RequestID is comparable and may be used as a map key.
type RequestID struct {
	num   int32
	str   string
	isStr bool
}

// IntID returns a numeric request id.
func IntID(n int32) RequestID {
	return RequestID{num: n}
}

// StringID returns a string request id.
func StringID(s string) RequestID {
	return RequestID{str: s, isStr: true}
}

// NewStringID returns a random string id for requests issued by the application.
func NewStringID() RequestID {
	return StringID(uuid.NewString())
}

// IsString reports whether the id uses the string representation.
func (id RequestID) IsString() bool {
	return id.isStr
}

// Int returns the numeric value and true if the id is numeric.
func (id RequestID) Int() (int32, bool) {
	return id.num, !id.isStr
}

// Str returns the string value and true if the id is a string.
func (id RequestID) Str() (string, bool) {
	return id.str, id.isStr
}

// Equal reports whether both ids have the same representation and value.
func (id RequestID) Equal(other RequestID) bool {
	return id == other
}

// Compare orders ids: numbers before strings, then by value.
func (id RequestID) Compare(other RequestID) int {
	switch {
	case id.isStr != other.isStr:
		if id.isStr {
			return 1
		}
		return -1
	case id.isStr:
		return strings.Compare(id.str, other.str)
	case id.num < other.num:
		return -1
	case id.num > other.num:
		return 1
	default:
		return 0
	}
}

// String renders numbers bare and strings quoted, so 92 and "92" stay
// distinguishable in logs.
func (id RequestID) String() string {
	if id.isStr {
		return strconv.Quote(id.str)
	}
	return strconv.FormatInt(int64(id.num), 10)
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.isStr {
		return json.Marshal(id.str)
	}
	return strconv.AppendInt(nil, int64(id.num), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler. Only JSON strings and integers
// that fit in an int32 are accepted.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("request id: empty value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("request id: %w", err)
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 32)
	if err != nil {
		return fmt.Errorf("request id: expected int32 or string, got %s", data)
	}
	*id = IntID(int32(n))
	return nil
}
