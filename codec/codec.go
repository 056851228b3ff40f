// Package codec reads and writes Content-Length framed JSON-RPC messages.
//
// A frame is a block of CRLF-terminated "Name: value" header lines, an empty
// line, and exactly Content-Length bytes of UTF-8 JSON:
//
//	Content-Length: 38\r\n
//	\r\n
//	{"jsonrpc":"2.0","id":1,"method":"m"}
//
// Any framing or decode error is terminal for the stream; the codec never
// tries to resynchronize on the next header.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	rpcerrors "github.com/vinayprograms/rpcframe/errors"
	"github.com/vinayprograms/rpcframe/message"
)

// HeaderContentLength is the only header the codec interprets.
const HeaderContentLength = "Content-Length"

const initialPayloadBuffer = 64 * 1024

// Limits constrains frame decode memory use.
type Limits struct {
	// MaxContentLength rejects larger frames before reading the body.
	// Zero means unlimited.
	MaxContentLength int64
}

// DefaultLimits returns limits that accept any frame.
func DefaultLimits() Limits {
	return Limits{}
}

// ReadFrame reads one frame from r and decodes it.
//
// At a frame boundary with no more input it returns (nil, io.EOF), and keeps
// doing so on further calls. Every other failure is a *rpcerrors.Error.
func ReadFrame(r *bufio.Reader, limits Limits) (message.Message, error) {
	payload, err := readPayload(r, limits)
	if err != nil {
		return nil, err
	}
	return message.Decode(payload)
}

func readPayload(r *bufio.Reader, limits Limits) ([]byte, error) {
	size := int64(-1)
	headers := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, rpcerrors.IO(err)
		}
		if line == "" {
			if headers == 0 {
				return nil, io.EOF
			}
			return nil, rpcerrors.New(rpcerrors.ErrCodeMalformedHeader,
				"unexpected end of stream in header block", rpcerrors.WithCause(io.ErrUnexpectedEOF))
		}
		if !strings.HasSuffix(line, "\r\n") {
			return nil, rpcerrors.MalformedHeader(line)
		}
		line = line[:len(line)-2]
		if line == "" {
			break
		}
		headers++

		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, rpcerrors.MalformedHeader(line)
		}
		if name == HeaderContentLength {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return nil, rpcerrors.MalformedHeader(line, rpcerrors.WithCause(err))
			}
			size = n
		}
	}

	if size < 0 {
		return nil, rpcerrors.NoContentLength()
	}
	if limits.MaxContentLength > 0 && size > limits.MaxContentLength {
		return nil, rpcerrors.Newf(rpcerrors.ErrCodeMalformedHeader,
			"Content-Length %d exceeds limit %d", size, limits.MaxContentLength)
	}

	// The buffer grows only as body bytes arrive.
	var buf bytes.Buffer
	buf.Grow(int(min(size, initialPayloadBuffer)))
	if _, err := io.CopyN(&buf, r, size); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, rpcerrors.Wrap(err, fmt.Sprintf("reading %d byte payload", size))
	}
	payload := buf.Bytes()
	if !utf8.Valid(payload) {
		return nil, rpcerrors.InvalidUTF8()
	}
	return payload, nil
}

type flusher interface {
	Flush() error
}

// WriteFrame encodes m, writes header and payload, and flushes w if it
// buffers, so the peer sees the whole frame before WriteFrame returns.
func WriteFrame(w io.Writer, m message.Message) error {
	_, err := writeFrame(w, m)
	return err
}

func writeFrame(w io.Writer, m message.Message) (int, error) {
	payload, err := message.Encode(m)
	if err != nil {
		return 0, rpcerrors.WrapWithCode(err, rpcerrors.ErrCodeIO, "encoding message")
	}
	if _, err := fmt.Fprintf(w, "%s: %d\r\n\r\n", HeaderContentLength, len(payload)); err != nil {
		return 0, rpcerrors.IO(err)
	}
	if _, err := w.Write(payload); err != nil {
		return 0, rpcerrors.IO(err)
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return 0, rpcerrors.IO(err)
		}
	}
	return len(payload), nil
}
