package codec

import (
	"bufio"
	"io"

	"github.com/vinayprograms/rpcframe/logging"
	"github.com/vinayprograms/rpcframe/message"
)

// Reader decodes frames from one stream.
type Reader struct {
	br     *bufio.Reader
	limits Limits
	log    *logging.Logger
}

// NewReader wraps r. A nil logger uses logging.Default().
func NewReader(r io.Reader, limits Limits, log *logging.Logger) *Reader {
	if log == nil {
		log = logging.Default()
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{br: br, limits: limits, log: log}
}

// Read returns the next message, or io.EOF when the stream ends at a frame
// boundary.
func (r *Reader) Read() (message.Message, error) {
	payload, err := readPayload(r.br, r.limits)
	if err != nil {
		return nil, err
	}
	msg, err := message.Decode(payload)
	if err != nil {
		return nil, err
	}
	r.log.FrameRead(msg.Kind(), len(payload))
	return msg, nil
}

// Writer encodes frames onto one stream.
type Writer struct {
	bw  *bufio.Writer
	log *logging.Logger
}

// NewWriter wraps w. Each Write flushes before returning.
func NewWriter(w io.Writer, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.Default()
	}
	return &Writer{bw: bufio.NewWriter(w), log: log}
}

// Write sends one message.
func (w *Writer) Write(m message.Message) error {
	n, err := writeFrame(w.bw, m)
	if err != nil {
		return err
	}
	w.log.FrameWritten(m.Kind(), n)
	return nil
}
