package transport

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	rpcerrors "github.com/vinayprograms/rpcframe/errors"
	"github.com/vinayprograms/rpcframe/logging"
	"github.com/vinayprograms/rpcframe/message"
)

// State is the shutdown handshake state of a connection.
type State int32

const (
	StateRunning State = iota
	StateShutdownRequested
	StateExited
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShutdownRequested:
		return "shutdown_requested"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Connection is the application's handle on one peer: a sender feeding the
// writer and a receiver fed by the reader.
type Connection struct {
	Sender   Sender
	Receiver Receiver

	id              string
	log             *logging.Logger
	shutdownTimeout atomic.Int64
	state           atomic.Int32
}

func newConnection(s Sender, r Receiver, cfg Config) *Connection {
	cfg = cfg.withDefaults()
	id := uuid.NewString()
	c := &Connection{
		Sender:   s,
		Receiver: r,
		id:       id,
		log:      cfg.Logger.WithComponent("conn").WithTraceID(id),
	}
	c.shutdownTimeout.Store(int64(cfg.ShutdownTimeout))
	return c
}

// Memory returns two connections wired to each other through unbounded
// queues: what one sends the other receives. No goroutines or I/O are
// involved.
func Memory(cfg Config) (*Connection, *Connection) {
	ab := newUnbounded()
	ba := newUnbounded()
	a := newConnection(sendHalf{ab}, recvHalf{ba}, cfg)
	b := newConnection(sendHalf{ba}, recvHalf{ab}, cfg)
	return a, b
}

// ID identifies the connection in logs.
func (c *Connection) ID() string { return c.id }

// State reports the shutdown handshake state.
func (c *Connection) State() State { return State(c.state.Load()) }

// SetShutdownTimeout overrides how long HandleShutdown waits for "exit".
// It is safe to call while another goroutine is serving.
func (c *Connection) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		c.shutdownTimeout.Store(int64(d))
	}
}

// ShutdownTimeout reports how long HandleShutdown waits for "exit".
func (c *Connection) ShutdownTimeout() time.Duration {
	return time.Duration(c.shutdownTimeout.Load())
}

// Send queues msg for the peer. It fails with ErrClosed after Close.
func (c *Connection) Send(msg message.Message) error {
	return c.Sender.Send(msg)
}

// Receive blocks for the next inbound message. ok is false once the reader
// has finished and nothing is left.
func (c *Connection) Receive() (message.Message, bool) {
	return c.Receiver.Recv()
}

// ReceiveTimeout is Receive bounded by d.
func (c *Connection) ReceiveTimeout(d time.Duration) (message.Message, error) {
	return c.Receiver.RecvTimeout(d)
}

// Messages ranges over inbound messages until the reader finishes.
func (c *Connection) Messages() iter.Seq[message.Message] {
	return func(yield func(message.Message) bool) {
		for {
			msg, ok := c.Receiver.Recv()
			if !ok || !yield(msg) {
				return
			}
		}
	}
}

// Close ends the outbound queue, so the writer finishes after the last
// accepted message, and abandons the inbound queue.
func (c *Connection) Close() error {
	err := c.Sender.Close()
	if rerr := c.Receiver.Close(); err == nil {
		err = rerr
	}
	return err
}

func (c *Connection) transition(from, to State) {
	c.state.Store(int32(to))
	c.log.ShutdownState(from.String(), to.String())
}

// HandleShutdown runs the shutdown handshake when req is a "shutdown"
// request. For any other request it returns false and sends nothing.
//
// Otherwise it replies with a null result and waits for the next inbound
// message. An "exit" notification completes the handshake and returns true.
// Any other message fails with UNEXPECTED_MESSAGE; a timeout or a closed
// inbound queue fails with SHUTDOWN_TIMEOUT.
func (c *Connection) HandleShutdown(req *message.Request) (bool, error) {
	if req == nil || !req.IsShutdown() {
		return false, nil
	}

	resp, err := message.NewResultResponse(req.ID, nil)
	if err != nil {
		return false, err
	}
	if err := c.Send(resp); err != nil {
		return false, rpcerrors.Closed(rpcerrors.WithCause(err), rpcerrors.WithConnID(c.id))
	}
	c.transition(StateRunning, StateShutdownRequested)

	timeout := c.ShutdownTimeout()
	msg, err := c.ReceiveTimeout(timeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("no exit within %s: %w", timeout, err)
		}
		return false, rpcerrors.ShutdownTimeout(err, rpcerrors.WithConnID(c.id))
	}
	if n, ok := msg.(*message.Notification); ok && n.IsExit() {
		c.transition(StateShutdownRequested, StateExited)
		return true, nil
	}
	return false, rpcerrors.UnexpectedMessage(describe(msg), rpcerrors.WithConnID(c.id))
}

func describe(msg message.Message) string {
	switch m := msg.(type) {
	case *message.Request:
		return fmt.Sprintf("request %q (id %s)", m.Method, m.ID)
	case *message.Response:
		return fmt.Sprintf("response (id %s)", m.ID)
	case *message.Notification:
		return fmt.Sprintf("notification %q", m.Method)
	default:
		return fmt.Sprintf("%T", msg)
	}
}
