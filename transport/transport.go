package transport

import (
	"errors"
	"time"

	"github.com/vinayprograms/rpcframe/codec"
	"github.com/vinayprograms/rpcframe/logging"
	"github.com/vinayprograms/rpcframe/message"
)

// Common errors.
var (
	ErrClosed       = errors.New("transport closed")
	ErrTimeout      = errors.New("timed out waiting on channel")
	ErrDisconnected = errors.New("channel is empty and sending half is closed")
)

// DefaultShutdownTimeout bounds the wait for "exit" after a shutdown reply.
const DefaultShutdownTimeout = 30 * time.Second

// Sender is the outbound end of a connection.
type Sender interface {
	// Send delivers msg, blocking until the peer or writer accepts it.
	// Returns ErrClosed once the queue is closed or its consumer is gone.
	Send(msg message.Message) error

	// Close ends the outbound queue. Further sends fail.
	Close() error
}

// Receiver is the inbound end of a connection.
type Receiver interface {
	// Recv blocks for the next message. ok is false once the producer has
	// finished and nothing is left.
	Recv() (msg message.Message, ok bool)

	// RecvTimeout is Recv bounded by d. It returns ErrTimeout or
	// ErrDisconnected when no message arrives.
	RecvTimeout(d time.Duration) (message.Message, error)

	// Close abandons the inbound queue. The producer's next push fails.
	Close() error
}

// Config holds common transport configuration.
type Config struct {
	// Limits applies to every frame the reader decodes.
	Limits codec.Limits

	// ShutdownTimeout bounds HandleShutdown's wait for "exit".
	// Default: 30s
	ShutdownTimeout time.Duration

	// Logger receives frame and worker events. Default: logging.Default().
	Logger *logging.Logger
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Limits:          codec.DefaultLimits(),
		ShutdownTimeout: DefaultShutdownTimeout,
		Logger:          logging.Default(),
	}
}

func (c Config) withDefaults() Config {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	return c
}
