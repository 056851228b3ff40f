package shutdown

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/vinayprograms/rpcframe/logging"
	"github.com/vinayprograms/rpcframe/transport"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Standard phases for a process hosting connections. Lower phases run first.
const (
	// PhaseConnections closes outbound queues so writers finish.
	PhaseConnections = 10

	// PhaseIO joins the reader and writer goroutines.
	PhaseIO = 20

	// PhaseLogs flushes and closes log output.
	PhaseLogs = 30
)

// Handler is implemented by components that take part in shutdown.
type Handler interface {
	// OnShutdown is called when shutdown is initiated. The context is
	// cancelled when the timeout is reached.
	OnShutdown(ctx context.Context) error
}

// HandlerFunc is a convenience type for simple shutdown functions.
type HandlerFunc func(ctx context.Context) error

// OnShutdown implements Handler.
func (f HandlerFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// CloseConnection ends conn's outbound queue.
func CloseConnection(conn *transport.Connection) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		return conn.Close()
	})
}

// JoinThreads waits for the I/O goroutines and returns their error. It
// gives up when ctx ends, since a reader blocked on a silent peer never
// returns.
func JoinThreads(threads *transport.IoThreads) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		select {
		case <-threads.Done():
			return threads.Join()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// CloseLog closes a log file opened by logging.Open.
func CloseLog(c io.Closer) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		return c.Close()
	})
}

// HandlerResult contains the result of a single handler's shutdown.
type HandlerResult struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

// Result contains the complete shutdown result.
type Result struct {
	TotalDuration time.Duration
	Results       []HandlerResult
	Err           error
}

// Failed returns true if any handler failed.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// FailedHandlers returns the names of handlers that failed.
func (r *Result) FailedHandlers() []string {
	var failed []string
	for _, hr := range r.Results {
		if hr.Err != nil {
			failed = append(failed, hr.Name)
		}
	}
	return failed
}

// Config configures the shutdown coordinator.
type Config struct {
	// Timeout bounds the whole shutdown.
	// Default: 30 seconds
	Timeout time.Duration

	// ContinueOnError runs later phases after a handler fails.
	// Default: true
	ContinueOnError bool

	// Logger receives progress lines. Default: logging.Default().
	Logger *logging.Logger
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		ContinueOnError: true,
	}
}

type registration struct {
	name    string
	handler Handler
	phase   int
}
