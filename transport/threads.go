package transport

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vinayprograms/rpcframe/codec"
	rpcerrors "github.com/vinayprograms/rpcframe/errors"
	"github.com/vinayprograms/rpcframe/logging"
	"github.com/vinayprograms/rpcframe/message"
)

const (
	threadReader = "reader"
	threadWriter = "writer"
)

// ThreadFault records a reader or writer goroutine that panicked.
// IoThreads.Join re-panics with it.
type ThreadFault struct {
	Thread string
	Value  any
	Stack  []byte

	err *rpcerrors.Error
}

func newThreadFault(thread string, value any, stack []byte) *ThreadFault {
	return &ThreadFault{
		Thread: thread,
		Value:  value,
		Stack:  stack,
		err: rpcerrors.New(rpcerrors.ErrCodeThreadFault,
			fmt.Sprintf("%s panicked: %v", thread, value),
			rpcerrors.WithMetadata("thread", thread)),
	}
}

func (f *ThreadFault) Error() string { return f.err.Error() }

// Unwrap exposes the THREAD_FAULT error, so rpcerrors.Is matches a fault.
func (f *ThreadFault) Unwrap() error { return f.err }

// worker is one goroutine and its final result.
type worker struct {
	name string
	done chan struct{}
	err  error
}

func startWorker(name string, log *logging.Logger, fn func() error, after func()) *worker {
	w := &worker{name: name, done: make(chan struct{})}
	go func() {
		start := time.Now()
		defer close(w.done)
		defer func() {
			if v := recover(); v != nil {
				w.err = newThreadFault(name, v, debug.Stack())
			}
			log.ThreadExit(name, time.Since(start), w.err)
			if after != nil {
				after()
			}
		}()
		w.err = fn()
	}()
	return w
}

func (w *worker) wait(log *logging.Logger) error {
	<-w.done
	var fault *ThreadFault
	if errors.As(w.err, &fault) {
		log.Error(w.name+" panicked", map[string]interface{}{
			"panic": fmt.Sprint(fault.Value),
			"stack": string(fault.Stack),
		})
		panic(fault)
	}
	return w.err
}

// IoThreads owns the reader and writer goroutines of one connection.
type IoThreads struct {
	reader *worker
	writer *worker
	log    *logging.Logger
}

// Join waits for the reader, then the writer, and returns the first error.
// A reader error returns without waiting for the writer, which ends only
// once the connection is closed. A goroutine that panicked is re-panicked
// here with its *ThreadFault.
func (t *IoThreads) Join() error {
	if err := t.reader.wait(t.log); err != nil {
		return err
	}
	return t.writer.wait(t.log)
}

// Done is closed once both goroutines have returned.
func (t *IoThreads) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		<-t.reader.done
		<-t.writer.done
		close(done)
	}()
	return done
}

// ioHooks run when the goroutines finish. afterWrite runs once the writer
// returns; afterBoth once both have.
type ioHooks struct {
	afterWrite func()
	afterBoth  func()
}

// spawn starts the reader over r and the writer over w and returns the
// connection bound to their queues.
func spawn(r io.Reader, w io.Writer, cfg Config, hooks ioHooks) (*Connection, *IoThreads) {
	cfg = cfg.withDefaults()
	outbound := newRendezvous()
	inbound := newRendezvous()
	conn := newConnection(sendHalf{outbound}, recvHalf{inbound}, cfg)
	log := conn.log

	var (
		mu        sync.Mutex
		remaining = 2
	)
	finished := func() {
		mu.Lock()
		remaining--
		last := remaining == 0
		mu.Unlock()
		if last && hooks.afterBoth != nil {
			hooks.afterBoth()
		}
	}

	reader := codec.NewReader(r, cfg.Limits, log.WithComponent(threadReader))
	writer := codec.NewWriter(w, log.WithComponent(threadWriter))

	threads := &IoThreads{log: log}
	threads.reader = startWorker(threadReader, log, func() error {
		return readLoop(reader, inbound, conn.id)
	}, finished)
	threads.writer = startWorker(threadWriter, log, func() error {
		return writeLoop(writer, outbound, conn.id)
	}, func() {
		if hooks.afterWrite != nil {
			hooks.afterWrite()
		}
		finished()
	})
	return conn, threads
}

// readLoop pushes decoded messages until end of stream, an "exit"
// notification, an error, or the consumer going away.
func readLoop(r *codec.Reader, inbound queue, connID string) error {
	defer inbound.closeSend()
	for {
		msg, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return rpcerrors.Wrap(err, "reader", rpcerrors.WithConnID(connID))
		}
		exit := false
		if n, ok := msg.(*message.Notification); ok && n.IsExit() {
			exit = true
		}
		if err := inbound.send(msg); err != nil {
			return nil
		}
		if exit {
			return nil
		}
	}
}

// writeLoop writes queued messages until the outbound queue is closed.
// However it ends, even by panic, the queue is abandoned so later sends fail.
func writeLoop(w *codec.Writer, outbound queue, connID string) error {
	defer outbound.closeRecv()
	for {
		msg, ok := outbound.recv()
		if !ok {
			return nil
		}
		if err := w.Write(msg); err != nil {
			return rpcerrors.Wrap(err, "writer", rpcerrors.WithConnID(connID))
		}
	}
}
