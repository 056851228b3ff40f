package transport

import (
	"sync"
	"time"

	"github.com/vinayprograms/rpcframe/message"
)

// queue is a single-producer single-consumer FIFO of messages. The producer
// ends it with closeSend; the consumer abandons it with closeRecv, after
// which sends fail with ErrClosed.
type queue interface {
	send(msg message.Message) error
	closeSend()
	recv() (message.Message, bool)
	recvTimeout(d time.Duration) (message.Message, error)
	closeRecv()
}

// rendezvous is an unbuffered queue: send returns only once the consumer
// has taken the message.
type rendezvous struct {
	ch       chan message.Message
	sendDone chan struct{}
	recvDone chan struct{}
	sendOnce sync.Once
	recvOnce sync.Once
}

func newRendezvous() *rendezvous {
	return &rendezvous{
		ch:       make(chan message.Message),
		sendDone: make(chan struct{}),
		recvDone: make(chan struct{}),
	}
}

func (q *rendezvous) send(msg message.Message) error {
	select {
	case <-q.sendDone:
		return ErrClosed
	case <-q.recvDone:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- msg:
		return nil
	case <-q.sendDone:
		return ErrClosed
	case <-q.recvDone:
		return ErrClosed
	}
}

func (q *rendezvous) closeSend() {
	q.sendOnce.Do(func() { close(q.sendDone) })
}

func (q *rendezvous) recv() (message.Message, bool) {
	select {
	case msg := <-q.ch:
		return msg, true
	case <-q.sendDone:
		return nil, false
	}
}

func (q *rendezvous) recvTimeout(d time.Duration) (message.Message, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-q.sendDone:
		return nil, ErrDisconnected
	case <-timer.C:
		return nil, ErrTimeout
	}
}

func (q *rendezvous) closeRecv() {
	q.recvOnce.Do(func() { close(q.recvDone) })
}

// unbounded never blocks the producer.
type unbounded struct {
	mu       sync.Mutex
	items    []message.Message
	sendDone bool
	recvDone bool
	signal   chan struct{}
}

func newUnbounded() *unbounded {
	return &unbounded{signal: make(chan struct{}, 1)}
}

func (q *unbounded) send(msg message.Message) error {
	q.mu.Lock()
	if q.sendDone || q.recvDone {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *unbounded) closeSend() {
	q.mu.Lock()
	q.sendDone = true
	q.mu.Unlock()
	q.wake()
}

func (q *unbounded) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop returns the head, or reports whether the queue is finished.
func (q *unbounded) pop() (msg message.Message, ok bool, finished bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 {
		msg = q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		return msg, true, false
	}
	return nil, false, q.sendDone
}

func (q *unbounded) recv() (message.Message, bool) {
	for {
		msg, ok, finished := q.pop()
		if ok {
			return msg, true
		}
		if finished {
			return nil, false
		}
		<-q.signal
	}
}

func (q *unbounded) recvTimeout(d time.Duration) (message.Message, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		msg, ok, finished := q.pop()
		if ok {
			return msg, nil
		}
		if finished {
			return nil, ErrDisconnected
		}
		select {
		case <-q.signal:
		case <-timer.C:
			return nil, ErrTimeout
		}
	}
}

func (q *unbounded) closeRecv() {
	q.mu.Lock()
	q.recvDone = true
	q.items = nil
	q.mu.Unlock()
}

// sendHalf and recvHalf expose one side of a queue.
type sendHalf struct{ q queue }

func (h sendHalf) Send(msg message.Message) error { return h.q.send(msg) }
func (h sendHalf) Close() error                   { h.q.closeSend(); return nil }

type recvHalf struct{ q queue }

func (h recvHalf) Recv() (message.Message, bool) { return h.q.recv() }
func (h recvHalf) RecvTimeout(d time.Duration) (message.Message, error) {
	return h.q.recvTimeout(d)
}
func (h recvHalf) Close() error { h.q.closeRecv(); return nil }
