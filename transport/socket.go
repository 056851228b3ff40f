package transport

import (
	"context"
	"net"

	rpcerrors "github.com/vinayprograms/rpcframe/errors"
)

// closeWriter is implemented by connections that support half-close,
// such as *net.TCPConn and *net.UnixConn.
type closeWriter interface {
	CloseWrite() error
}

// Socket binds a connection to c. The reader and writer use its independent
// read and write directions. When the writer finishes the write side is
// half-closed so the peer sees end of stream; c is closed once both
// goroutines have returned.
func Socket(c net.Conn, cfg Config) (*Connection, *IoThreads) {
	conn, threads := spawn(c, c, cfg, ioHooks{
		afterWrite: func() {
			if cw, ok := c.(closeWriter); ok {
				cw.CloseWrite()
			}
		},
		afterBoth: func() { c.Close() },
	})
	conn.log.Info("socket bound", map[string]interface{}{
		"local":  c.LocalAddr().String(),
		"remote": c.RemoteAddr().String(),
	})
	return conn, threads
}

// Connect dials addr and binds a connection to the socket. It blocks until
// the connection is established or ctx ends.
func Connect(ctx context.Context, network, addr string, cfg Config) (*Connection, *IoThreads, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, nil, rpcerrors.WrapWithCode(err, rpcerrors.ErrCodeConnect,
			"connect "+addr, rpcerrors.WithMetadata("address", addr))
	}
	conn, threads := Socket(c, cfg)
	return conn, threads, nil
}

// Listen listens on addr, accepts exactly one peer, and closes the
// listener. It blocks until a peer connects or ctx ends.
func Listen(ctx context.Context, network, addr string, cfg Config) (*Connection, *IoThreads, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, network, addr)
	if err != nil {
		return nil, nil, rpcerrors.WrapWithCode(err, rpcerrors.ErrCodeAccept,
			"listen "+addr, rpcerrors.WithMetadata("address", addr))
	}
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	conn, threads, err := Accept(ln, cfg)
	if err != nil && ctx.Err() != nil {
		return nil, nil, rpcerrors.WrapWithCode(ctx.Err(), rpcerrors.ErrCodeAccept,
			"accept "+addr, rpcerrors.WithMetadata("address", addr))
	}
	return conn, threads, err
}

// Accept waits for the next peer on ln and binds a connection to it.
// The listener stays open.
func Accept(ln net.Listener, cfg Config) (*Connection, *IoThreads, error) {
	c, err := ln.Accept()
	if err != nil {
		addr := ln.Addr().String()
		return nil, nil, rpcerrors.WrapWithCode(err, rpcerrors.ErrCodeAccept,
			"accept "+addr, rpcerrors.WithMetadata("address", addr))
	}
	conn, threads := Socket(c, cfg)
	return conn, threads, nil
}
