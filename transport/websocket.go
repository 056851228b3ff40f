package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	rpcerrors "github.com/vinayprograms/rpcframe/errors"
)

// WebSocketConfig holds WebSocket binding configuration.
type WebSocketConfig struct {
	Config // Embed base config

	// WriteTimeout for each websocket write (0 = no timeout).
	WriteTimeout time.Duration

	// MaxMessageSize limits one incoming websocket message.
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns configuration with sensible defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		Config:         DefaultConfig(),
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1024 * 1024, // 1MB
	}
}

// NewWebSocketUpgrader creates an upgrader for accepting WebSocket connections.
func NewWebSocketUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // Override in production
	}
}

// WebSocket dials url and binds a connection to the websocket. Frames are
// carried as a byte stream of binary messages; message boundaries carry no
// meaning.
func WebSocket(ctx context.Context, url string, cfg WebSocketConfig) (*Connection, *IoThreads, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, nil, rpcerrors.WrapWithCode(err, rpcerrors.ErrCodeConnect,
			"dial "+url, rpcerrors.WithMetadata("address", url))
	}
	conn, threads := Socket(newWSStream(ws, cfg), cfg.Config)
	return conn, threads, nil
}

// AcceptWebSocket upgrades an HTTP request and binds a connection to it.
func AcceptWebSocket(w http.ResponseWriter, r *http.Request, cfg WebSocketConfig) (*Connection, *IoThreads, error) {
	ws, err := NewWebSocketUpgrader().Upgrade(w, r, nil)
	if err != nil {
		return nil, nil, rpcerrors.WrapWithCode(err, rpcerrors.ErrCodeAccept,
			"upgrade "+r.RemoteAddr, rpcerrors.WithMetadata("address", r.RemoteAddr))
	}
	conn, threads := Socket(newWSStream(ws, cfg), cfg.Config)
	return conn, threads, nil
}

// wsStream adapts a websocket to net.Conn. Reads run across message
// boundaries; each Write is one binary message. CloseWrite sends a close
// frame, so the peer's reader sees end of stream.
type wsStream struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	r         io.Reader
	closeOnce sync.Once
}

var _ net.Conn = (*wsStream)(nil)

func newWSStream(ws *websocket.Conn, cfg WebSocketConfig) *wsStream {
	if cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(cfg.MaxMessageSize)
	}
	return &wsStream{ws: ws, writeTimeout: cfg.WriteTimeout}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if err == io.EOF {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if s.writeTimeout > 0 {
		s.ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := s.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) CloseWrite() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
	})
	return err
}

func (s *wsStream) Close() error {
	s.CloseWrite()
	return s.ws.Close()
}

func (s *wsStream) LocalAddr() net.Addr  { return s.ws.LocalAddr() }
func (s *wsStream) RemoteAddr() net.Addr { return s.ws.RemoteAddr() }

func (s *wsStream) SetDeadline(t time.Time) error {
	if err := s.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return s.ws.SetWriteDeadline(t)
}

func (s *wsStream) SetReadDeadline(t time.Time) error  { return s.ws.SetReadDeadline(t) }
func (s *wsStream) SetWriteDeadline(t time.Time) error { return s.ws.SetWriteDeadline(t) }
