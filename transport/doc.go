// Package transport moves framed JSON-RPC messages between an application
// and a peer.
//
// # Overview
//
// Each stream-backed connection runs two goroutines: a reader decoding frames
// onto the inbound queue and a writer encoding messages from the outbound
// queue. Both queues are unbuffered, so a Send returns only once the writer
// has taken the message and the reader stays at most one frame ahead of
// the application.
//
// # Available Bindings
//
//   - Stdio / Streams: os.Stdin and os.Stdout, or any reader and writer
//   - Command: a child process spoken to over its stdin and stdout
//   - Socket / Connect / Listen / Accept: a net.Conn
//   - WebSocket / AcceptWebSocket: a websocket carrying the byte stream
//   - Memory: two connections wired together in-process, no goroutines
//
// # Usage
//
//	conn, threads := transport.Stdio(transport.DefaultConfig())
//	for msg := range conn.Messages() {
//	    if req, ok := msg.(*message.Request); ok {
//	        if done, err := conn.HandleShutdown(req); done || err != nil {
//	            break
//	        }
//	        // Handle request, send response
//	    }
//	}
//	conn.Close()
//	if err := threads.Join(); err != nil {
//	    // fatal for the connection
//	}
//
// # Lifecycle
//
// The reader stops at end of stream, after delivering an "exit"
// notification, or on the first framing, decode or I/O error; the stream is
// never resynchronized. The writer stops when Close ends the outbound queue.
// Join waits for the reader and then the writer; a goroutine that panicked
// is re-panicked in the joining goroutine as a *ThreadFault.
package transport
