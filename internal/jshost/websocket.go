package jshost

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// PageSocket is the supplemented WebSocket page API: a page script opens
// one of these through Env, and it behaves like the browser WebSocket
// object — connect, send, receive, close — without the core depending on
// any JS engine's own networking. Backed by coder/websocket, the same
// client library the teacher's internal/ws.Client uses for its
// wing-to-relay tunnel, here repurposed from a device-auth channel to a
// page-script transport.
//
// Delivery respects the reactor's single-threaded invariant (spec §5):
// incoming frames are queued by a background read goroutine and only
// handed to script callbacks when the controller calls Drain on a reactor
// tick, never directly from the read goroutine.
type PageSocket struct {
	url    string
	conn   *websocket.Conn
	cancel context.CancelFunc

	mu       sync.Mutex
	inbox    [][]byte
	closeErr error
	closed   bool
}

// DialPageSocket opens a WebSocket connection for a page script. The
// connection runs its read loop in a background goroutine; received
// frames accumulate in an internal queue until Drain is called.
func DialPageSocket(ctx context.Context, url string) (*PageSocket, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	cancel()
	if err != nil {
		return nil, err
	}

	readCtx, readCancel := context.WithCancel(context.Background())
	ps := &PageSocket{url: url, conn: conn, cancel: readCancel}
	go ps.readLoop(readCtx)
	return ps, nil
}

func (ps *PageSocket) readLoop(ctx context.Context) {
	for {
		_, data, err := ps.conn.Read(ctx)
		if err != nil {
			ps.mu.Lock()
			ps.closed = true
			ps.closeErr = err
			ps.mu.Unlock()
			return
		}
		ps.mu.Lock()
		ps.inbox = append(ps.inbox, data)
		ps.mu.Unlock()
	}
}

// Send writes a text frame. Per the reactor model, writes happen
// synchronously within the current turn; they do not block across a frame
// boundary because coder/websocket buffers the write internally.
func (ps *PageSocket) Send(ctx context.Context, data []byte) error {
	return ps.conn.Write(ctx, websocket.MessageText, data)
}

// Drain returns every frame received since the last Drain call, along
// with whether the connection has since closed and why. Called once per
// reactor tick by the controller, matching the fetch-callback delivery
// model (spec §5: "delivered on a future reactor tick").
func (ps *PageSocket) Drain() (frames [][]byte, closed bool, closeErr error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	frames = ps.inbox
	ps.inbox = nil
	return frames, ps.closed, ps.closeErr
}

// Close terminates the connection and stops the read loop.
func (ps *PageSocket) Close() error {
	ps.cancel()
	return ps.conn.Close(websocket.StatusNormalClosure, "")
}
