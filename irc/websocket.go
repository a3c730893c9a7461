package irc

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// ircv3Subprotocol is the WebSocket subprotocol carrying one UTF-8 line per
// text message.
const ircv3Subprotocol = "text.ircv3.net"

type wsTransport struct {
	conn *websocket.Conn
	ctx  context.Context
	stop context.CancelFunc

	lines chan string
	err   error // set before lines is closed.
	eof   atomic.Bool

	wl        sync.Mutex
	closeOnce sync.Once
}

// DialWebSocket opens a Transport over a WebSocket connection, as served by
// IRCv3 WebSocket gateways.
func DialWebSocket(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{ircv3Subprotocol},
	})
	if err != nil {
		return nil, &ConnectError{Addr: url, Err: err}
	}
	return NewWebSocketTransport(conn), nil
}

// NewWebSocketTransport wraps an established WebSocket connection.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	ctx, stop := context.WithCancel(context.Background())
	t := &wsTransport{
		conn:  conn,
		ctx:   ctx,
		stop:  stop,
		lines: make(chan string, 64),
	}

	// Cancelling a pending Read closes the websocket, so reads cannot be
	// bounded by a context deadline.  A dedicated reader feeds lines instead.
	go t.readMessages()

	return t
}

func (t *wsTransport) readMessages() {
	defer close(t.lines)
	for {
		_, buf, err := t.conn.Read(t.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				err = io.EOF
			}
			t.err = err
			return
		}
		for _, line := range strings.Split(string(buf), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			select {
			case t.lines <- line:
			case <-t.ctx.Done():
				t.err = t.ctx.Err()
				return
			}
		}
	}
}

func (t *wsTransport) ReadLines(wait time.Duration) (lines []string, err error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case line, ok := <-t.lines:
		if !ok {
			return nil, t.closed()
		}
		lines = append(lines, line)
	case <-timer.C:
		return nil, nil
	}

	for {
		select {
		case line, ok := <-t.lines:
			if !ok {
				return lines, t.closed()
			}
			lines = append(lines, line)
		default:
			return lines, nil
		}
	}
}

func (t *wsTransport) closed() error {
	if t.err == io.EOF {
		t.eof.Store(true)
	}
	return t.err
}

func (t *wsTransport) WriteLine(line string) error {
	t.wl.Lock()
	defer t.wl.Unlock()

	return t.conn.Write(t.ctx, websocket.MessageText, []byte(line))
}

func (t *wsTransport) EOF() bool {
	return t.eof.Load()
}

func (t *wsTransport) Close() (err error) {
	t.closeOnce.Do(func() {
		err = t.conn.Close(websocket.StatusNormalClosure, "")
		t.stop()
	})
	return
}
