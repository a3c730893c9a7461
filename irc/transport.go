package irc

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Transport carries protocol lines to and from the server.
//
// ReadLines blocks for at most wait and returns every complete line received
// in that time, which may be none.  It returns io.EOF once the server closed
// the stream, along with the last lines received.  WriteLine must be safe to
// call from several goroutines.  A Conn closes its transport exactly once.
type Transport interface {
	ReadLines(wait time.Duration) ([]string, error)
	WriteLine(line string) error
	EOF() bool
	Close() error
}

// ConnectError is returned when the connection to the server cannot be
// established.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// DialParams defines where and how to connect.
type DialParams struct {
	Address string
	Port    int
	TLS     bool

	// TLSConfig is used when TLS is set.  A nil config verifies the server
	// certificate against Address.
	TLSConfig *tls.Config

	// WebSocket, when set, is a ws:// or wss:// URL used instead of Address
	// and Port.
	WebSocket string
}

func (p DialParams) addr() string {
	port := p.Port
	if port == 0 {
		if p.TLS {
			port = 6697
		} else {
			port = 6667
		}
	}
	return net.JoinHostPort(p.Address, strconv.Itoa(port))
}

// Dial opens a Transport to the server.
func Dial(ctx context.Context, params DialParams) (Transport, error) {
	if params.WebSocket != "" {
		return DialWebSocket(ctx, params.WebSocket)
	}

	addr := params.addr()
	d := &net.Dialer{}

	var (
		conn net.Conn
		err  error
	)
	if params.TLS {
		cfg := params.TLSConfig
		if cfg == nil {
			cfg = &tls.Config{ServerName: params.Address}
		}
		td := &tls.Dialer{NetDialer: d, Config: cfg}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	return NewConnTransport(conn), nil
}

type connTransport struct {
	conn net.Conn
	r    *bufio.Reader

	partial strings.Builder // line read before the last poll timed out.
	eof     atomic.Bool

	wl        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConnTransport wraps a stream connection, plain or TLS.
func NewConnTransport(conn net.Conn) Transport {
	return &connTransport{
		conn: conn,
		r:    bufio.NewReaderSize(conn, 4096),
	}
}

func (t *connTransport) ReadLines(wait time.Duration) (lines []string, err error) {
	if t.eof.Load() {
		return nil, io.EOF
	}

	err = t.conn.SetReadDeadline(time.Now().Add(wait))
	if err != nil {
		return nil, err
	}

	for {
		var chunk string

		chunk, err = t.r.ReadString('\n')
		t.partial.WriteString(chunk)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				err = nil
			} else if errors.Is(err, io.EOF) {
				t.eof.Store(true)
				// the last line may lack its CRLF
				if line := strings.TrimRight(t.partial.String(), "\r\n"); line != "" {
					lines = append(lines, line)
				}
				t.partial.Reset()
			}
			return
		}

		line := strings.TrimRight(t.partial.String(), "\r\n")
		t.partial.Reset()
		if line != "" {
			lines = append(lines, line)
		}

		// One read from the socket (or one TLS record) may hold several
		// lines.  Keep going only while they are already buffered.
		if t.r.Buffered() == 0 {
			return
		}
	}
}

func (t *connTransport) WriteLine(line string) (err error) {
	t.wl.Lock()
	defer t.wl.Unlock()

	_, err = io.WriteString(t.conn, line+"\r\n")
	return
}

func (t *connTransport) EOF() bool {
	return t.eof.Load()
}

func (t *connTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
