// Package script runs Lua scripts that react to the events of an IRC
// connection.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"git.sr.ht/~taiite/ircchain/irc"
)

// DefaultTimeout bounds every run of Lua code, loading included.
const DefaultTimeout = 5 * time.Second

var ErrClosed = errors.New("script host is closed")

// Host owns a sandboxed Lua state bound to one connection.
//
// gopher-lua states are not goroutine-safe.  Scripts only register incoming
// handlers, which run on the connection's dispatch goroutine, and mu
// serializes them with loading and closing.
type Host struct {
	L    *lua.LState
	conn *irc.Conn
	log  *slog.Logger

	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Option configures a Host.
type Option func(*Host)

// WithTimeout sets how long Lua code may run before it is interrupted.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// WithLogger sets the logger receiving script errors and print output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.log = logger
	}
}

// New returns a host whose scripts act on conn.  Scripts must be loaded
// before conn is started.
func New(conn *irc.Conn, opts ...Option) *Host {
	h := &Host{
		conn:    conn,
		log:     conn.Logger(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With("component", "script")

	h.L = lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(h.L)
	sandbox(h.L)
	h.installPrint()
	h.installModule()

	return h
}

// LoadFile runs the script at path.
func (h *Host) LoadFile(path string) error {
	err := h.run(func() error {
		return h.L.DoFile(path)
	})
	if err != nil {
		return fmt.Errorf("failed to load script %q: %w", path, err)
	}
	h.log.Info("script loaded", "path", path)
	return nil
}

// LoadString runs src as a script.
func (h *Host) LoadString(src string) error {
	err := h.run(func() error {
		return h.L.DoString(src)
	})
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	return nil
}

// Close releases the Lua state.  Handlers registered by scripts stay in the
// connection's chains but do nothing anymore.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.L.Close()
	h.closed = true
	return nil
}

// run executes f on the Lua state with the host's timeout.
func (h *Host) run(f func() error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return f()
}

func (h *Host) installPrint() {
	h.L.SetGlobal("print", h.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		h.log.Info(strings.Join(parts, "\t"))
		return 0
	}))
}

// handler wraps a Lua function into a connection handler.  The function
// receives the event as a table; returning true stops the chain.  Lua
// errors are logged and the chain goes on.
func (h *Host) handler(name string, fn *lua.LFunction) irc.Handler {
	return irc.HandlerFunc(func(c *irc.Conn, ev *irc.Event) irc.Result {
		var handled bool
		err := h.run(func() error {
			err := h.L.CallByParam(lua.P{
				Fn:      fn,
				NRet:    1,
				Protect: true,
			}, eventTable(h.L, ev))
			if err != nil {
				return err
			}
			handled = lua.LVAsBool(h.L.Get(-1))
			h.L.Pop(1)
			return nil
		})
		if err != nil {
			h.log.Warn("script handler failed", "event", name, "err", err)
			return irc.Continue
		}
		if handled {
			return irc.Handled
		}
		return irc.Continue
	})
}
