package irc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
)

// State is the lifecycle stage of a connection.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateListening
	StateDead
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateDead:
		return "dead"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var (
	ErrDead       = errors.New("connection is dead")
	ErrNotStarted = errors.New("connection is not started")
	ErrNoNickname = errors.New("no nickname specified")
)

const (
	defaultPollInterval     = 50 * time.Millisecond
	defaultThrottleInterval = time.Second
	defaultQuitGrace        = time.Second
)

// Params defines how to connect to the server and who to be there.
type Params struct {
	DialParams

	// Transport, when set, is used as is instead of dialing.
	Transport Transport

	// Nicknames are tried in order until the server accepts one.
	Nicknames []string
	Username  string
	RealName  string
	Password  string

	// ThrottleInterval is the minimum time between two drains of the
	// private message queue.  Zero means one second; use a negative value
	// to disable throttling.
	ThrottleInterval time.Duration

	// PollInterval bounds how long each loop waits before checking for
	// work again.  Zero means 50ms.
	PollInterval time.Duration

	// QuitGrace is how long Shutdown waits for the server to close the
	// connection after QUIT.  Zero means one second.
	QuitGrace time.Duration

	// Logger receives the connection's logs.  Nil means slog.Default().
	Logger *slog.Logger

	// Report, when set, receives a line for every private message sent.
	// Otherwise those lines are logged at debug level.
	Report func(string)
}

// Conn is a connection to an IRC server.
//
// Handlers are registered on an idle Conn.  Start then connects, and three
// goroutines take over: one reads lines from the server into the input queue,
// one classifies and dispatches them, one releases throttled private
// messages.  Stop, or any I/O failure, kills the connection for good.
type Conn struct {
	params   Params
	log      *slog.Logger
	handlers *Dispatcher
	in       *InputQueue
	out      *OutputThrottle

	tl        sync.Mutex
	transport Transport

	state      atomic.Int32
	registered atomic.Bool

	nl      sync.Mutex
	nick    string // confirmed by the server, or the last one tried.
	nickIdx int    // index of the last candidate tried.

	done     chan struct{}
	stopOnce sync.Once
	loops    conc.WaitGroup
}

// New returns an idle connection.  Nothing is sent nor received before
// Start is called.
func New(params Params) (*Conn, error) {
	if len(params.Nicknames) == 0 || params.Nicknames[0] == "" {
		return nil, ErrNoNickname
	}
	if params.Username == "" {
		params.Username = params.Nicknames[0]
	}
	if params.RealName == "" {
		params.RealName = params.Nicknames[0]
	}
	if params.PollInterval <= 0 {
		params.PollInterval = defaultPollInterval
	}
	if params.ThrottleInterval == 0 {
		params.ThrottleInterval = defaultThrottleInterval
	}
	if params.QuitGrace <= 0 {
		params.QuitGrace = defaultQuitGrace
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Conn{
		params:   params,
		log:      logger.With("component", "irc"),
		handlers: NewDispatcher(),
		in:       NewInputQueue(),
		out:      NewOutputThrottle(params.ThrottleInterval),
		nick:     params.Nicknames[0],
		done:     make(chan struct{}),
	}
	return c, nil
}

// Handle registers h for the named event, in front of the handlers already
// registered for it.  Names are of the form "incoming_<type>",
// "incoming_numeric_<code>", "incoming_<numeric name>", "outgoing_<helper>"
// or one of IncomingAny and OutgoingBeginConnection.
//
// It returns ErrRunning once Start has been called.
func (c *Conn) Handle(name string, h Handler) error {
	if c.State() != StateIdle {
		return ErrRunning
	}
	return c.handlers.Register(name, h, true)
}

// HandleFunc registers f for the named event.  See Handle.
func (c *Conn) HandleFunc(name string, f func(c *Conn, ev *Event) Result) error {
	return c.Handle(name, HandlerFunc(f))
}

// HandleLast registers h behind the handlers already registered for the
// named event.
func (c *Conn) HandleLast(name string, h Handler) error {
	if c.State() != StateIdle {
		return ErrRunning
	}
	return c.handlers.Register(name, h, false)
}

// Start connects to the server, installs the default handlers, starts the
// connection goroutines and sends the registration lines.
//
// On failure the connection is dead and the error is returned, wrapped in a
// *ConnectError when the server could not be reached.
func (c *Conn) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return ErrRunning
	}

	t := c.params.Transport
	if t == nil {
		var err error
		t, err = Dial(ctx, c.params.DialParams)
		if err != nil {
			c.log.Error("connection failed", "err", err)
			c.Stop()
			return err
		}
	}

	// Stop reads the transport under the same lock after marking the
	// connection dead, so exactly one of them closes it.
	c.tl.Lock()
	if c.Dead() {
		c.tl.Unlock()
		// stopped while dialing
		_ = t.Close()
		return ErrDead
	}
	c.transport = t
	c.tl.Unlock()

	c.installDefaults()
	c.handlers.Freeze()

	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateListening)) {
		// stopped since, and Stop closed t
		return ErrDead
	}
	c.log.Info("connected")

	c.loops.Go(c.readLoop)
	c.loops.Go(c.dispatchLoop)
	c.loops.Go(c.throttleLoop)

	c.handlers.Dispatch(c, OutgoingBeginConnection, &Event{
		Outgoing: true,
		Nick:     c.Nick(),
	})

	return nil
}

// Stop kills the connection.  Running handlers are not waited for.  It is a
// no-op on a dead connection.
func (c *Conn) Stop() {
	c.stopOnce.Do(func() {
		c.state.Store(int32(StateDead))
		close(c.done)

		c.tl.Lock()
		t := c.transport
		c.tl.Unlock()
		if t != nil {
			if err := t.Close(); err != nil {
				c.log.Debug("failed to close transport", "err", err)
			}
		}
		c.log.Info("connection closed")
	})
}

// Shutdown quits gracefully: it sends QUIT, gives the server a moment to
// close the connection, then stops.
func (c *Conn) Shutdown(reason string) {
	if c.State() == StateListening {
		if err := c.Quit(reason); err == nil {
			timer := time.NewTimer(c.params.QuitGrace)
			select {
			case <-timer.C:
			case <-c.done:
			}
			timer.Stop()
		}
	}
	c.Stop()
}

// Wait blocks until the connection goroutines have returned.  If a handler
// panicked, the panic is raised again in the calling goroutine.
func (c *Conn) Wait() {
	c.loops.Wait()
}

// Run blocks until the connection dies or ctx is done, in which case it
// shuts the connection down gracefully.
func (c *Conn) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		c.Shutdown("")
	case <-c.done:
	}
	c.Wait()
}

// Done is closed once the connection is dead.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) State() State {
	return State(c.state.Load())
}

// Dead reports whether the connection has terminated.
func (c *Conn) Dead() bool {
	return c.State() == StateDead
}

// Registered reports whether the server has welcomed us.
func (c *Conn) Registered() bool {
	return c.registered.Load()
}

// Nick returns our nickname, as confirmed by the server once registered.
func (c *Conn) Nick() string {
	c.nl.Lock()
	defer c.nl.Unlock()
	return c.nick
}

// IsMe reports whether nick is ours.
func (c *Conn) IsMe(nick string) bool {
	return strings.EqualFold(nick, c.Nick())
}

// Logger returns the logger used by the connection.
func (c *Conn) Logger() *slog.Logger {
	return c.log
}

// Pending returns the number of private messages waiting in the throttle.
func (c *Conn) Pending() int {
	return c.out.Len()
}

func (c *Conn) readLoop() {
	for !c.Dead() {
		lines, err := c.transport.ReadLines(c.params.PollInterval)
		c.in.Push(lines...)
		if errors.Is(err, io.EOF) {
			c.log.Info("server closed the connection")
			// the dispatch loop stops the connection once the last lines,
			// such as ERROR, have been handled
			c.in.Close()
			return
		}
		if err != nil {
			if !c.Dead() {
				c.log.Error("read failed", "err", err)
			}
			c.Stop()
			return
		}
	}
}

func (c *Conn) dispatchLoop() {
	defer c.Stop()

	for wait(c.done, c.in.Ready(), c.params.PollInterval) {
		// checked first: lines pushed before Close are in this drain
		closed := c.in.Closed()
		for _, line := range c.in.Drain() {
			if c.Dead() {
				return
			}
			c.handleLine(line)
		}
		if closed {
			return
		}
	}
}

func (c *Conn) throttleLoop() {
	defer c.Stop()

	for wait(c.done, c.out.Ready(), c.params.PollInterval) {
		for _, o := range c.out.Drain(time.Now()) {
			if err := c.write(o.Line()); err != nil {
				return
			}
			if o.Report != "" {
				c.report(o.Report)
			}
		}
	}
}

func (c *Conn) handleLine(line string) {
	c.log.Debug("received", "line", line)

	raw := &Event{Raw: line, Text: line}
	if c.handlers.Dispatch(c, IncomingAny, raw) == Handled {
		return
	}

	ev := Classify(line)
	name := ev.HandlerName()
	if ev.Type == EventNumeric && !c.handlers.Has(name) {
		c.log.Info("unhandled numeric", "code", ev.Numeric, "name", ev.Name, "text", ev.Text)
		return
	}
	c.handlers.Dispatch(c, name, ev)
}

// write sends a line right away.
func (c *Conn) write(line string) error {
	if err := c.alive(); err != nil {
		return err
	}
	if err := checkLine(line); err != nil {
		return err
	}

	c.log.Debug("sent", "line", line)
	if err := c.transport.WriteLine(line); err != nil {
		if !c.Dead() {
			c.log.Error("write failed", "err", err)
		}
		c.Stop()
		return fmt.Errorf("failed to write to server: %w", err)
	}
	return nil
}

func (c *Conn) report(text string) {
	if c.params.Report != nil {
		c.params.Report(text)
		return
	}
	c.log.Debug(text)
}
