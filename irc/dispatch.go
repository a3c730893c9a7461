package irc

import (
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
)

// Result tells the dispatcher whether to keep running the chain.
type Result int

const (
	// Continue lets the next handler of the chain run.
	Continue Result = iota
	// Handled stops the chain.
	Handled
)

// Handler reacts to an event.
//
// Handlers run synchronously on the goroutine that dispatched the event:
// the dispatch loop for incoming events, the caller of the outgoing helper
// for outgoing ones.  A handler that blocks stalls that goroutine.
type Handler interface {
	Handle(c *Conn, ev *Event) Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(c *Conn, ev *Event) Result

func (f HandlerFunc) Handle(c *Conn, ev *Event) Result {
	return f(c, ev)
}

// Names of the events that are not tied to a protocol line.
const (
	// IncomingAny runs for every incoming line before it is classified.
	// Its handlers receive an event with only Raw and Text set.
	IncomingAny = "incoming_any"

	// OutgoingBeginConnection runs once the connection is up, to send the
	// registration lines.
	OutgoingBeginConnection = "outgoing_begin_connection"
)

// ErrRunning is returned when registering a handler after the connection
// has been started.
var ErrRunning = errors.New("cannot register handlers on a started connection")

// Dispatcher maps event names to handler chains.
//
// Chains are only mutated before Freeze is called.  After that they are read
// concurrently without locking.
type Dispatcher struct {
	chains map[string][]Handler
	frozen atomic.Bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		chains: map[string][]Handler{},
	}
}

// NormalizeName rewrites the symbolic name of an incoming numeric event into
// its code form, so that "incoming_welcome" and "incoming_numeric_001" both
// become "incoming_numeric_1".  Other names are only lowercased.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	for _, dir := range []string{"incoming_", "outgoing_"} {
		if !strings.HasPrefix(name, dir) {
			continue
		}
		word := name[len(dir):]
		if code, ok := strings.CutPrefix(word, "numeric_"); ok {
			if n, err := strconv.Atoi(code); err == nil {
				return dir + "numeric_" + strconv.Itoa(n)
			}
			return name
		}
		// outgoing chains are named after helpers, e.g. outgoing_topic
		if dir != "incoming_" {
			return name
		}
		if code, ok := NumericCode(word); ok {
			return dir + "numeric_" + strconv.Itoa(code)
		}
	}
	return name
}

// Register adds h to the chain of the named event, in front of the handlers
// already there when atFront is set, behind them otherwise.
func (d *Dispatcher) Register(name string, h Handler, atFront bool) error {
	if d.frozen.Load() {
		return ErrRunning
	}
	name = NormalizeName(name)
	chain := d.chains[name]
	if atFront {
		chain = append([]Handler{h}, chain...)
	} else {
		chain = append(chain, h)
	}
	d.chains[name] = chain
	return nil
}

// Freeze forbids further registrations.
func (d *Dispatcher) Freeze() {
	d.frozen.Store(true)
}

// Frozen reports whether registrations are forbidden.
func (d *Dispatcher) Frozen() bool {
	return d.frozen.Load()
}

// Has reports whether the named event has at least one handler.
func (d *Dispatcher) Has(name string) bool {
	return len(d.chains[NormalizeName(name)]) != 0
}

// Dispatch runs the chain of the named event until a handler returns
// Handled.  A missing or exhausted chain returns Continue.
func (d *Dispatcher) Dispatch(c *Conn, name string, ev *Event) Result {
	for _, h := range d.chains[NormalizeName(name)] {
		if h.Handle(c, ev) == Handled {
			return Handled
		}
	}
	return Continue
}
