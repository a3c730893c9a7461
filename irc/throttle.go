package irc

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Outgoing is a private message waiting to be sent.
type Outgoing struct {
	Target string
	Body   string
	Report string // reported once sent, unless empty.
}

// Line is the PRIVMSG line that sends the message.
func (o Outgoing) Line() string {
	return "PRIVMSG " + o.Target + " :" + o.Body
}

// OutputThrottle holds private messages per target and releases them at a
// bounded pace: each drain pops at most one message per target, and drains
// happen at most once per interval.
//
// There is no ordering between targets.
type OutputThrottle struct {
	l      sync.Mutex
	queues map[string][]Outgoing
	limit  *rate.Limiter
	ready  chan struct{}
}

// NewOutputThrottle returns a throttle that drains at most once per interval.
// A zero interval disables throttling.
func NewOutputThrottle(interval time.Duration) *OutputThrottle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &OutputThrottle{
		queues: map[string][]Outgoing{},
		// A burst of one: idle time never lets more than one drain through.
		limit: rate.NewLimiter(limit, 1),
		ready: make(chan struct{}, 1),
	}
}

// Enqueue adds a message at the end of target's queue.  It fails if the
// message would not fit on one line.
func (t *OutputThrottle) Enqueue(target, body, report string) error {
	o := Outgoing{Target: target, Body: body}
	if err := checkLine(o.Line()); err != nil {
		return err
	}

	t.l.Lock()
	t.queues[target] = append(t.queues[target], Outgoing{
		Target: target,
		Body:   body,
		Report: report,
	})
	t.l.Unlock()
	notify(t.ready)
	return nil
}

// Len returns the number of pending messages, all targets included.
func (t *OutputThrottle) Len() (n int) {
	t.l.Lock()
	defer t.l.Unlock()
	for _, q := range t.queues {
		n += len(q)
	}
	return
}

// Pending returns the number of messages waiting for target.
func (t *OutputThrottle) Pending(target string) int {
	t.l.Lock()
	defer t.l.Unlock()
	return len(t.queues[target])
}

// Drain pops the head of every target's queue if a drain is due at now.  It
// returns nil when nothing is pending or the last drain is too recent.
func (t *OutputThrottle) Drain(now time.Time) (out []Outgoing) {
	t.l.Lock()
	defer t.l.Unlock()

	if len(t.queues) == 0 || !t.limit.AllowN(now, 1) {
		return nil
	}

	out = make([]Outgoing, 0, len(t.queues))
	for target, q := range t.queues {
		out = append(out, q[0])
		if len(q) == 1 {
			delete(t.queues, target)
		} else {
			t.queues[target] = q[1:]
		}
	}
	return out
}

// Ready is signaled after a message has been enqueued.
func (t *OutputThrottle) Ready() <-chan struct{} {
	return t.ready
}
