package irc

import (
	"sync"
	"time"
)

// InputQueue buffers raw lines between the reader and the dispatcher.
type InputQueue struct {
	l      sync.Mutex
	lines  []string
	closed bool
	ready  chan struct{}
}

func NewInputQueue() *InputQueue {
	return &InputQueue{
		ready: make(chan struct{}, 1),
	}
}

// Push appends lines at the end of the queue.
func (q *InputQueue) Push(lines ...string) {
	if len(lines) == 0 {
		return
	}
	q.l.Lock()
	q.lines = append(q.lines, lines...)
	q.l.Unlock()
	notify(q.ready)
}

// Drain empties the queue and returns what it held, oldest first.
func (q *InputQueue) Drain() (lines []string) {
	q.l.Lock()
	lines = q.lines
	q.lines = nil
	q.l.Unlock()
	return
}

// Close tells the dispatcher no more lines will be pushed.
func (q *InputQueue) Close() {
	q.l.Lock()
	q.closed = true
	q.l.Unlock()
	notify(q.ready)
}

// Closed reports whether Close has been called.  Lines pushed before Close
// are still returned by the next Drain.
func (q *InputQueue) Closed() bool {
	q.l.Lock()
	defer q.l.Unlock()
	return q.closed
}

// Len returns the number of buffered lines.
func (q *InputQueue) Len() int {
	q.l.Lock()
	defer q.l.Unlock()
	return len(q.lines)
}

// Ready is signaled after lines have been pushed.
func (q *InputQueue) Ready() <-chan struct{} {
	return q.ready
}

func notify(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}

// wait blocks until ready is signaled, done is closed, or d elapses.  It
// returns false if done was closed.
func wait(done <-chan struct{}, ready <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return false
	case <-ready:
	case <-timer.C:
	}
	return true
}
