package irc

import (
	"testing"
	"time"
)

func TestInputQueue(t *testing.T) {
	q := NewInputQueue()
	if lines := q.Drain(); len(lines) != 0 {
		t.Errorf("expected an empty queue, got %q", lines)
	}

	q.Push()
	select {
	case <-q.Ready():
		t.Errorf("ready after pushing nothing")
	default:
	}

	q.Push("a", "b")
	q.Push("c")
	if q.Len() != 3 {
		t.Errorf("expected 3 lines, got %d", q.Len())
	}
	select {
	case <-q.Ready():
	default:
		t.Errorf("not ready after pushing")
	}

	lines := q.Drain()
	if len(lines) != 3 || lines[0] != "a" || lines[1] != "b" || lines[2] != "c" {
		t.Errorf("expected lines in arrival order, got %q", lines)
	}
	if q.Len() != 0 {
		t.Errorf("expected the queue to be empty after draining, got %d", q.Len())
	}
}

func TestWait(t *testing.T) {
	done := make(chan struct{})
	ready := make(chan struct{}, 1)

	start := time.Now()
	if !wait(done, ready, 20*time.Millisecond) {
		t.Errorf("expected wait to time out without done")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Errorf("wait returned before its deadline")
	}

	notify(ready)
	notify(ready)
	start = time.Now()
	if !wait(done, ready, time.Minute) {
		t.Errorf("expected wait to return on ready")
	}
	if time.Since(start) > time.Second {
		t.Errorf("wait ignored ready")
	}

	close(done)
	if wait(done, ready, time.Minute) {
		t.Errorf("expected wait to report done")
	}
}

func TestInputQueueClose(t *testing.T) {
	q := NewInputQueue()
	q.Push("ERROR :bye")
	q.Close()

	if !q.Closed() {
		t.Errorf("expected the queue to be closed")
	}
	if lines := q.Drain(); len(lines) != 1 || lines[0] != "ERROR :bye" {
		t.Errorf("expected lines pushed before Close to be kept, got %q", lines)
	}
}
