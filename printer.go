package ircchain

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"git.sr.ht/~taiite/ircchain/irc"
)

const defaultNickColWidth = 16

// Printer writes one line per event, nicks aligned in a column.
type Printer struct {
	w            io.Writer
	nickColWidth int

	mu sync.Mutex
}

func NewPrinter(w io.Writer, nickColWidth int) *Printer {
	if nickColWidth <= 0 {
		nickColWidth = defaultNickColWidth
	}
	return &Printer{
		w:            w,
		nickColWidth: nickColWidth,
	}
}

// Line prints "15:04 {buffer} head body", head right-aligned.  The buffer is
// left out when empty.
func (p *Printer) Line(at time.Time, buffer, head, body string) {
	var sb strings.Builder
	sb.WriteString(at.Format("15:04"))
	sb.WriteByte(' ')
	if buffer != "" {
		sb.WriteByte('{')
		sb.WriteString(buffer)
		sb.WriteString("} ")
	}
	sb.WriteString(alignRight(head, p.nickColWidth))
	sb.WriteByte(' ')
	sb.WriteString(body)
	sb.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, sb.String())
}

// Handle prints ev if it is worth printing.  It never stops the chain.
func (p *Printer) Handle(c *irc.Conn, ev *irc.Event) irc.Result {
	buffer, head, body, ok := formatEvent(c, ev)
	if ok {
		p.Line(eventTime(ev), buffer, head, body)
	}
	return irc.Continue
}

// eventTime is the server-time of ev, or now if the server did not say.
func eventTime(ev *irc.Event) time.Time {
	if s, ok := ev.Tags["time"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.Local()
		}
	}
	return time.Now()
}

// formatEvent computes the buffer the event belongs to, and the head and
// body of its line.
func formatEvent(c *irc.Conn, ev *irc.Event) (buffer, head, body string, ok bool) {
	buffer = ev.Channel
	ok = true

	switch ev.Type {
	case irc.EventNumeric:
		if ev.Numeric != 1 {
			return "", "", "", false
		}
		head = "--"
		body = "Connected to the server as " + ev.Target
	case irc.EventMsg:
		head = ev.Nick
		if c.IsMe(ev.Nick) && ev.IsPrivate() {
			head = "→ " + ev.Target
		}
		body = ev.Text
	case irc.EventAct:
		head = "*"
		body = ev.Nick + " " + ev.Text
	case irc.EventNotice:
		head = "*"
		from := ev.Nick
		if from == "" {
			from = ev.Servername
		}
		body = from + ": " + ev.Text
	case irc.EventJoin:
		head = "--"
		body = "+" + ev.Nick
	case irc.EventPart:
		head = "--"
		body = "-" + ev.Nick
		if ev.Text != "" {
			body += " (" + ev.Text + ")"
		}
	case irc.EventQuit:
		head = "--"
		body = "-" + ev.Nick
		if ev.Text != "" {
			body += " (" + ev.Text + ")"
		}
	case irc.EventKick:
		head = "--"
		body = fmt.Sprintf("%s kicked %s", ev.Nick, strings.Join(ev.Targets, ", "))
		if ev.Text != "" {
			body += " (" + ev.Text + ")"
		}
	case irc.EventNick:
		head = "--"
		body = ev.Nick + "→" + ev.Text
	case irc.EventTopicChange:
		head = "--"
		body = "Topic changed to: " + ev.Text
	case irc.EventMode:
		head = "--"
		from := ev.Nick
		if from == "" {
			from = ev.Servername
		}
		body = strings.TrimSpace(fmt.Sprintf("%s sets mode %s %s", from, ev.Text, strings.Join(ev.Targets, " ")))
	case irc.EventInvite:
		head = "--"
		body = fmt.Sprintf("%s invites %s to %s", ev.Nick, ev.Target, ev.Channel)
	case irc.EventError:
		head = "!!"
		body = "Server error: " + ev.Text
	default:
		return "", "", "", false
	}
	return
}
