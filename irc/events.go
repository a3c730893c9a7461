package irc

import (
	"strconv"
	"strings"
)

// EventType is the classification of a protocol line.
type EventType int

const (
	EventMiscellany EventType = iota
	EventPing
	EventNumeric
	EventInvite
	EventMsg
	EventCTCP
	EventAct
	EventNotice
	EventCTCPReply
	EventMode
	EventTopicChange
	EventJoin
	EventPart
	EventKick
	EventQuit
	EventNick
	EventError
)

var eventTypeNames = [...]string{
	EventMiscellany:  "miscellany",
	EventPing:        "ping",
	EventNumeric:     "numeric",
	EventInvite:      "invite",
	EventMsg:         "msg",
	EventCTCP:        "ctcp",
	EventAct:         "act",
	EventNotice:      "notice",
	EventCTCPReply:   "ctcpreply",
	EventMode:        "mode",
	EventTopicChange: "topic_change",
	EventJoin:        "join",
	EventPart:        "part",
	EventKick:        "kick",
	EventQuit:        "quit",
	EventNick:        "nick",
	EventError:       "error",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventTypeNames) {
		return "EventType(" + strconv.Itoa(int(t)) + ")"
	}
	return eventTypeNames[t]
}

// Event is a classified protocol line, incoming or outgoing.
//
// Which fields are set depends on Type:
//
//	ping                 Text
//	numeric              Servername, Target, Params, Text, Numeric, Name
//	invite               Nick, Target, Channel
//	msg ctcp act         Nick, Target, Channel (when Target is one), Text
//	notice ctcpreply     Nick or Servername, Target, Channel, Text
//	mode                 Nick or Servername, Target, Channel, Text, Targets
//	topic_change         Nick, Channel, Text
//	join                 Nick, Channel
//	part                 Nick, Channel, Text
//	kick                 Nick, Channel, Target, Targets, Text
//	quit                 Nick, Text
//	nick                 Nick, Text (the new nickname)
//	error                Text
//	miscellany           Text (the whole line)
//
// Fullname, User and Host are set whenever the line has a "nick!user@host"
// origin.  An origin with no user nor host part is a server (Servername is
// set instead of Nick), except for commands only users send, where it is a
// nickname unless it contains a dot.  Raw always holds the line as received.
type Event struct {
	Type   EventType
	Parent *Event // more general classification, e.g. msg for an act.

	Raw      string
	Tags     map[string]string
	Outgoing bool

	Fullname   string
	Nick       string
	User       string
	Host       string
	Servername string

	Channel string
	Target  string
	Targets []string
	Text    string

	Numeric int
	Name    string   // symbolic name of the numeric, "" if unknown.
	Params  []string // numeric parameters following Target.
}

// IsPrivate reports whether the event is addressed to a user rather than a
// channel.
func (e *Event) IsPrivate() bool {
	return e.Target != "" && !IsChannel(e.Target)
}

// IsFromServer reports whether the line originates from a server rather than
// a user.
func (e *Event) IsFromServer() bool {
	return e.Servername != ""
}

// HandlerName is the registry key of the handler chain for the event.
func (e *Event) HandlerName() string {
	dir := "incoming_"
	if e.Outgoing {
		dir = "outgoing_"
	}
	if e.Type == EventNumeric {
		return dir + "numeric_" + strconv.Itoa(e.Numeric)
	}
	return dir + e.Type.String()
}

const ctcpDelim = "\x01"

func isCTCP(text string) bool {
	return len(text) >= 2 && strings.HasPrefix(text, ctcpDelim)
}

func unwrapCTCP(text string) string {
	text = strings.TrimPrefix(text, ctcpDelim)
	return strings.TrimSuffix(text, ctcpDelim)
}

func wrapCTCP(text string) string {
	return ctcpDelim + text + ctcpDelim
}

// Classify parses one raw protocol line into an Event.  It does not touch any
// shared state besides the read-only numeric table.
func Classify(line string) *Event {
	line = strings.TrimRight(line, "\r\n")

	msg, err := Tokenize(line)
	if err == nil {
		err = msg.Validate()
	}
	if err != nil {
		return miscellany(line)
	}

	ev := &Event{
		Raw:  line,
		Tags: msg.Tags,
	}
	setOrigin(ev, msg.Prefix)

	last := ""
	if len(msg.Params) > 0 {
		last = msg.Params[len(msg.Params)-1]
	}

	switch msg.Command {
	case "PING":
		ev.Type = EventPing
		ev.Text = last
	case "PRIVMSG":
		ev.Type = EventMsg
		setTarget(ev, msg.Params[0])
		ev.Text = msg.Params[1]
		if isCTCP(ev.Text) {
			ev = narrowCTCP(ev, EventCTCP)
		}
	case "NOTICE":
		ev.Type = EventNotice
		setTarget(ev, msg.Params[0])
		ev.Text = msg.Params[1]
		if isCTCP(ev.Text) {
			ev = narrowCTCP(ev, EventCTCPReply)
		}
	case "INVITE":
		ev.Type = EventInvite
		ev.Target = msg.Params[0]
		ev.Channel = msg.Params[1]
	case "MODE":
		ev.Type = EventMode
		setTarget(ev, msg.Params[0])
		ev.Text = msg.Params[1]
		if len(msg.Params) > 2 {
			ev.Targets = append([]string(nil), msg.Params[2:]...)
		}
	case "TOPIC":
		ev.Type = EventTopicChange
		ev.Channel = msg.Params[0]
		ev.Text = msg.Params[1]
	case "JOIN":
		ev.Type = EventJoin
		ev.Channel = msg.Params[0]
	case "PART":
		ev.Type = EventPart
		ev.Channel = msg.Params[0]
		if len(msg.Params) > 1 {
			ev.Text = last
		}
	case "KICK":
		ev.Type = EventKick
		ev.Channel = msg.Params[0]
		ev.Targets = strings.Split(msg.Params[1], ",")
		ev.Target = ev.Targets[0]
		if len(msg.Params) > 2 {
			ev.Text = last
		}
	case "QUIT":
		ev.Type = EventQuit
		ev.Text = last
	case "NICK":
		ev.Type = EventNick
		ev.Text = msg.Params[0]
	case "ERROR":
		ev.Type = EventError
		ev.Text = last
	default:
		if !isNumeric(msg.Command) {
			return miscellany(line)
		}
		ev.Type = EventNumeric
		ev.Numeric, _ = strconv.Atoi(msg.Command)
		ev.Name, _ = NumericName(ev.Numeric)
		ev.Target = msg.Params[0]
		ev.Params = append([]string(nil), msg.Params[1:]...)
		ev.Text = strings.Join(ev.Params, " ")
	}

	for e := ev; e != nil; e = e.Parent {
		if e.Nick != "" && e.User == "" && e.Host == "" && bareOriginIsServer(e) {
			e.Servername, e.Nick = e.Nick, ""
		}
	}

	return ev
}

// bareOriginIsServer reports whether an origin with no user nor host part is
// a server, dotted name or not.  Commands only users send keep it as a nick.
func bareOriginIsServer(ev *Event) bool {
	switch ev.Type {
	case EventMsg, EventCTCP, EventAct, EventInvite, EventTopicChange,
		EventJoin, EventPart, EventKick, EventQuit, EventNick:
		return false
	case EventMode:
		// users may only change their own modes
		return !strings.EqualFold(ev.Nick, ev.Target)
	}
	return true
}

func miscellany(line string) *Event {
	return &Event{
		Type: EventMiscellany,
		Raw:  line,
		Text: line,
	}
}

func setOrigin(ev *Event, prefix string) {
	if prefix == "" {
		return
	}
	ev.Fullname = prefix
	nick, user, host := FullMask(prefix)
	if user == "" && host == "" && strings.ContainsRune(nick, '.') {
		ev.Servername = nick
		return
	}
	ev.Nick, ev.User, ev.Host = nick, user, host
}

func setTarget(ev *Event, target string) {
	ev.Target = target
	if IsChannel(target) {
		ev.Channel = target
	}
}

// narrowCTCP reduces a msg or notice carrying a CTCP payload to its more
// specific type.  The field layout stays the same; Text loses the delimiters
// and, for actions, the ACTION verb.
func narrowCTCP(parent *Event, typ EventType) *Event {
	ev := *parent
	ev.Parent = parent
	ev.Type = typ
	ev.Text = unwrapCTCP(parent.Text)

	if typ == EventCTCP {
		verb, rest := word(ev.Text)
		if strings.EqualFold(verb, "ACTION") {
			ctcp := ev
			act := ev
			act.Parent = &ctcp
			act.Type = EventAct
			act.Text = rest
			return &act
		}
	}
	return &ev
}

// Message formats the event back into protocol form.
func (e *Event) Message() Message {
	msg := Message{
		Tags:   e.Tags,
		Prefix: e.Fullname,
	}
	if msg.Prefix == "" {
		msg.Prefix = e.Servername
	}

	switch e.Type {
	case EventPing:
		msg.Command = "PING"
		msg.Params = []string{e.Text}
	case EventNumeric:
		msg.Command = padNumeric(e.Numeric)
		msg.Params = []string{e.Target}
		if e.Text != "" {
			msg.Params = append(msg.Params, e.Text)
		}
	case EventInvite:
		msg.Command = "INVITE"
		msg.Params = []string{e.Target, e.Channel}
	case EventMsg:
		msg.Command = "PRIVMSG"
		msg.Params = []string{e.Target, e.Text}
	case EventCTCP:
		msg.Command = "PRIVMSG"
		msg.Params = []string{e.Target, wrapCTCP(e.Text)}
	case EventAct:
		msg.Command = "PRIVMSG"
		msg.Params = []string{e.Target, wrapCTCP("ACTION " + e.Text)}
	case EventNotice:
		msg.Command = "NOTICE"
		msg.Params = []string{e.Target, e.Text}
	case EventCTCPReply:
		msg.Command = "NOTICE"
		msg.Params = []string{e.Target, wrapCTCP(e.Text)}
	case EventMode:
		msg.Command = "MODE"
		msg.Params = append([]string{e.Target, e.Text}, e.Targets...)
	case EventTopicChange:
		msg.Command = "TOPIC"
		msg.Params = []string{e.Channel, e.Text}
	case EventJoin:
		msg.Command = "JOIN"
		msg.Params = []string{e.Channel}
	case EventPart:
		msg.Command = "PART"
		msg.Params = []string{e.Channel}
		if e.Text != "" {
			msg.Params = append(msg.Params, e.Text)
		}
	case EventKick:
		msg.Command = "KICK"
		msg.Params = []string{e.Channel, strings.Join(e.Targets, ",")}
		if e.Text != "" {
			msg.Params = append(msg.Params, e.Text)
		}
	case EventQuit:
		msg.Command = "QUIT"
		if e.Text != "" {
			msg.Params = []string{e.Text}
		}
	case EventNick:
		msg.Command = "NICK"
		msg.Params = []string{e.Text}
	case EventError:
		msg.Command = "ERROR"
		msg.Params = []string{e.Text}
	default:
		m, _ := Tokenize(e.Text)
		return m
	}

	return msg
}

// Line formats the event back into a protocol line.
func (e *Event) Line() string {
	msg := e.Message()
	return msg.String()
}

func padNumeric(code int) string {
	s := strconv.Itoa(code)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
