package irc

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		line     string
		expected Event
	}{
		{
			line:     "PING :server123",
			expected: Event{Type: EventPing, Text: "server123"},
		},
		{
			line: ":irc.example.net 001 nick :Welcome",
			expected: Event{
				Type:       EventNumeric,
				Fullname:   "irc.example.net",
				Servername: "irc.example.net",
				Target:     "nick",
				Text:       "Welcome",
				Numeric:    1,
				Name:       "welcome",
			},
		},
		{
			line: ":localhost 433 * alice :Nickname is already in use",
			expected: Event{
				Type:       EventNumeric,
				Fullname:   "localhost",
				Servername: "localhost",
				Target:     "*",
				Text:       "alice Nickname is already in use",
				Numeric:    433,
				Name:       "nicknameinuse",
			},
		},
		{
			line: ":alice!a@host PRIVMSG #chan :hi",
			expected: Event{
				Type:     EventMsg,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Target:   "#chan",
				Channel:  "#chan",
				Text:     "hi",
			},
		},
		{
			line: ":alice!a@host PRIVMSG bob :\x01VERSION\x01",
			expected: Event{
				Type:     EventCTCP,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Target:   "bob",
				Text:     "VERSION",
			},
		},
		{
			line: ":alice!a@host PRIVMSG #chan :\x01ACTION waves\x01",
			expected: Event{
				Type:     EventAct,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Target:   "#chan",
				Channel:  "#chan",
				Text:     "waves",
			},
		},
		{
			line: ":bob!b@host NOTICE alice :\x01VERSION ircchain\x01",
			expected: Event{
				Type:     EventCTCPReply,
				Fullname: "bob!b@host",
				Nick:     "bob",
				User:     "b",
				Host:     "host",
				Target:   "alice",
				Text:     "VERSION ircchain",
			},
		},
		{
			line: ":irc.example.net NOTICE * :*** Looking up your hostname",
			expected: Event{
				Type:       EventNotice,
				Fullname:   "irc.example.net",
				Servername: "irc.example.net",
				Target:     "*",
				Text:       "*** Looking up your hostname",
			},
		},
		{
			line: ":op!o@host MODE #chan +ov alice bob",
			expected: Event{
				Type:     EventMode,
				Fullname: "op!o@host",
				Nick:     "op",
				User:     "o",
				Host:     "host",
				Target:   "#chan",
				Channel:  "#chan",
				Text:     "+ov",
				Targets:  []string{"alice", "bob"},
			},
		},
		{
			line: ":op!o@host TOPIC #chan :new topic",
			expected: Event{
				Type:     EventTopicChange,
				Fullname: "op!o@host",
				Nick:     "op",
				User:     "o",
				Host:     "host",
				Channel:  "#chan",
				Text:     "new topic",
			},
		},
		{
			line: ":alice!a@host JOIN :#chan",
			expected: Event{
				Type:     EventJoin,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Channel:  "#chan",
			},
		},
		{
			line: ":alice!a@host PART #chan :bye",
			expected: Event{
				Type:     EventPart,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Channel:  "#chan",
				Text:     "bye",
			},
		},
		{
			line: ":op!o@host KICK #chan alice,bob :out",
			expected: Event{
				Type:     EventKick,
				Fullname: "op!o@host",
				Nick:     "op",
				User:     "o",
				Host:     "host",
				Channel:  "#chan",
				Target:   "alice",
				Targets:  []string{"alice", "bob"},
				Text:     "out",
			},
		},
		{
			line: ":alice!a@host QUIT :Ping timeout",
			expected: Event{
				Type:     EventQuit,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Text:     "Ping timeout",
			},
		},
		{
			line: ":alice!a@host NICK alicia",
			expected: Event{
				Type:     EventNick,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Text:     "alicia",
			},
		},
		{
			line: ":alice!a@host INVITE bob :#chan",
			expected: Event{
				Type:     EventInvite,
				Fullname: "alice!a@host",
				Nick:     "alice",
				User:     "a",
				Host:     "host",
				Target:   "bob",
				Channel:  "#chan",
			},
		},
		{
			line:     "ERROR :Closing link",
			expected: Event{Type: EventError, Text: "Closing link"},
		},
		{
			line:     ":alice!a@host CHGHOST a newhost",
			expected: Event{Type: EventMiscellany, Text: ":alice!a@host CHGHOST a newhost"},
		},
		{
			line:     "PRIVMSG #chan :no origin",
			expected: Event{Type: EventMiscellany, Text: "PRIVMSG #chan :no origin"},
		},
		{
			line:     "",
			expected: Event{Type: EventMiscellany},
		},
	}

	for _, test := range tests {
		assertEvent(t, test.line, Classify(test.line), &test.expected)
	}
}

func assertEvent(t *testing.T, line string, actual, expected *Event) {
	t.Helper()

	if actual.Type != expected.Type {
		t.Errorf("%q: expected type %s, got %s", line, expected.Type, actual.Type)
	}
	if actual.Raw != line {
		t.Errorf("%q: expected raw line to be kept, got %q", line, actual.Raw)
	}
	fields := []struct {
		name             string
		actual, expected string
	}{
		{"fullname", actual.Fullname, expected.Fullname},
		{"nick", actual.Nick, expected.Nick},
		{"user", actual.User, expected.User},
		{"host", actual.Host, expected.Host},
		{"servername", actual.Servername, expected.Servername},
		{"channel", actual.Channel, expected.Channel},
		{"target", actual.Target, expected.Target},
		{"text", actual.Text, expected.Text},
		{"name", actual.Name, expected.Name},
	}
	for _, f := range fields {
		if f.actual != f.expected {
			t.Errorf("%q: expected %s %q, got %q", line, f.name, f.expected, f.actual)
		}
	}
	if actual.Numeric != expected.Numeric {
		t.Errorf("%q: expected numeric %d, got %d", line, expected.Numeric, actual.Numeric)
	}
	if len(actual.Targets) != len(expected.Targets) {
		t.Errorf("%q: expected targets %q, got %q", line, expected.Targets, actual.Targets)
		return
	}
	for i := range actual.Targets {
		if actual.Targets[i] != expected.Targets[i] {
			t.Errorf("%q: expected targets %q, got %q", line, expected.Targets, actual.Targets)
		}
	}
}

func TestClassifyPredicates(t *testing.T) {
	ev := Classify(":alice!a@host PRIVMSG #chan :hi")
	if ev.IsPrivate() {
		t.Errorf("message to a channel reported as private")
	}
	if ev.IsFromServer() {
		t.Errorf("message from a user reported as from the server")
	}

	ev = Classify(":alice!a@host PRIVMSG bob :hi")
	if !ev.IsPrivate() {
		t.Errorf("message to a user not reported as private")
	}

	ev = Classify(":irc.example.net NOTICE * :hello")
	if !ev.IsFromServer() {
		t.Errorf("server notice not reported as from the server")
	}

	origins := []struct {
		line       string
		fromServer bool
		nick       string
		servername string
	}{
		{":localhost NOTICE * :*** Looking up your hostname", true, "", "localhost"},
		{":irc MODE alice :+i", true, "", "irc"},
		{":irc PING :irc", true, "", "irc"},
		{":localhost 001 alice :Welcome", true, "", "localhost"},
		{":alice MODE alice :+i", false, "alice", ""},
		{":alice JOIN #chan", false, "alice", ""},
		{":alice!a@host NOTICE bob :hi", false, "alice", ""},
		{":irc.example.net PRIVMSG alice :hello", true, "", "irc.example.net"},
	}
	for _, test := range origins {
		ev := Classify(test.line)
		if ev.IsFromServer() != test.fromServer {
			t.Errorf("%q: expected from server to be %t", test.line, test.fromServer)
		}
		if ev.Nick != test.nick || ev.Servername != test.servername {
			t.Errorf("%q: expected nick %q and servername %q, got %q and %q",
				test.line, test.nick, test.servername, ev.Nick, ev.Servername)
		}
	}

	reply := Classify(":localhost NOTICE alice :\x01VERSION x\x01")
	if !reply.IsFromServer() || !reply.Parent.IsFromServer() {
		t.Errorf("expected a bare origin ctcpreply and its parent to be from the server")
	}
}

func TestClassifyParents(t *testing.T) {
	act := Classify(":alice!a@host PRIVMSG #chan :\x01ACTION waves\x01")
	if act.Parent == nil || act.Parent.Type != EventCTCP {
		t.Fatalf("expected act to have a ctcp parent, got %+v", act.Parent)
	}
	if act.Parent.Text != "ACTION waves" {
		t.Errorf("expected ctcp parent text %q, got %q", "ACTION waves", act.Parent.Text)
	}
	msg := act.Parent.Parent
	if msg == nil || msg.Type != EventMsg {
		t.Fatalf("expected ctcp to have a msg parent, got %+v", msg)
	}
	if msg.Text != "\x01ACTION waves\x01" {
		t.Errorf("expected msg parent to keep the raw body, got %q", msg.Text)
	}
	if msg.Parent != nil {
		t.Errorf("expected msg to have no parent")
	}

	reply := Classify(":bob!b@host NOTICE alice :\x01PING 123\x01")
	if reply.Parent == nil || reply.Parent.Type != EventNotice {
		t.Errorf("expected ctcpreply to have a notice parent, got %+v", reply.Parent)
	}

	if ev := Classify(":irc.example.net 001 nick :Welcome"); ev.Parent != nil {
		t.Errorf("expected numeric to have no parent")
	}
}

// Formatting an event back into a line and classifying it again gives the
// same type.
func TestClassifyStable(t *testing.T) {
	lines := []string{
		"PING :server123",
		":irc.example.net 001 nick :Welcome",
		":irc.example.net 353 nick = #chan :alice @bob +carol",
		":alice!a@host INVITE bob #chan",
		":alice!a@host PRIVMSG #chan :hi",
		":alice!a@host PRIVMSG bob :\x01VERSION\x01",
		":alice!a@host PRIVMSG #chan :\x01ACTION waves\x01",
		":alice!a@host NOTICE #chan :hi",
		":alice!a@host NOTICE bob :\x01VERSION ircchain\x01",
		":op!o@host MODE #chan +ov alice bob",
		":alice MODE alice :+i",
		":op!o@host TOPIC #chan :",
		":alice!a@host JOIN #chan",
		":alice!a@host PART #chan",
		":op!o@host KICK #chan alice,bob :out",
		":alice!a@host QUIT",
		":alice!a@host NICK alicia",
		"ERROR :Closing link",
		"ERROR",
		":alice!a@host CHGHOST a newhost",
		"JOIN #no-origin",
		"",
	}

	for _, line := range lines {
		ev := Classify(line)
		again := Classify(ev.Line())
		if again.Type != ev.Type {
			t.Errorf("%q: classified as %s, but %q as %s", line, ev.Type, ev.Line(), again.Type)
		}
	}
}

func TestHandlerName(t *testing.T) {
	tests := []struct {
		line     string
		expected string
	}{
		{"PING :x", "incoming_ping"},
		{":s.net 001 n :Welcome", "incoming_numeric_1"},
		{":s.net 433 * n :in use", "incoming_numeric_433"},
		{":a!b@c PRIVMSG #c :\x01ACTION x\x01", "incoming_act"},
		{":a!b@c TOPIC #c :x", "incoming_topic_change"},
		{"FOO bar", "incoming_miscellany"},
	}
	for _, test := range tests {
		if actual := Classify(test.line).HandlerName(); actual != test.expected {
			t.Errorf("%q: expected %q, got %q", test.line, test.expected, actual)
		}
	}

	ev := &Event{Type: EventMsg, Outgoing: true}
	if actual := ev.HandlerName(); actual != "outgoing_msg" {
		t.Errorf("expected %q, got %q", "outgoing_msg", actual)
	}
}
