package ircchain

import (
	"errors"
	"strings"
	"testing"
)

func TestFieldsN(t *testing.T) {
	tests := []struct {
		s        string
		n        int
		expected []string
	}{
		{"", 2, nil},
		{"a b c", 0, nil},
		{"  a b c  ", 1, []string{"a b c"}},
		{"a b c", 2, []string{"a", "b c"}},
		{"a  b   c", 3, []string{"a", "b", "c"}},
		{"a b", 5, []string{"a", "b"}},
	}
	for _, test := range tests {
		actual := fieldsN(test.s, test.n)
		if strings.Join(actual, "|") != strings.Join(test.expected, "|") || len(actual) != len(test.expected) {
			t.Errorf("fieldsN(%q, %d): expected %q, got %q", test.s, test.n, test.expected, actual)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		s         string
		command   string
		args      string
		isCommand bool
	}{
		{"hello", "", "hello", false},
		{"//slash", "", "/slash", false},
		{"/join #c", "JOIN", "#c", true},
		{"/msg   bob hi there", "MSG", "bob hi there", true},
		{"/quit", "QUIT", "", true},
		{"/", "", "", true},
	}
	for _, test := range tests {
		command, args, isCommand := parseCommand(test.s)
		if command != test.command || args != test.args || isCommand != test.isCommand {
			t.Errorf("%q: expected (%q, %q, %v), got (%q, %q, %v)",
				test.s, test.command, test.args, test.isCommand, command, args, isCommand)
		}
	}
}

func TestInputErrors(t *testing.T) {
	cfg := Config{
		Address:   "irc.example.net",
		Nicknames: []string{"alice"},
	}
	app, _, _, _ := startApp(t, cfg)
	in := NewInput(app.Conn(), &syncBuffer{})

	for _, line := range []string{
		"/",
		"/nope",
		"/n bob",
		"/msg bob",
		"/me waves",
		"/nick bad:nick",
		"/part",
		"/topic",
	} {
		if err := in.Handle(line); err == nil {
			t.Errorf("%q: expected an error", line)
		}
	}
}

func TestInputCommands(t *testing.T) {
	cfg := Config{
		Address:   "irc.example.net",
		Nicknames: []string{"alice"},
	}
	app, s, _, _ := startApp(t, cfg)
	out := &syncBuffer{}
	in := NewInput(app.Conn(), out)

	tests := []struct {
		input    string
		expected string
	}{
		{"PING :raw", "PING :raw"},
		{"/quote WHO #chan", "WHO #chan"},
		{"/j #chan", "JOIN #chan"},
		{"/join #secret key", "JOIN #secret key"},
		{"/msg bob hi there", "PRIVMSG bob :hi there"},
		{"/notice bob psst", "NOTICE bob :psst"},
		{"/ctcp bob version", "PRIVMSG bob :\x01VERSION\x01"},
		{"/nick alicia", "NICK alicia"},
		{"/mode #chan +o bob", "MODE #chan +o bob"},
		{"/mode #chan", "MODE #chan"},
		{"/names #chan", "NAMES #chan"},
		{"/topic #chan a new topic", "TOPIC #chan :a new topic"},
		{"/topic #chan", "TOPIC #chan"},
		{"/query #chan", ""},
		{"hello everyone", "PRIVMSG #chan :hello everyone"},
		{"//slash", "PRIVMSG #chan :/slash"},
		{"/me waves", "PRIVMSG #chan :\x01ACTION waves\x01"},
		{"/topic fresh topic", "TOPIC #chan :fresh topic"},
		{"/names", "NAMES #chan"},
		{"/part see you", "PART #chan :see you"},
		{"WHOIS bob", "WHOIS bob"},
		{"/part #other", "PART #other"},
	}
	for _, test := range tests {
		if err := in.Handle(test.input); err != nil {
			t.Fatalf("%q: unexpected error: %v", test.input, err)
		}
		if test.expected != "" {
			s.expect(t, test.expected)
		}
	}

	waitForOutput(t, out, "Sending messages to #chan")
	if target := in.Target(); target != "" {
		t.Errorf("expected parting the current channel to clear the target, got %q", target)
	}

	if err := in.Handle("/quit later"); !errors.Is(err, ErrQuit) {
		t.Errorf("expected ErrQuit, got %v", err)
	}
	s.expect(t, "QUIT :later")
}

func TestInputHelp(t *testing.T) {
	cfg := Config{
		Address:   "irc.example.net",
		Nicknames: []string{"alice"},
	}
	app, _, _, _ := startApp(t, cfg)
	out := &syncBuffer{}
	in := NewInput(app.Conn(), out)

	if err := in.Handle("/help"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name := range commands {
		if !strings.Contains(out.String(), "  "+name+" ") {
			t.Errorf("expected help to list %s", name)
		}
	}

	if err := in.Handle("/help zzz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForOutput(t, out, `no command matches "zzz"`)
}
