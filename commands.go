package ircchain

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"git.sr.ht/~taiite/ircchain/irc"
)

// ErrQuit is returned by Input.Handle once the user asked to quit.
var ErrQuit = errors.New("quit requested")

type command struct {
	MinArgs int
	MaxArgs int
	Usage   string
	Desc    string
	Handle  func(in *Input, args []string) error
}

type commandSet map[string]*command

var commands commandSet

func init() {
	commands = commandSet{
		"HELP": {
			MaxArgs: 1,
			Usage:   "[command]",
			Desc:    "show the list of commands, or how to use the given one",
			Handle:  commandDoHelp,
		},
		"JOIN": {
			MinArgs: 1,
			MaxArgs: 2,
			Usage:   "<channels> [keys]",
			Desc:    "join a channel",
			Handle:  commandDoJoin,
		},
		"ME": {
			MinArgs: 1,
			MaxArgs: 1,
			Usage:   "<message>",
			Desc:    "send an action to the current target",
			Handle:  commandDoMe,
		},
		"MSG": {
			MinArgs: 2,
			MaxArgs: 2,
			Usage:   "<target> <message>",
			Desc:    "send a message to the given target",
			Handle:  commandDoMsg,
		},
		"NOTICE": {
			MinArgs: 2,
			MaxArgs: 2,
			Usage:   "<target> <message>",
			Desc:    "send a notice to the given target",
			Handle:  commandDoNotice,
		},
		"CTCP": {
			MinArgs: 2,
			MaxArgs: 2,
			Usage:   "<target> <query>",
			Desc:    "send a CTCP query, e.g. VERSION",
			Handle:  commandDoCTCP,
		},
		"NAMES": {
			MaxArgs: 1,
			Usage:   "[channel]",
			Desc:    "ask for the member list of a channel",
			Handle:  commandDoNames,
		},
		"NICK": {
			MinArgs: 1,
			MaxArgs: 1,
			Usage:   "<nickname>",
			Desc:    "change your nickname",
			Handle:  commandDoNick,
		},
		"MODE": {
			MinArgs: 1,
			MaxArgs: 5, // <channel> <flags> <limit> <user> <ban mask>
			Usage:   "<nick/channel> [flags] [args]",
			Desc:    "show or change channel or user modes",
			Handle:  commandDoMode,
		},
		"PART": {
			MaxArgs: 2,
			Usage:   "[channel] [reason]",
			Desc:    "part a channel",
			Handle:  commandDoPart,
		},
		"QUERY": {
			MaxArgs: 1,
			Usage:   "[target]",
			Desc:    "send plain lines to target, or as raw data without one",
			Handle:  commandDoQuery,
		},
		"QUIT": {
			MaxArgs: 1,
			Usage:   "[reason]",
			Desc:    "quit the server",
			Handle:  commandDoQuit,
		},
		"QUOTE": {
			MinArgs: 1,
			MaxArgs: 1,
			Usage:   "<raw message>",
			Desc:    "send raw protocol data",
			Handle:  commandDoQuote,
		},
		"TOPIC": {
			MaxArgs: 2,
			Usage:   "[channel] [topic]",
			Desc:    "show or set the topic of a channel",
			Handle:  commandDoTopic,
		},
	}
}

// Input turns lines typed by the user into protocol commands.
//
// Lines starting with a slash are commands, see HELP.  Other lines are sent
// as messages to the current target, or verbatim when there is none.  Start
// a line with two slashes to send one beginning with a slash.
type Input struct {
	conn *irc.Conn
	out  io.Writer

	mu     sync.Mutex
	target string
}

func NewInput(conn *irc.Conn, out io.Writer) *Input {
	return &Input{conn: conn, out: out}
}

// Target returns where plain lines are sent, "" meaning as raw data.
func (in *Input) Target() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.target
}

func (in *Input) setTarget(target string) {
	in.mu.Lock()
	in.target = target
	in.mu.Unlock()
}

func (in *Input) printf(format string, args ...interface{}) {
	fmt.Fprintf(in.out, format+"\n", args...)
}

func noCommand(in *Input, content string) error {
	target := in.Target()
	if target == "" {
		return in.conn.SendRaw(content)
	}
	return in.conn.PrivMsg(target, content)
}

// targetOr returns the first argument if there is one, the current target
// otherwise.
func (in *Input) targetOr(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if target := in.Target(); target != "" {
		return target, nil
	}
	return "", fmt.Errorf("no target, use QUERY first")
}

func commandDoHelp(in *Input, args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(args) == 0 {
		in.printf("Available commands:")
		for _, name := range names {
			cmd := commands[name]
			in.printf("  %s %s", name, cmd.Usage)
			in.printf("    %s", cmd.Desc)
		}
		return nil
	}

	search := strings.ToUpper(args[0])
	found := false
	in.printf("Commands that match %q:", search)
	for _, name := range names {
		if !strings.Contains(name, search) {
			continue
		}
		cmd := commands[name]
		in.printf("  %s %s", name, cmd.Usage)
		in.printf("    %s", cmd.Desc)
		found = true
	}
	if !found {
		in.printf("  no command matches %q", args[0])
	}
	return nil
}

func commandDoJoin(in *Input, args []string) error {
	key := ""
	if len(args) == 2 {
		key = args[1]
	}
	return in.conn.Join(args[0], key)
}

func commandDoMe(in *Input, args []string) error {
	target := in.Target()
	if target == "" {
		return fmt.Errorf("no target, use QUERY first")
	}
	return in.conn.Act(target, args[0])
}

func commandDoMsg(in *Input, args []string) error {
	return in.conn.PrivMsg(args[0], args[1])
}

func commandDoNotice(in *Input, args []string) error {
	return in.conn.Notice(args[0], args[1])
}

func commandDoCTCP(in *Input, args []string) error {
	return in.conn.CTCP(args[0], strings.ToUpper(args[1]))
}

func commandDoNames(in *Input, args []string) error {
	channel := in.Target()
	if len(args) > 0 {
		channel = args[0]
	}
	if !irc.IsChannel(channel) {
		channel = ""
	}
	return in.conn.Names(channel)
}

func commandDoNick(in *Input, args []string) error {
	nick := args[0]
	if i := strings.IndexAny(nick, " :@!*?"); i >= 0 {
		return fmt.Errorf("illegal char %q in nickname", nick[i])
	}
	return in.conn.ChangeNick(nick)
}

func commandDoMode(in *Input, args []string) error {
	flags := ""
	if len(args) > 1 {
		flags = args[1]
	}
	var modeArgs []string
	if len(args) > 2 {
		modeArgs = args[2:]
	}
	return in.conn.ChangeMode(args[0], flags, modeArgs...)
}

func commandDoPart(in *Input, args []string) error {
	channel := in.Target()
	reason := ""
	if 0 < len(args) {
		if irc.IsChannel(args[0]) {
			channel = args[0]
			if 1 < len(args) {
				reason = args[1]
			}
		} else {
			reason = strings.Join(args, " ")
		}
	}
	if !irc.IsChannel(channel) {
		return fmt.Errorf("not in a channel")
	}
	if channel == in.Target() {
		in.setTarget("")
	}
	return in.conn.Part(channel, reason)
}

func commandDoQuery(in *Input, args []string) error {
	if len(args) == 0 {
		in.setTarget("")
		in.printf("Sending raw data")
		return nil
	}
	in.setTarget(args[0])
	in.printf("Sending messages to %s", args[0])
	return nil
}

func commandDoQuit(in *Input, args []string) error {
	reason := ""
	if 0 < len(args) {
		reason = args[0]
	}
	if err := in.conn.Quit(reason); err != nil {
		return err
	}
	return ErrQuit
}

func commandDoQuote(in *Input, args []string) error {
	return in.conn.SendRaw(args[0])
}

func commandDoTopic(in *Input, args []string) error {
	channel := in.Target()
	if len(args) > 0 && irc.IsChannel(args[0]) {
		channel = args[0]
		args = args[1:]
	} else if len(args) == 2 {
		// the topic was split on its first space
		args = []string{args[0] + " " + args[1]}
	}
	if !irc.IsChannel(channel) {
		return fmt.Errorf("not in a channel")
	}
	if len(args) == 0 {
		return in.conn.Topic(channel)
	}
	return in.conn.ChangeTopic(channel, args[0])
}

// implemented from https://golang.org/src/strings/strings.go?s=8055:8085#L310
func fieldsN(s string, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" || n == 0 {
		return nil
	}
	if n == 1 {
		return []string{s}
	}
	n--
	var a []string
	na := 0
	fieldStart := 0
	i := 0
	// Skip spaces in front of the input.
	for i < len(s) && s[i] == ' ' {
		i++
	}
	fieldStart = i
	for i < len(s) {
		if s[i] != ' ' {
			i++
			continue
		}
		a = append(a, s[fieldStart:i])
		na++
		i++
		// Skip spaces in between fields.
		for i < len(s) && s[i] == ' ' {
			i++
		}
		fieldStart = i
		if n <= na {
			a = append(a, s[fieldStart:])
			return a
		}
	}
	if fieldStart < len(s) {
		// Last field ends at EOF.
		a = append(a, s[fieldStart:])
	}
	return a
}

func parseCommand(s string) (command, args string, isCommand bool) {
	if s[0] != '/' {
		return "", s, false
	}
	if len(s) > 1 && s[1] == '/' {
		// Input starts with two slashes.
		return "", s[1:], false
	}

	i := strings.IndexByte(s, ' ')
	if i < 0 {
		i = len(s)
	}

	isCommand = true
	command = strings.ToUpper(s[1:i])
	args = strings.TrimLeft(s[i:], " ")
	return
}

// Handle runs one line of input.  Commands may be abbreviated as long as the
// prefix is not ambiguous.
func (in *Input) Handle(content string) error {
	if content == "" {
		return nil
	}

	cmdName, rawArgs, isCommand := parseCommand(content)
	if !isCommand {
		return noCommand(in, rawArgs)
	}
	if cmdName == "" {
		return fmt.Errorf("lone slash at the begining")
	}

	var chosenCMDName string
	var found bool
	if _, ok := commands[cmdName]; ok {
		chosenCMDName, found = cmdName, true
	} else {
		for key := range commands {
			if !strings.HasPrefix(key, cmdName) {
				continue
			}
			if found {
				return fmt.Errorf("ambiguous command %q (could mean %v or %v)", cmdName, chosenCMDName, key)
			}
			chosenCMDName = key
			found = true
		}
	}
	if !found {
		return fmt.Errorf("command %q doesn't exist", cmdName)
	}

	cmd := commands[chosenCMDName]

	var args []string
	if rawArgs != "" && cmd.MaxArgs != 0 {
		args = fieldsN(rawArgs, cmd.MaxArgs)
	}

	if len(args) < cmd.MinArgs {
		return fmt.Errorf("usage: %s %s", chosenCMDName, cmd.Usage)
	}

	return cmd.Handle(in, args)
}
