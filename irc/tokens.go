package irc

import (
	"errors"
	"fmt"
	"strings"
)

func word(s string) (w, rest string) {
	split := strings.SplitN(s, " ", 2)

	if len(split) < 2 {
		w = split[0]
		rest = ""
	} else {
		w = split[0]
		rest = split[1]
	}

	return
}

func tagEscape(c rune) (escape rune) {
	switch c {
	case ':':
		escape = ';'
	case 's':
		escape = ' '
	case 'r':
		escape = '\r'
	case 'n':
		escape = '\n'
	default:
		escape = c
	}

	return
}

func unescapeTagValue(escaped string) (unescaped string) {
	var builder strings.Builder
	builder.Grow(len(escaped))
	escape := false

	for _, c := range escaped {
		if c == '\\' && !escape {
			escape = true
		} else {
			var cpp rune

			if escape {
				cpp = tagEscape(c)
			} else {
				cpp = c
			}

			builder.WriteRune(cpp)
			escape = false
		}
	}

	unescaped = builder.String()
	return
}

func parseTags(s string) (tags map[string]string) {
	s = s[1:]
	tags = map[string]string{}

	for _, item := range strings.Split(s, ";") {
		if item == "" || item == "=" || item == "+" || item == "+=" {
			continue
		}

		kv := strings.SplitN(item, "=", 2)
		if len(kv) < 2 {
			tags[kv[0]] = ""
		} else {
			tags[kv[0]] = unescapeTagValue(kv[1])
		}
	}

	return
}

var (
	errEmptyMessage      = errors.New("empty message")
	errIncompleteMessage = errors.New("message is incomplete")
)

var (
	errNoPrefix        = errors.New("missing prefix")
	errNotEnoughParams = errors.New("not enough params")
)

// ErrInvalidLine is returned when text to be sent would end the protocol
// line early.
var ErrInvalidLine = errors.New("line contains CR, LF or NUL")

// checkLine rejects s if it cannot be part of a single protocol line.
func checkLine(s string) error {
	if strings.ContainsAny(s, "\r\n\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidLine, s)
	}
	return nil
}

// Message is a tokenized protocol line.
type Message struct {
	Tags    map[string]string
	Prefix  string
	Command string
	Params  []string
}

// Tokenize splits a raw line into its tags, prefix, command and parameters.
// The trailing parameter, if any, is the last element of Params.
func Tokenize(line string) (msg Message, err error) {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimLeft(line, " ")
	if line == "" {
		err = errEmptyMessage
		return
	}

	if line[0] == '@' {
		var tags string

		tags, line = word(line)
		msg.Tags = parseTags(tags)
	}

	line = strings.TrimLeft(line, " ")
	if line == "" {
		err = errIncompleteMessage
		return
	}

	if line[0] == ':' {
		var prefix string

		prefix, line = word(line)
		msg.Prefix = prefix[1:]
	}

	line = strings.TrimLeft(line, " ")
	if line == "" {
		err = errIncompleteMessage
		return
	}

	msg.Command, line = word(line)
	msg.Command = strings.ToUpper(msg.Command)

	msg.Params = make([]string, 0, 15)
	for line != "" {
		if line[0] == ':' {
			msg.Params = append(msg.Params, line[1:])
			break
		}

		var param string
		param, line = word(line)
		if param == "" {
			// repeated spaces between parameters
			continue
		}
		msg.Params = append(msg.Params, param)
	}

	return
}

// Validate reports whether the message carries what its command requires.
// Lines that fail validation are classified as miscellany.
func (msg *Message) Validate() (err error) {
	switch msg.Command {
	case "PRIVMSG", "NOTICE", "KICK", "INVITE":
		if len(msg.Params) < 2 {
			err = errNotEnoughParams
		} else if msg.Prefix == "" {
			err = errNoPrefix
		}
	case "JOIN", "PART", "NICK":
		if len(msg.Params) < 1 {
			err = errNotEnoughParams
		} else if msg.Prefix == "" {
			err = errNoPrefix
		}
	case "TOPIC":
		if len(msg.Params) < 2 {
			err = errNotEnoughParams
		} else if msg.Prefix == "" {
			err = errNoPrefix
		}
	case "MODE":
		if len(msg.Params) < 2 {
			err = errNotEnoughParams
		}
	case "QUIT":
		if msg.Prefix == "" {
			err = errNoPrefix
		}
	case "PING":
		if len(msg.Params) < 1 {
			err = errNotEnoughParams
		}
	default:
		if isNumeric(msg.Command) && len(msg.Params) < 1 {
			err = errNotEnoughParams
		}
	}
	return
}

// String formats the message back into a protocol line, without the
// trailing CRLF.
func (msg *Message) String() string {
	var sb strings.Builder

	if len(msg.Tags) != 0 {
		sb.WriteByte('@')
		first := true
		for k, v := range msg.Tags {
			if !first {
				sb.WriteByte(';')
			}
			first = false
			sb.WriteString(k)
			if v != "" {
				sb.WriteByte('=')
				sb.WriteString(escapeTagValue(v))
			}
		}
		sb.WriteByte(' ')
	}

	if msg.Prefix != "" {
		sb.WriteByte(':')
		sb.WriteString(msg.Prefix)
		sb.WriteByte(' ')
	}

	sb.WriteString(msg.Command)

	for i, p := range msg.Params {
		sb.WriteByte(' ')
		if i == len(msg.Params)-1 && (p == "" || p[0] == ':' || strings.ContainsRune(p, ' ')) {
			sb.WriteByte(':')
		}
		sb.WriteString(p)
	}

	return sb.String()
}

func escapeTagValue(v string) string {
	return strings.NewReplacer(
		"\\", "\\\\",
		";", "\\:",
		" ", "\\s",
		"\r", "\\r",
		"\n", "\\n",
	).Replace(v)
}

// NewMessage builds a message from a command and its parameters.
func NewMessage(command string, params ...string) Message {
	return Message{Command: command, Params: params}
}

// FullMask splits a "nick!user@host" origin into its parts.
func FullMask(s string) (nick, user, host string) {
	if s == "" {
		return
	}

	spl0 := strings.SplitN(s, "@", 2)
	if 1 < len(spl0) {
		host = spl0[1]
	}

	spl1 := strings.SplitN(spl0[0], "!", 2)
	if 1 < len(spl1) {
		user = spl1[1]
	}

	nick = spl1[0]

	return
}

func isNumeric(command string) bool {
	if len(command) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if command[i] < '0' || '9' < command[i] {
			return false
		}
	}
	return true
}

// IsChannel reports whether name designates a channel rather than a user.
func IsChannel(name string) bool {
	return strings.IndexAny(name, "#&+!") == 0
}
