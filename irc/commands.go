package irc

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const linelen = 512

// filter runs the outgoing chain of a command.  It reports whether the
// command should still be sent.
func (c *Conn) filter(name string, ev *Event) bool {
	ev.Outgoing = true
	return c.handlers.Dispatch(c, name, ev) != Handled
}

// alive returns the error outgoing helpers report when nothing can be sent.
func (c *Conn) alive() error {
	switch c.State() {
	case StateIdle, StateConnecting:
		return ErrNotStarted
	case StateDead:
		return ErrDead
	}
	return nil
}

// line formats a command whose last parameter is free text.
func line(command, text string, params ...string) string {
	var sb strings.Builder
	sb.WriteString(command)
	for _, p := range params {
		sb.WriteByte(' ')
		sb.WriteString(p)
	}
	sb.WriteString(" :")
	sb.WriteString(text)
	return sb.String()
}

func splitChunks(s string, chunkLen int) (chunks []string) {
	if chunkLen <= 0 {
		return []string{s}
	}
	for chunkLen < len(s) {
		i := chunkLen
		min := chunkLen - utf8.UTFMax
		for min <= i && !utf8.RuneStart(s[i]) {
			i--
		}
		chunks = append(chunks, s[:i])
		s = s[i:]
	}
	if len(s) != 0 {
		chunks = append(chunks, s)
	}
	return
}

// maxBodyLen is how long a PRIVMSG body to target can be once the server
// has prefixed it with our full mask.
func (c *Conn) maxBodyLen(target string) int {
	return linelen -
		len(":!@ PRIVMSG  :\r\n") -
		len(c.Nick()) -
		len(c.params.Username) -
		len("255.255.255.255") -
		len(target)
}

func (c *Conn) enqueue(target, body string) error {
	report := fmt.Sprintf("{%s} <%s> %s", target, c.Nick(), body)
	return c.out.Enqueue(target, body, report)
}

// PrivMsg queues a message to target.  Messages too long for one line are
// split.  Private messages are throttled, see Params.ThrottleInterval.
func (c *Conn) PrivMsg(target, text string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventMsg, Nick: c.Nick(), Text: text}
	setTarget(ev, target)
	// checked whole so that no chunk is sent when one is invalid
	if err := checkLine(target + " " + text); err != nil {
		return err
	}
	if !c.filter("outgoing_msg", ev) {
		return nil
	}
	for _, chunk := range splitChunks(text, c.maxBodyLen(target)) {
		if err := c.enqueue(target, chunk); err != nil {
			return err
		}
	}
	return nil
}

// Act queues a CTCP ACTION ("/me") to target.
func (c *Conn) Act(target, text string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventAct, Nick: c.Nick(), Text: text}
	setTarget(ev, target)
	if !c.filter("outgoing_act", ev) {
		return nil
	}
	return c.enqueue(target, wrapCTCP("ACTION "+text))
}

// CTCP queues a CTCP query, such as "VERSION", to target.
func (c *Conn) CTCP(target, text string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventCTCP, Nick: c.Nick(), Text: text}
	setTarget(ev, target)
	if !c.filter("outgoing_ctcp", ev) {
		return nil
	}
	return c.enqueue(target, wrapCTCP(text))
}

// CTCPReply answers a CTCP query from target.
func (c *Conn) CTCPReply(target, text string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventCTCPReply, Nick: c.Nick(), Text: text}
	setTarget(ev, target)
	if !c.filter("outgoing_ctcpreply", ev) {
		return nil
	}
	return c.write(line("NOTICE", wrapCTCP(text), target))
}

func (c *Conn) Notice(target, text string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventNotice, Nick: c.Nick(), Text: text}
	setTarget(ev, target)
	if !c.filter("outgoing_notice", ev) {
		return nil
	}
	return c.write(line("NOTICE", text, target))
}

// ChangeMode sets modes on a channel or user.  Empty flags query the current
// modes instead.
func (c *Conn) ChangeMode(target, flags string, args ...string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventMode, Nick: c.Nick(), Text: flags, Targets: args}
	setTarget(ev, target)
	if !c.filter("outgoing_mode", ev) {
		return nil
	}
	params := []string{"MODE", target}
	if flags != "" {
		params = append(params, flags)
		params = append(params, args...)
	}
	return c.write(strings.Join(params, " "))
}

// Join joins a channel, with key if it is not empty.
func (c *Conn) Join(channel, key string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventJoin, Nick: c.Nick(), Channel: channel, Text: key}
	if !c.filter("outgoing_join", ev) {
		return nil
	}
	if key == "" {
		return c.write("JOIN " + channel)
	}
	return c.write("JOIN " + channel + " " + key)
}

func (c *Conn) Part(channel, reason string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventPart, Nick: c.Nick(), Channel: channel, Text: reason}
	if !c.filter("outgoing_part", ev) {
		return nil
	}
	if reason == "" {
		return c.write("PART " + channel)
	}
	return c.write(line("PART", reason, channel))
}

func (c *Conn) Quit(reason string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventQuit, Nick: c.Nick(), Text: reason}
	if !c.filter("outgoing_quit", ev) {
		return nil
	}
	if reason == "" {
		return c.write("QUIT")
	}
	return c.write(line("QUIT", reason))
}

func (c *Conn) ChangeNick(nick string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventNick, Nick: c.Nick(), Text: nick}
	if !c.filter("outgoing_nick", ev) {
		return nil
	}
	return c.write("NICK " + nick)
}

// User sends the USER registration line.
func (c *Conn) User(username, realname string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Nick: c.Nick(), User: username, Text: realname}
	if !c.filter("outgoing_user", ev) {
		return nil
	}
	return c.write(line("USER", realname, username, "0", "*"))
}

// Pass sends the connection password.  It must precede NICK and USER.
func (c *Conn) Pass(password string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Nick: c.Nick(), Text: password}
	if !c.filter("outgoing_pass", ev) {
		return nil
	}
	return c.write("PASS " + password)
}

func (c *Conn) Oper(user, password string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Nick: c.Nick(), User: user, Text: password}
	if !c.filter("outgoing_oper", ev) {
		return nil
	}
	return c.write("OPER " + user + " " + password)
}

// Topic asks the server for the topic of channel.
func (c *Conn) Topic(channel string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventTopicChange, Nick: c.Nick(), Channel: channel}
	if !c.filter("outgoing_topic", ev) {
		return nil
	}
	return c.write("TOPIC " + channel)
}

// ChangeTopic sets the topic of channel.  An empty topic clears it.
func (c *Conn) ChangeTopic(channel, topic string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventTopicChange, Nick: c.Nick(), Channel: channel, Text: topic}
	if !c.filter("outgoing_topic", ev) {
		return nil
	}
	return c.write(line("TOPIC", topic, channel))
}

// Names asks for the members of channel, or of every channel if empty.
func (c *Conn) Names(channel string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Nick: c.Nick(), Channel: channel}
	if !c.filter("outgoing_names", ev) {
		return nil
	}
	if channel == "" {
		return c.write("NAMES")
	}
	return c.write("NAMES " + channel)
}

// List asks for the channel list, restricted to channel if not empty.
func (c *Conn) List(channel string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Nick: c.Nick(), Channel: channel}
	if !c.filter("outgoing_list", ev) {
		return nil
	}
	if channel == "" {
		return c.write("LIST")
	}
	return c.write("LIST " + channel)
}

func (c *Conn) Invite(nick, channel string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{Type: EventInvite, Nick: c.Nick(), Target: nick, Channel: channel}
	if !c.filter("outgoing_invite", ev) {
		return nil
	}
	return c.write("INVITE " + nick + " " + channel)
}

func (c *Conn) Kick(nick, channel, reason string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ev := &Event{
		Type:    EventKick,
		Nick:    c.Nick(),
		Channel: channel,
		Target:  nick,
		Targets: strings.Split(nick, ","),
		Text:    reason,
	}
	if !c.filter("outgoing_kick", ev) {
		return nil
	}
	if reason == "" {
		return c.write("KICK " + channel + " " + nick)
	}
	return c.write(line("KICK", reason, channel, nick))
}

// SendRaw sends its given argument verbatim to the server.  No outgoing
// handler runs.
func (c *Conn) SendRaw(raw string) error {
	return c.write(raw)
}
