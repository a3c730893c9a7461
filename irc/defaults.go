package irc

// installDefaults puts the handlers every connection needs in front of the
// user's.  They all return Continue, so user handlers always run after them.
func (c *Conn) installDefaults() {
	defaults := []struct {
		name string
		f    HandlerFunc
	}{
		{"incoming_ping", handlePing},
		{numericHandlerName(rplWelcome), handleWelcome},
		{numericHandlerName(errErroneusnickname), handleNickUnavailable},
		{numericHandlerName(errNicknameinuse), handleNickUnavailable},
		{numericHandlerName(errNickcollision), handleNickUnavailable},
		{numericHandlerName(errUnavailresource), handleNickUnavailable},
		{"incoming_nick", handleNick},
		{"incoming_error", handleError},
		{OutgoingBeginConnection, handleBeginConnection},
	}
	for _, d := range defaults {
		// the dispatcher is not frozen yet
		_ = c.handlers.Register(d.name, d.f, true)
	}
}

func handlePing(c *Conn, ev *Event) Result {
	_ = c.write("PONG :" + ev.Text)
	return Continue
}

func handleWelcome(c *Conn, ev *Event) Result {
	c.nl.Lock()
	c.nick = ev.Target
	c.nl.Unlock()
	c.registered.Store(true)
	c.log.Info("registered", "nick", ev.Target)
	return Continue
}

// handleNickUnavailable picks the next nickname while the server has not
// accepted one yet.  Once the candidates are exhausted, it appends an
// underscore to the one that was refused.
func handleNickUnavailable(c *Conn, ev *Event) Result {
	if c.Registered() {
		return Continue
	}

	c.nl.Lock()
	refused := c.nick
	if len(ev.Params) > 0 {
		refused = ev.Params[0]
	}
	var next string
	c.nickIdx++
	if c.nickIdx < len(c.params.Nicknames) {
		next = c.params.Nicknames[c.nickIdx]
	} else {
		next = refused + "_"
	}
	c.nick = next
	c.nl.Unlock()

	c.log.Info("nickname unavailable", "nick", refused, "next", next)
	_ = c.ChangeNick(next)
	return Continue
}

func handleNick(c *Conn, ev *Event) Result {
	if c.IsMe(ev.Nick) {
		c.nl.Lock()
		c.nick = ev.Text
		c.nl.Unlock()
	}
	return Continue
}

func handleError(c *Conn, ev *Event) Result {
	c.log.Warn("server error", "text", ev.Text)
	return Continue
}

func handleBeginConnection(c *Conn, ev *Event) Result {
	if c.params.Password != "" {
		_ = c.Pass(c.params.Password)
	}
	_ = c.ChangeNick(c.Nick())
	_ = c.User(c.params.Username, c.params.RealName)
	return Continue
}
