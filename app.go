package ircchain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"git.sr.ht/~taiite/ircchain/irc"
	"git.sr.ht/~taiite/ircchain/script"
)

const version = "ircchain"

// printed are the events shown to the user.
var printed = []string{
	"incoming_welcome",
	"incoming_msg",
	"incoming_act",
	"incoming_notice",
	"incoming_join",
	"incoming_part",
	"incoming_quit",
	"incoming_kick",
	"incoming_nick",
	"incoming_topic_change",
	"incoming_mode",
	"incoming_invite",
	"incoming_error",
}

// App is one connection as driven from the command line: it joins the
// configured channels, runs the configured script and prints what happens.
type App struct {
	cfg    Config
	conn   *irc.Conn
	script *script.Host
	out    *Printer
	log    *slog.Logger
}

func NewApp(cfg Config, logger *slog.Logger, out io.Writer) (*App, error) {
	return newApp(cfg, logger, out, nil)
}

func newApp(cfg Config, logger *slog.Logger, out io.Writer, t irc.Transport) (app *App, err error) {
	app = &App{
		cfg: cfg,
		out: NewPrinter(out, defaultNickColWidth),
		log: logger,
	}

	params := cfg.Params(logger)
	params.Transport = t
	params.Report = app.report
	app.conn, err = irc.New(params)
	if err != nil {
		return nil, err
	}

	if err = app.conn.HandleFunc("incoming_welcome", app.handleWelcome); err != nil {
		return nil, err
	}
	if err = app.conn.HandleFunc("incoming_ctcp", app.handleCTCP); err != nil {
		return nil, err
	}
	for _, name := range printed {
		if err = app.conn.HandleLast(name, app.out); err != nil {
			return nil, err
		}
	}

	// script handlers go in front of the ones above
	if cfg.Script != "" {
		app.script = script.New(app.conn, script.WithLogger(logger))
		if err = app.script.LoadFile(cfg.Script); err != nil {
			app.script.Close()
			return nil, err
		}
	}

	return app, nil
}

// Run connects and blocks until the connection dies, or until ctx is done
// in which case it quits gracefully.
func (app *App) Run(ctx context.Context) error {
	app.out.Line(time.Now(), "", "--", "Connecting to "+app.serverName()+"...")
	if err := app.conn.Start(ctx); err != nil {
		app.out.Line(time.Now(), "", "!!", fmt.Sprintf("Connection failed: %v", err))
		return err
	}
	app.conn.Run(ctx)
	app.out.Line(time.Now(), "", "!!", "Connection lost")
	return nil
}

func (app *App) Close() {
	if app.script != nil {
		app.script.Close()
	}
	app.conn.Stop()
}

// Conn returns the underlying connection.
func (app *App) Conn() *irc.Conn {
	return app.conn
}

func (app *App) serverName() string {
	if app.cfg.WebSocket != "" {
		return app.cfg.WebSocket
	}
	return app.cfg.Address
}

func (app *App) handleWelcome(c *irc.Conn, ev *irc.Event) irc.Result {
	for _, channel := range app.cfg.Channels {
		// "#chan key"
		name, key, _ := strings.Cut(channel, " ")
		if err := c.Join(name, key); err != nil {
			app.log.Warn("failed to join channel", "channel", name, "err", err)
		}
	}
	return irc.Continue
}

func (app *App) handleCTCP(c *irc.Conn, ev *irc.Event) irc.Result {
	verb, arg, _ := strings.Cut(ev.Text, " ")
	switch strings.ToUpper(verb) {
	case "VERSION":
		_ = c.CTCPReply(ev.Nick, "VERSION "+version)
	case "PING":
		_ = c.CTCPReply(ev.Nick, "PING "+arg)
	case "TIME":
		_ = c.CTCPReply(ev.Nick, "TIME "+time.Now().Format(time.RFC1123Z))
	default:
		return irc.Continue
	}
	return irc.Handled
}

// report prints the private messages we sent, once they leave the throttle.
func (app *App) report(text string) {
	app.out.Line(time.Now(), "", "->", text)
}
