package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"git.sr.ht/~taiite/ircchain"
	"git.sr.ht/~taiite/ircchain/irc"
)

var rawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Interactive raw protocol session",
	Long: `Connect to the server and print every line exchanged.  Each line typed
at the prompt is sent as is, unless it starts with a slash: type /help for
the list of commands.  Registration and PING replies are handled
automatically.`,
	Args: cobra.NoArgs,
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
}

func runRaw(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	oldState, err := term.MakeRaw(0)
	if err != nil {
		return err
	}
	defer term.Restore(0, oldState)

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(screen, "> ")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	params := cfg.Params(logger)
	params.Report = func(text string) {
		fmt.Fprintf(t, "C  > S: %s\n", text)
	}
	conn, err := irc.New(params)
	if err != nil {
		return err
	}
	_ = conn.HandleFunc(irc.IncomingAny, func(c *irc.Conn, ev *irc.Event) irc.Result {
		fmt.Fprintf(t, "C <  S: %s\n", ev.Raw)
		return irc.Continue
	})

	fmt.Fprintf(t, "Connecting to %s...\n", cfg.Address)
	if err := conn.Start(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(t, "Connected. Registration in progress...\n")

	input := ircchain.NewInput(conn, t)
	go func() {
		for {
			line, err := t.ReadLine()
			if err != nil {
				break
			}
			if input.Target() == "" && !strings.HasPrefix(line, "/") {
				fmt.Fprintf(t, "C  > S: %s\n", line)
			}
			if err := input.Handle(line); errors.Is(err, ircchain.ErrQuit) || conn.Dead() {
				break
			} else if err != nil {
				fmt.Fprintf(t, "error: %v\n", err)
			}
		}
		conn.Shutdown("")
	}()

	conn.Run(context.Background())
	t.SetPrompt("")
	fmt.Fprintln(t, "Disconnected")
	return nil
}
