package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"git.sr.ht/~taiite/ircchain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect and print incoming events",
	Long: `Connect to the server, join the configured channels and print incoming
events until interrupted.  On SIGINT or SIGTERM, ircchain sends QUIT and
waits briefly for the server to close the connection.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("username", "", "username (default: first nickname)")
	flags.String("realname", "", "real name (default: first nickname)")
	flags.Duration("throttle", 0, "minimum time between private messages (default 1s, 0s disables)")
	flags.StringSlice("channels", nil, "channels to join once connected")
	flags.String("script", "", "Lua script to load")
	flags.String("log-file", "", "file to write logs to (default: stderr)")
	flags.String("log-level", "", "minimum log level (debug/info/warn/error)")
	bindFlags(v, flags)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	logger, closer, err := ircchain.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	app, err := ircchain.NewApp(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}
