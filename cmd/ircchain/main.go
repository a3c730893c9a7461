package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "ircchain",
	Short: "IRC client driven by handler chains",
	Long: `ircchain connects to an IRC server, joins the configured channels and
prints what happens there.  A Lua script can react to incoming events.

The configuration file is read from $XDG_CONFIG_HOME/ircchain/ircchain.scfg
unless --config is given.  Flags and IRCCHAIN_* environment variables take
precedence over it.`,
	SilenceUsage: true,
}

// v holds the flag and environment overlay of the configuration file.
var v = viper.New()

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().String("address", "", "server address")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default 6697, or 6667 without TLS)")
	rootCmd.PersistentFlags().Bool("tls", true, "connect with TLS")
	rootCmd.PersistentFlags().String("websocket", "", "ws:// or wss:// URL to connect to instead of address")
	rootCmd.PersistentFlags().StringSliceP("nick", "n", nil, "nicknames to try, in order")
	rootCmd.PersistentFlags().String("password", "", "server password")

	bindFlags(v, rootCmd.PersistentFlags())

	v.SetEnvPrefix("IRCCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// bindFlags makes every flag of fs a configuration key of the same name.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
