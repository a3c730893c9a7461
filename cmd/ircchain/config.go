package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"git.sr.ht/~taiite/ircchain"
)

func defaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "ircchain", "ircchain.scfg"), nil
}

// loadConfig reads the configuration file, then applies the flags and
// environment variables that were set.  A missing file is only an error if
// it was asked for explicitly.
func loadConfig(v *viper.Viper) (ircchain.Config, error) {
	cfg := ircchain.Defaults()

	path := v.GetString("config")
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return cfg, err
		}
	}
	err := ircchain.ReadConfigFile(path, &cfg)
	if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return cfg, err
	}

	overlay(v, &cfg)
	return cfg, cfg.Validate()
}

func overlay(v *viper.Viper, cfg *ircchain.Config) {
	if v.IsSet("address") {
		cfg.Address = v.GetString("address")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("tls") {
		cfg.TLS = v.GetBool("tls")
	}
	if v.IsSet("websocket") {
		cfg.WebSocket = v.GetString("websocket")
	}
	if v.IsSet("nick") {
		cfg.Nicknames = v.GetStringSlice("nick")
	}
	if v.IsSet("username") {
		cfg.Username = v.GetString("username")
	}
	if v.IsSet("realname") {
		cfg.RealName = v.GetString("realname")
	}
	if v.IsSet("password") {
		cfg.Password = v.GetString("password")
	}
	if v.IsSet("throttle") {
		cfg.Throttle = v.GetDuration("throttle")
	}
	if v.IsSet("channels") {
		cfg.Channels = v.GetStringSlice("channels")
	}
	if v.IsSet("script") {
		cfg.Script = v.GetString("script")
	}
	if v.IsSet("log-file") {
		cfg.LogFile = v.GetString("log-file")
	}
	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}
}
