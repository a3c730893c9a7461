package ircchain

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"git.sr.ht/~emersion/go-scfg"

	"git.sr.ht/~taiite/ircchain/irc"
)

type Config struct {
	Address   string
	Port      int
	TLS       bool
	WebSocket string

	Nicknames []string
	Username  string
	RealName  string
	Password  string

	Throttle time.Duration
	Channels []string
	Script   string

	LogFile  string
	LogLevel string
}

// Defaults returns the configuration used for what the file leaves out.
func Defaults() Config {
	return Config{
		TLS:      true,
		Throttle: time.Second,
		LogLevel: LevelInfo,
	}
}

// ParseConfig reads a configuration file, fills in the defaults and checks
// that it is enough to connect.
func ParseConfig(r io.Reader) (cfg Config, err error) {
	cfg = Defaults()
	if err = decode(r, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func LoadConfigFile(filename string) (cfg Config, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	cfg, err = ParseConfig(f)
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration file %q: %w", filename, err)
	}
	return cfg, nil
}

// ReadConfigFile sets the fields of cfg that the file defines.  The result
// is not validated, so that other sources can complete it.
func ReadConfigFile(filename string, cfg *Config) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := decode(f, cfg); err != nil {
		return fmt.Errorf("invalid configuration file %q: %w", filename, err)
	}
	return nil
}

func decode(r io.Reader, cfg *Config) error {
	blk, err := scfg.Read(r)
	if err != nil {
		return err
	}
	return unmarshal(blk, cfg)
}

func unmarshal(blk scfg.Block, cfg *Config) (err error) {
	for _, d := range blk {
		switch d.Name {
		case "address":
			err = oneString(d, &cfg.Address)
		case "port":
			var port string
			if err = oneString(d, &port); err != nil {
				break
			}
			if cfg.Port, err = strconv.Atoi(port); err != nil || cfg.Port <= 0 || 65535 < cfg.Port {
				err = fmt.Errorf("directive %q: invalid port %q", d.Name, port)
			}
		case "tls":
			var tls string
			if err = oneString(d, &tls); err != nil {
				break
			}
			if cfg.TLS, err = strconv.ParseBool(tls); err != nil {
				err = fmt.Errorf("directive %q: %w", d.Name, err)
			}
		case "websocket":
			err = oneString(d, &cfg.WebSocket)
		case "nickname":
			if len(d.Params) == 0 {
				err = fmt.Errorf("directive %q requires at least one value", d.Name)
				break
			}
			cfg.Nicknames = append(cfg.Nicknames, d.Params...)
		case "username":
			err = oneString(d, &cfg.Username)
		case "realname":
			err = oneString(d, &cfg.RealName)
		case "password":
			err = oneString(d, &cfg.Password)
		case "throttle":
			var throttle string
			if err = oneString(d, &throttle); err != nil {
				break
			}
			if cfg.Throttle, err = time.ParseDuration(throttle); err != nil {
				err = fmt.Errorf("directive %q: %w", d.Name, err)
			}
		case "channels", "channel":
			cfg.Channels = append(cfg.Channels, d.Params...)
		case "script":
			err = oneString(d, &cfg.Script)
		case "log-file":
			err = oneString(d, &cfg.LogFile)
		case "log-level":
			err = oneString(d, &cfg.LogLevel)
		default:
			err = fmt.Errorf("unknown directive %q", d.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func oneString(d *scfg.Directive, out *string) error {
	if len(d.Params) != 1 {
		return fmt.Errorf("directive %q requires exactly one value", d.Name)
	}
	*out = d.Params[0]
	return nil
}

// Validate reports what is missing to connect.
func (cfg Config) Validate() error {
	if cfg.Address == "" && cfg.WebSocket == "" {
		return errors.New("address is required")
	}
	if len(cfg.Nicknames) == 0 || cfg.Nicknames[0] == "" {
		return errors.New("nickname is required")
	}
	return nil
}

// Params turns the configuration into connection parameters.
func (cfg Config) Params(logger *slog.Logger) irc.Params {
	throttle := cfg.Throttle
	if throttle == 0 {
		// a zero throttle in the file disables it
		throttle = -1
	}
	return irc.Params{
		DialParams: irc.DialParams{
			Address:   cfg.Address,
			Port:      cfg.Port,
			TLS:       cfg.TLS,
			WebSocket: cfg.WebSocket,
		},
		Nicknames:        cfg.Nicknames,
		Username:         cfg.Username,
		RealName:         cfg.RealName,
		Password:         cfg.Password,
		ThrottleInterval: throttle,
		Logger:           logger,
	}
}
