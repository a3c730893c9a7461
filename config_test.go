package ircchain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
address irc.example.net
port 7000
tls false
nickname alice alicia
nickname al
username ali
realname "Alice Liddell"
password hunter2
throttle 2s
channels "#chan" "#other"
channel "#secret key"
script bot.lua
log-file /tmp/ircchain.log
log-level debug
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Address != "irc.example.net" || cfg.Port != 7000 || cfg.TLS {
		t.Errorf("unexpected server %q:%d (tls %t)", cfg.Address, cfg.Port, cfg.TLS)
	}
	if strings.Join(cfg.Nicknames, ",") != "alice,alicia,al" {
		t.Errorf("unexpected nicknames %q", cfg.Nicknames)
	}
	if cfg.Username != "ali" || cfg.RealName != "Alice Liddell" || cfg.Password != "hunter2" {
		t.Errorf("unexpected identity %q %q %q", cfg.Username, cfg.RealName, cfg.Password)
	}
	if cfg.Throttle != 2*time.Second {
		t.Errorf("expected a 2s throttle, got %s", cfg.Throttle)
	}
	if strings.Join(cfg.Channels, ",") != "#chan,#other,#secret key" {
		t.Errorf("unexpected channels %q", cfg.Channels)
	}
	if cfg.Script != "bot.lua" || cfg.LogFile != "/tmp/ircchain.log" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected script or logging settings %+v", cfg)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("address irc.example.net\nnickname alice\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.TLS || cfg.Port != 0 || cfg.Throttle != time.Second || cfg.LogLevel != LevelInfo {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	params := cfg.Params(nil)
	if params.ThrottleInterval != time.Second || params.Nicknames[0] != "alice" || !params.TLS {
		t.Errorf("unexpected connection parameters %+v", params)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []string{
		"nickname alice\n",
		"address irc.example.net\n",
		"address irc.example.net\nnickname\n",
		"address irc.example.net\nnickname alice\nport http\n",
		"address irc.example.net\nnickname alice\nport 70000\n",
		"address irc.example.net\nnickname alice\ntls maybe\n",
		"address irc.example.net\nnickname alice\nthrottle soon\n",
		"address irc.example.net\nnickname alice\nhighlight alice\n",
		"address a b\nnickname alice\n",
	}
	for _, test := range tests {
		if _, err := ParseConfig(strings.NewReader(test)); err == nil {
			t.Errorf("%q: expected an error", test)
		}
	}
}

func TestDisabledThrottle(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("websocket wss://irc.example.net/\nnickname alice\nthrottle 0s\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params := cfg.Params(nil); params.ThrottleInterval >= 0 {
		t.Errorf("expected throttling to be disabled, got %s", params.ThrottleInterval)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircchain.scfg")
	if err := os.WriteFile(path, []byte("address irc.example.net\nnickname alice\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Address != "irc.example.net" {
		t.Errorf("unexpected address %q", cfg.Address)
	}

	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircchain.scfg")
	if err := os.WriteFile(path, []byte("nickname bob\nthrottle 3s\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := Defaults()
	cfg.Address = "irc.example.net"
	if err := ReadConfigFile(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Address != "irc.example.net" || cfg.Nicknames[0] != "bob" || cfg.Throttle != 3*time.Second || !cfg.TLS {
		t.Errorf("unexpected configuration %+v", cfg)
	}
}
