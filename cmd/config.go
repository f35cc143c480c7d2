// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"go.bug.st/serial"
)

// LinkConfig describes the secondary link
type LinkConfig struct {
	Port     string
	Baud     int
	DataBits int
	Parity   string
	StopBits string

	URL         string
	Username    string
	NoSSLVerify bool
}

// TerminalConfig describes the operator link. An empty Port means the
// process's own stdin/stdout.
type TerminalConfig struct {
	Port string
	Baud int
}

// LogConfig holds diagnostic logging settings
type LogConfig struct {
	Level string
}

// Config is the resolved runtime configuration
type Config struct {
	Link     LinkConfig
	Terminal TerminalConfig
	Log      LogConfig
}

// DefaultConfig returns the link setup the bridge firmware expects:
// 300 baud, 8 data bits, even parity, one stop bit.
func DefaultConfig() Config {
	return Config{
		Link: LinkConfig{
			Baud:     300,
			DataBits: 8,
			Parity:   "even",
			StopBits: "1",
		},
		Terminal: TerminalConfig{
			Baud: 115200,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// config file key mapping
type fileConfig struct {
	Link struct {
		Port        string `toml:"port"`
		Baud        int    `toml:"baud"`
		DataBits    int    `toml:"data_bits"`
		Parity      string `toml:"parity"`
		StopBits    string `toml:"stop_bits"`
		URL         string `toml:"url"`
		Username    string `toml:"username"`
		NoSSLVerify bool   `toml:"no_ssl_verify"`
	} `toml:"link"`
	Terminal struct {
		Port string `toml:"port"`
		Baud int    `toml:"baud"`
	} `toml:"terminal"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// LoadConfig reads a TOML config file and overlays the keys it defines
// onto DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("link", "port") {
		cfg.Link.Port = strings.TrimSpace(raw.Link.Port)
	}
	if meta.IsDefined("link", "baud") {
		cfg.Link.Baud = raw.Link.Baud
	}
	if meta.IsDefined("link", "data_bits") {
		cfg.Link.DataBits = raw.Link.DataBits
	}
	if meta.IsDefined("link", "parity") {
		cfg.Link.Parity = strings.TrimSpace(raw.Link.Parity)
	}
	if meta.IsDefined("link", "stop_bits") {
		cfg.Link.StopBits = strings.TrimSpace(raw.Link.StopBits)
	}
	if meta.IsDefined("link", "url") {
		cfg.Link.URL = strings.TrimSpace(raw.Link.URL)
	}
	if meta.IsDefined("link", "username") {
		cfg.Link.Username = strings.TrimSpace(raw.Link.Username)
	}
	if meta.IsDefined("link", "no_ssl_verify") {
		cfg.Link.NoSSLVerify = raw.Link.NoSSLVerify
	}
	if meta.IsDefined("terminal", "port") {
		cfg.Terminal.Port = strings.TrimSpace(raw.Terminal.Port)
	}
	if meta.IsDefined("terminal", "baud") {
		cfg.Terminal.Baud = raw.Terminal.Baud
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag set explicitly on the command line
func applyFlags(flags *pflag.FlagSet, cfg *Config) {
	if flags.Changed("port") {
		cfg.Link.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Link.Baud = baudRate
	}
	if flags.Changed("data-bits") {
		cfg.Link.DataBits = dataBits
	}
	if flags.Changed("parity") {
		cfg.Link.Parity = parityName
	}
	if flags.Changed("stop-bits") {
		cfg.Link.StopBits = stopBitsName
	}
	if flags.Changed("url") {
		cfg.Link.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.Link.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Link.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("terminal-port") {
		cfg.Terminal.Port = terminalPort
	}
	if flags.Changed("terminal-baud") {
		cfg.Terminal.Baud = terminalBaud
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
}

// Validate checks that every setting can be applied
func (c Config) Validate() error {
	if _, err := c.Link.SerialMode(); err != nil {
		return err
	}
	if c.Terminal.Baud <= 0 {
		return fmt.Errorf("invalid terminal baud rate %d", c.Terminal.Baud)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

// SerialMode converts the link settings into a serial port mode
func (l LinkConfig) SerialMode() (*serial.Mode, error) {
	if l.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", l.Baud)
	}
	if l.DataBits < 5 || l.DataBits > 8 {
		return nil, fmt.Errorf("invalid data bits %d (5-8)", l.DataBits)
	}

	parity, ok := parities[strings.ToLower(l.Parity)]
	if !ok {
		return nil, fmt.Errorf("invalid parity %q (none, even, odd, mark, space)", l.Parity)
	}

	stopBits, ok := stopBitSettings[l.StopBits]
	if !ok {
		return nil, fmt.Errorf("invalid stop bits %q (1, 1.5, 2)", l.StopBits)
	}

	return &serial.Mode{
		BaudRate: l.Baud,
		DataBits: l.DataBits,
		Parity:   parity,
		StopBits: stopBits,
	}, nil
}

// Describe returns a short "8E1" style frame description
func (l LinkConfig) Describe() string {
	parity := "?"
	if len(l.Parity) > 0 {
		parity = strings.ToUpper(l.Parity[:1])
	}
	return fmt.Sprintf("%d%s%s", l.DataBits, parity, l.StopBits)
}

var parities = map[string]serial.Parity{
	"none":  serial.NoParity,
	"even":  serial.EvenParity,
	"odd":   serial.OddParity,
	"mark":  serial.MarkParity,
	"space": serial.SpaceParity,
}

var stopBitSettings = map[string]serial.StopBits{
	"1":   serial.OneStopBit,
	"1.5": serial.OnePointFiveStopBits,
	"2":   serial.TwoStopBits,
}
