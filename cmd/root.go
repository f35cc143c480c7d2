// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Secondary link flags
	portName     string
	baudRate     int
	dataBits     int
	parityName   string
	stopBitsName string

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Terminal link flags
	terminalPort string
	terminalBaud int

	configPath string
	logLevel   string
)

// Resolved by the root command before any subcommand runs
var (
	settings = DefaultConfig()
	logger   = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "linkshell",
	Short: "Serial command bridge",
	Long: `Linkshell - A command interpreter bridging a terminal to a secondary serial link.

Lines typed at the terminal are tokenized and dispatched. "send <args>..."
forwards the arguments, space separated and NUL terminated, over the
secondary link. Bytes arriving on the secondary link pass through a receive
register model; parity, framing and overrun faults are reported on the
terminal.

Secondary link:
  Serial:    --port /dev/ttyUSB0 [--baud 300 --parity even --data-bits 8 --stop-bits 1]
  WebSocket: --url ws://host/path [--username user]

Terminal link:
  stdin/stdout by default, or --terminal-port /dev/ttyUSB1 [--terminal-baud 115200]

For WebSocket authentication, the password is read from the LINKSHELL_PASSWORD
environment variable, or prompted interactively if not set.

Settings may also come from a TOML file (--config) with [link], [terminal]
and [log] sections. Flags given on the command line take precedence.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: resolveSettings,
}

func init() {
	defaults := DefaultConfig()

	// Secondary link flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Secondary link serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", defaults.Link.Baud, "Secondary link baud rate (serial only)")
	rootCmd.PersistentFlags().IntVar(&dataBits, "data-bits", defaults.Link.DataBits, "Data bits per character (5-8)")
	rootCmd.PersistentFlags().StringVar(&parityName, "parity", defaults.Link.Parity, "Parity: none, even, odd, mark, space")
	rootCmd.PersistentFlags().StringVar(&stopBitsName, "stop-bits", defaults.Link.StopBits, "Stop bits: 1, 1.5, 2")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Terminal link flags
	rootCmd.PersistentFlags().StringVar(&terminalPort, "terminal-port", "", "Serial port to use as the terminal (default stdin/stdout)")
	rootCmd.PersistentFlags().IntVar(&terminalBaud, "terminal-baud", defaults.Terminal.Baud, "Terminal serial port baud rate")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
}

// resolveSettings merges defaults, the config file and explicit flags, then
// builds the logger
func resolveSettings(cmd *cobra.Command, args []string) error {
	cfg := DefaultConfig()
	if configPath != "" {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	applyFlags(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := NewLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	settings = cfg
	logger = l
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
