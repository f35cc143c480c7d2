// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/linkshell/pkg/uart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var consoleRecord string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive TUI for the command interpreter",
	Long: `Drive the secondary link from a full-screen terminal UI.

Type a command and press Enter. The same commands as "bridge" are accepted
("send <field>..."). Replies, inbound messages and receive faults appear in
the event log; the statistics bar tracks the receive path.

Keys:
  Enter    run the command line
  Esc      clear the command line
  Ctrl+C   quit

If the secondary link is lost the console keeps running and reconnects with
exponential backoff. Supports both serial and WebSocket connections.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVar(&consoleRecord, "record", "", "Record receive events to a CBOR capture file")
}

func runConsole(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	rec, closeCapture, err := openCapture(consoleRecord, logger)
	if err != nil {
		conn.Close()
		return err
	}
	defer closeCapture()

	// stderr would tear the alt screen; problems show up in the event log
	quiet := zerolog.Nop()

	stats := uart.NewStatistics()
	cm := &connectionManager{
		conn:       conn,
		connInfo:   connInfo,
		open:       OpenConnection,
		stats:      stats,
		recorder:   rec,
		queueDepth: uart.DefaultQueueDepth,
		log:        quiet,
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
	}

	m := initialConsoleModel(cm, stats, connInfo, quiet)
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	managerDone := make(chan struct{})
	go func() {
		defer close(managerDone)
		cm.run(ctx, programSink{send: p.Send}, p.Send)
	}()

	_, err = p.Run()
	cancel()
	<-managerDone

	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
