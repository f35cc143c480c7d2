// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/linkshell/pkg/console"
	"github.com/Thermoquad/linkshell/pkg/uart"
	"github.com/spf13/cobra"
)

var (
	bridgeEcho          bool
	bridgeRecord        string
	bridgeStatsInterval int
	bridgeQueueDepth    int
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the command interpreter between the terminal and the secondary link",
	Long: `Read command lines from the terminal link and act on the secondary link.

Commands:
  send <field>...   Forward the fields, space separated and NUL terminated.
                    Replies "Sent." on success.
  anything else     Replies "Unknown command."

Lines hold up to 80 characters; extra input is discarded. Backspace and
delete edit the line. At most 5 fields are recognized per line.

Inbound bytes on the secondary link are shown as "< message" lines, one per
NUL terminated message. Parity, framing and overrun faults are reported as
"[LINK ERROR] ..." and never stop the bridge.

Press Ctrl+C or Ctrl+D to exit. Statistics are printed to stderr on exit
and every --stats-interval seconds when set.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().BoolVar(&bridgeEcho, "echo", true, "Echo typed characters back to the terminal (TTY or serial terminal only)")
	bridgeCmd.Flags().StringVar(&bridgeRecord, "record", "", "Record receive events to a CBOR capture file")
	bridgeCmd.Flags().IntVar(&bridgeStatsInterval, "stats-interval", 0, "Statistics interval in seconds (0 disables)")
	bridgeCmd.Flags().IntVar(&bridgeQueueDepth, "queue-depth", uart.DefaultQueueDepth, "Receive outcome queue depth")
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	rec, closeCapture, err := openCapture(bridgeRecord, logger)
	if err != nil {
		conn.Close()
		return err
	}
	defer closeCapture()

	stats := uart.NewStatistics()
	session := startLinkSession(ctx, conn, stats, bridgeQueueDepth, rec, logger)
	defer session.Close()

	terminal, err := OpenTerminal()
	if err != nil {
		return err
	}

	// Echo only makes sense when nothing else echoes for us
	echo := terminal.echo && bridgeEcho

	header := fmt.Sprintf("Linkshell - Bridge\nSecondary link: %s\nTerminal: %s\nPress Ctrl+C to exit\n\n", connInfo, terminal.info)
	if terminal.raw {
		header = crlf(header)
	}
	fmt.Fprint(os.Stderr, header)

	reporter := console.NewReporter(session.Outcomes(), console.TextSink{Out: terminal}, stats, console.DefaultFlushDelay)
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		reporter.Run(ctx)
	}()

	if bridgeStatsInterval > 0 {
		go printStatsEvery(ctx, stats, time.Duration(bridgeStatsInterval)*time.Second, terminal.raw)
	}

	dispatcher := console.NewDispatcher(terminal, conn, stats, logger)
	dispatchErr := make(chan error, 1)
	go func() {
		dispatchErr <- dispatcher.Run(ctx, console.NewLineReader(terminal.Terminal, echo))
	}()

	// The dispatcher may be parked in a terminal read, so any of these ends
	// the bridge
	select {
	case err = <-dispatchErr:
	case <-ctx.Done():
	case werr := <-session.Closed():
		err = fmt.Errorf("secondary link lost: %w", werr)
	}

	stop()
	session.Close()
	<-reporterDone

	terminal.restore()
	fmt.Fprintf(os.Stderr, "\n%s", stats.String())

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// printStatsEvery prints the statistics summary to stderr until ctx ends
func printStatsEvery(ctx context.Context, stats *uart.Statistics, interval time.Duration, raw bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary := stats.String()
			if raw {
				summary = crlf(summary)
			}
			fmt.Fprint(os.Stderr, summary)
		}
	}
}

// crlf translates line endings for a terminal in raw mode
func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}
