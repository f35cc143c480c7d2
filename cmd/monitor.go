// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var monitorDuration int

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display raw bytes received on the secondary link",
	Long: `Print every chunk read from the secondary link as timestamped hex and ASCII.

Bytes are shown exactly as read, bypassing the receive register model, so this
is the place to look when "bridge" output is surprising. NUL message
terminators appear as 00.

Runs until Ctrl+C, or for --duration seconds when set.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&monitorDuration, "duration", 0, "Stop after this many seconds (0 runs until Ctrl+C)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if monitorDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(monitorDuration)*time.Second)
		defer cancel()
	}

	fmt.Printf("Linkshell - Raw Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	// Closing the connection unblocks the pending read
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	total, err := monitorLink(ctx, conn, os.Stdout)
	fmt.Printf("\n%d bytes received\n", total)
	return err
}

// monitorLink dumps everything read from r until ctx ends or the link fails
func monitorLink(ctx context.Context, r io.Reader, out io.Writer) (int, error) {
	total := 0
	buf := make([]byte, 256)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			total += n
			fmt.Fprint(out, formatChunk(time.Now(), buf[:n]))
		}

		if err != nil {
			if ctx.Err() != nil {
				return total, nil
			}
			if isFatalReadError(err) {
				logger.Warn().Err(err).Msg("secondary link closed")
				return total, nil
			}
			logger.Debug().Err(err).Msg("link read error")
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// formatChunk renders one read as hex and ASCII, 16 bytes per row
func formatChunk(at time.Time, data []byte) string {
	var s strings.Builder
	timestamp := at.Format("15:04:05.000")

	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		prefix := timestamp
		if off > 0 {
			prefix = strings.Repeat(" ", len(timestamp))
		}

		hex := make([]string, len(row))
		ascii := make([]byte, len(row))
		for i, b := range row {
			hex[i] = fmt.Sprintf("%02X", b)
			if b >= 0x20 && b < 0x7F {
				ascii[i] = b
			} else {
				ascii[i] = '.'
			}
		}

		fmt.Fprintf(&s, "[%s] %-47s  %s\n", prefix, strings.Join(hex, " "), ascii)
	}
	return s.String()
}
