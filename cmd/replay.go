// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/linkshell/pkg/console"
	"github.com/Thermoquad/linkshell/pkg/uart"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture>",
	Short: "Replay a recorded capture through the receive path",
	Long: `Feed a capture written by "bridge --record" back through the receive
register model and fault classifier, printing what the bridge would have
shown followed by receive statistics.

The receive interrupt is serviced when the FIFO fills and at the end of the
capture. Bytes recorded as lost on the wire are replayed as overruns against
whatever is pending in the FIFO at that point.

No connection is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	stats := uart.NewStatistics()
	events, err := replayCapture(f, console.TextSink{Out: os.Stdout}, stats)
	if err != nil {
		return err
	}

	fmt.Printf("\nReplayed %d events from %s\n", events, args[0])
	fmt.Print(stats.String())
	return nil
}

// Captures carry no real time, so partial messages are only flushed when
// the capture ends
const replayFlushDelay = time.Hour

// replayCapture plays every event in r through a fresh register model and
// reports the serviced outcomes to sink the way the bridge does
func replayCapture(r io.Reader, sink console.Sink, stats *uart.Statistics) (int, error) {
	outcomes := make(chan uart.Outcome)
	reporter := console.NewReporter(outcomes, sink, stats, replayFlushDelay)

	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		reporter.Run(context.Background())
	}()

	events, err := uart.Replay(uart.NewPlayer(r), uart.NewPL011(), func(o uart.Outcome) {
		stats.RecordOutcome(o)
		if f, isFault := o.Fault(); isFault {
			logger.Debug().Str("fault", f.Error()).Msg("receive fault")
		}
		outcomes <- o
	})

	close(outcomes)
	<-reporterDone
	return events, err
}
