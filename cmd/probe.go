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

var (
	probeTimeout int
	probeSend    string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the secondary link by waiting for an inbound message",
	Long: `Wait for a complete inbound message on the secondary link until timeout.

A message is a run of bytes ending in NUL, the same framing "send" uses.
Receive faults seen while waiting are reported and skipped. With --send, the
given fields are transmitted first, so a peer that answers can be checked
end to end.

Exit codes:
  0 - Message received before timeout
  1 - Timeout reached without receiving a message
  2 - Connection error`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a message")
	probeCmd.Flags().StringVar(&probeSend, "send", "", "Fields to send before waiting")
}

// Probe results, also used as exit codes
const (
	probeOK         = 0
	probeTimedOut   = 1
	probeLinkFailed = 2
)

func runProbe(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(probeLinkFailed)
	}

	fmt.Printf("Linkshell - Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)

	code := probeLink(conn, os.Stdout, probeSend, time.Duration(probeTimeout)*time.Second)
	os.Exit(code)
	return nil
}

// chanSink hands reporter output to a waiting probe
type chanSink struct {
	messages chan []byte
	out      io.Writer
}

func (s chanSink) Message(msg []byte) {
	select {
	case s.messages <- msg:
	default:
	}
}

func (s chanSink) Fault(f uart.Fault) {
	fmt.Fprintf(s.out, "(skipped receive fault: %s)\n", f.Error())
}

// probeLink runs the receive path on conn until one message arrives and
// returns the probe result code
func probeLink(conn Connection, out io.Writer, send string, timeout time.Duration) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := uart.NewStatistics()
	session := startLinkSession(ctx, conn, stats, uart.DefaultQueueDepth, nil, logger)
	defer session.Close()

	sink := chanSink{messages: make(chan []byte, 1), out: out}
	go console.NewReporter(session.Outcomes(), sink, stats, console.DefaultFlushDelay).Run(ctx)

	if send != "" {
		replies := &replyRecorder{}
		console.NewDispatcher(replies, conn, stats, logger).ExecuteString(console.CommandSend + " " + send)
		fmt.Fprintf(out, "Send %q: %s", send, replies.text)
		if stats.Snapshot().LinesSent == 0 {
			return probeLinkFailed
		}
	}
	fmt.Fprintf(out, "Waiting for inbound message...\n\n")

	select {
	case msg := <-sink.messages:
		fmt.Fprintf(out, "SUCCESS: Received message\n")
		fmt.Fprintf(out, "  Text: %q\n", msg)
		fmt.Fprintf(out, "  Length: %d bytes\n", len(msg))
		return probeOK

	case err := <-session.Closed():
		fmt.Fprintf(out, "Read error: %v\n", err)
		return probeLinkFailed

	case <-time.After(timeout):
		fmt.Fprintf(out, "TIMEOUT: No message received within %s\n", timeout)
		return probeTimedOut
	}
}

// replyRecorder keeps the dispatcher's reply text
type replyRecorder struct {
	text string
}

func (r *replyRecorder) Write(p []byte) (int, error) {
	r.text += string(p)
	return len(p), nil
}
