// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"testing"

	"github.com/Thermoquad/linkshell/pkg/console"
	"github.com/Thermoquad/linkshell/pkg/uart"
	"github.com/stretchr/testify/require"
)

func recordCapture(t *testing.T, events []uart.Event) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	rec := uart.NewRecorder(&buf)
	for i, ev := range events {
		ev.At = int64(i) * 1000
		require.NoError(t, rec.Record(ev))
	}
	return &buf
}

func dataEvents(s string) []uart.Event {
	events := make([]uart.Event, 0, len(s))
	for i := 0; i < len(s); i++ {
		events = append(events, uart.Event{Data: s[i]})
	}
	return events
}

func TestReplayCapture(t *testing.T) {
	// Sixteen bytes fill the FIFO before the lost byte arrives
	events := dataEvents("hi\x00")
	events = append(events, uart.Event{Data: 'x', Status: uart.StatusPE})
	events = append(events, dataEvents("abcdefghijkl")...)
	events = append(events, uart.Event{Data: 'm', Lost: true})
	events = append(events, dataEvents("n\x00")...)
	capture := recordCapture(t, events)

	var out bytes.Buffer
	stats := uart.NewStatistics()
	n, err := replayCapture(capture, console.TextSink{Out: &out}, stats)
	require.NoError(t, err)
	require.Equal(t, 19, n)

	// The overrun discards the byte at the head of the FIFO
	require.Equal(t,
		"\n[LINK ERROR] Overrun Error\n"+
			"< i\n"+
			"\n[LINK ERROR] Parity Error\n"+
			"< abcdefghijkln\n",
		out.String())

	snap := stats.Snapshot()
	require.Equal(t, uint64(18), snap.TotalEvents)
	require.Equal(t, uint64(16), snap.DataBytes)
	require.Equal(t, uint64(2), snap.Faults)
	require.Equal(t, uint64(1), snap.ParityErrors)
	require.Equal(t, uint64(1), snap.OverrunErrors)
	require.Equal(t, uint64(2), snap.Messages)
}

func TestReplayCapture_CleanBurst(t *testing.T) {
	msg := "the quick brown fox jumps over the lazy dog"
	capture := recordCapture(t, dataEvents(msg+"\x00"+"tail"))

	var out bytes.Buffer
	stats := uart.NewStatistics()
	n, err := replayCapture(capture, console.TextSink{Out: &out}, stats)
	require.NoError(t, err)
	require.Equal(t, len(msg)+5, n)

	require.Equal(t, "< "+msg+"\n< tail\n", out.String())
	snap := stats.Snapshot()
	require.Zero(t, snap.Faults)
	require.Equal(t, uint64(len(msg)+5), snap.DataBytes)
	require.Equal(t, uint64(2), snap.Messages)
}

func TestReplayCapture_Empty(t *testing.T) {
	var out bytes.Buffer
	events, err := replayCapture(&bytes.Buffer{}, console.TextSink{Out: &out}, uart.NewStatistics())
	require.NoError(t, err)
	require.Zero(t, events)
	require.Empty(t, out.String())
}

func TestReplayCapture_Corrupt(t *testing.T) {
	_, err := replayCapture(bytes.NewReader([]byte{0xff, 0x00, 0x13}), console.TextSink{Out: &bytes.Buffer{}}, uart.NewStatistics())
	require.Error(t, err)
}
