// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatistics_RecordOutcome(t *testing.T) {
	s := NewStatistics()
	s.RecordOutcome(DataOutcome('a'))
	s.RecordOutcome(DataOutcome('b'))
	s.RecordOutcome(FaultOutcome(Fault{Framing: true, Overrun: true}))
	s.RecordOutcome(FaultOutcome(Fault{Parity: true}))
	s.RecordDropped()
	s.RecordMessage()
	s.RecordSent()
	s.RecordUnknown()
	s.RecordSendFailure()

	snap := s.Snapshot()
	require.Equal(t, uint64(4), snap.TotalEvents)
	require.Equal(t, uint64(2), snap.DataBytes)
	require.Equal(t, uint64(2), snap.Faults)
	require.Equal(t, uint64(1), snap.ParityErrors)
	require.Equal(t, uint64(1), snap.FramingErrors)
	require.Equal(t, uint64(1), snap.OverrunErrors)
	require.Equal(t, uint64(1), snap.Dropped)
	require.Equal(t, uint64(1), snap.Messages)
	require.Equal(t, uint64(1), snap.LinesSent)
	require.Equal(t, uint64(1), snap.UnknownCommands)
	require.Equal(t, uint64(1), snap.SendFailures)
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.RecordOutcome(FaultOutcome(Fault{Parity: true}))

	out := s.String()
	require.Contains(t, out, "Receive Events:         1")
	require.Contains(t, out, "Receive Faults:         1 (100.0%)")
	require.Contains(t, out, "  Parity:               1")
	require.NotContains(t, out, "Overrun:")
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.RecordOutcome(DataOutcome('a'))
	s.RecordSent()
	s.Reset()

	snap := s.Snapshot()
	require.Zero(t, snap.TotalEvents)
	require.Zero(t, snap.LinesSent)
	require.False(t, snap.StartTime.IsZero())
}
