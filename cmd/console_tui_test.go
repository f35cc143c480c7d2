// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Thermoquad/linkshell/pkg/uart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func typeLine(t *testing.T, m consoleModel, text string) consoleModel {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(consoleModel)
}

func lastMessages(m consoleModel, n int) []string {
	var out []string
	for _, e := range m.eventLog[len(m.eventLog)-n:] {
		out = append(out, e.message)
	}
	return out
}

func TestConsoleModel_Send(t *testing.T) {
	var link bytes.Buffer
	stats := uart.NewStatistics()
	m := initialConsoleModel(&link, stats, "test", zerolog.Nop())

	m = typeLine(t, m, "send foo bar")
	require.Equal(t, []byte("foo bar\x00"), link.Bytes())
	require.Equal(t, []string{"> send foo bar", "Sent."}, lastMessages(m, 2))
	require.Empty(t, m.input.Value())
	require.Equal(t, uint64(1), stats.Snapshot().LinesSent)
}

func TestConsoleModel_Unknown(t *testing.T) {
	var link bytes.Buffer
	m := initialConsoleModel(&link, uart.NewStatistics(), "test", zerolog.Nop())

	m = typeLine(t, m, "ping")
	require.Zero(t, link.Len())
	require.Equal(t, []string{"> ping", "Unknown command."}, lastMessages(m, 2))
}

func TestConsoleModel_InboundAndFaults(t *testing.T) {
	m := initialConsoleModel(&bytes.Buffer{}, uart.NewStatistics(), "test", zerolog.Nop())

	next, _ := m.Update(inboundMsg{text: "hello"})
	next, _ = next.Update(faultMsg{fault: uart.Fault{Framing: true}})
	next, _ = next.Update(linkLostMsg{err: errors.New("EOF")})
	m = next.(consoleModel)

	require.Equal(t, []string{"< hello", "[LINK ERROR] Framing Error", "Secondary link lost: EOF", "Reconnecting..."}, lastMessages(m, 4))
	require.True(t, m.linkLost)
	require.Contains(t, m.View(), "RECONNECTING...")

	next, _ = m.Update(reconnectedMsg{connInfo: "Serial: /dev/ttyUSB0"})
	m = next.(consoleModel)
	require.False(t, m.linkLost)
	require.Equal(t, "Serial: /dev/ttyUSB0", m.connInfo)
}

func TestConsoleModel_EscClearsInput(t *testing.T) {
	m := initialConsoleModel(&bytes.Buffer{}, uart.NewStatistics(), "test", zerolog.Nop())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("send x")})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Empty(t, next.(consoleModel).input.Value())
}

func TestConsoleModel_InputLimit(t *testing.T) {
	m := initialConsoleModel(&bytes.Buffer{}, uart.NewStatistics(), "test", zerolog.Nop())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(strings.Repeat("a", 100))})
	require.Len(t, next.(consoleModel).input.Value(), 80)
}

func TestConsoleModel_LogIsBounded(t *testing.T) {
	m := initialConsoleModel(&bytes.Buffer{}, uart.NewStatistics(), "test", zerolog.Nop())
	for i := 0; i < m.maxLogEntries+50; i++ {
		m.addLogEntry("x", entryInbound)
	}
	require.Len(t, m.eventLog, m.maxLogEntries)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		ms   uint64
		want string
	}{
		{0, "0 seconds"},
		{1000, "1 second"},
		{61000, "1 minute and 1 second"},
		{3600000, "1 hour"},
		{90061000, "1 day, 1 hour, 1 minute, and 1 second"},
		{2 * 86400000, "2 days"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, formatUptime(tt.ms))
		})
	}
}
