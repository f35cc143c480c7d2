// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/linkshell/pkg/uart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// msgLog collects what the manager reports to the TUI
type msgLog struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (l *msgLog) send(msg tea.Msg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *msgLog) has(match func(tea.Msg) bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if match(m) {
			return true
		}
	}
	return false
}

func TestConnectionManager_Reconnects(t *testing.T) {
	first, firstPeer := net.Pipe()
	second, secondPeer := net.Pipe()
	defer secondPeer.Close()

	attempts := 0
	cm := &connectionManager{
		conn:     first,
		connInfo: "first",
		open: func() (Connection, string, error) {
			attempts++
			if attempts == 1 {
				return nil, "", errors.New("port busy")
			}
			return second, "second", nil
		},
		stats:      uart.NewStatistics(),
		log:        zerolog.Nop(),
		backoff:    5 * time.Millisecond,
		maxBackoff: 10 * time.Millisecond,
	}

	log := &msgLog{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cm.run(ctx, programSink{send: log.send}, log.send)
	}()

	firstPeer.Close()

	require.Eventually(t, func() bool {
		return log.has(func(m tea.Msg) bool {
			r, ok := m.(reconnectedMsg)
			return ok && r.connInfo == "second"
		})
	}, 2*time.Second, 5*time.Millisecond)
	require.True(t, log.has(func(m tea.Msg) bool { _, ok := m.(linkLostMsg); return ok }))
	require.Equal(t, 2, attempts)

	// Writes follow the new connection
	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 8)
		n, _ := secondPeer.Read(buf)
		got <- buf[:n]
	}()
	_, err := cm.Write([]byte("hi\x00"))
	require.NoError(t, err)
	require.Equal(t, []byte("hi\x00"), <-got)

	// So does the receive path
	go secondPeer.Write([]byte("back\x00"))
	require.Eventually(t, func() bool {
		return log.has(func(m tea.Msg) bool {
			in, ok := m.(inboundMsg)
			return ok && in.text == "back"
		})
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestConnectionManager_WriteWithoutLink(t *testing.T) {
	cm := &connectionManager{}
	_, err := cm.Write([]byte("x"))
	require.ErrorIs(t, err, errNoLink)
}
