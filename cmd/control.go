// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Thermoquad/linkshell/pkg/console"
	"github.com/Thermoquad/linkshell/pkg/uart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// errNoLink is returned by connectionManager writes while reconnecting
var errNoLink = errors.New("secondary link not connected")

// connectionManager owns the secondary link for the console. It survives
// link loss: the receive path is restarted on every new connection and
// writes go to whichever connection is current.
type connectionManager struct {
	conn     Connection
	connInfo string
	mu       sync.RWMutex

	open       func() (Connection, string, error)
	stats      *uart.Statistics
	recorder   *uart.Recorder
	queueDepth int
	log        zerolog.Logger

	// Initial and maximum reconnect delay
	backoff    time.Duration
	maxBackoff time.Duration
}

func (cm *connectionManager) getConn() Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
}

// Write sends p on the current connection
func (cm *connectionManager) Write(p []byte) (int, error) {
	conn := cm.getConn()
	if conn == nil {
		return 0, errNoLink
	}
	return conn.Write(p)
}

// run services the current connection, reporting to sink, and reconnects
// whenever it is lost. It returns when ctx is cancelled.
func (cm *connectionManager) run(ctx context.Context, sink console.Sink, notify func(tea.Msg)) {
	for {
		conn := cm.getConn()
		session := startLinkSession(ctx, conn, cm.stats, cm.queueDepth, cm.recorder, cm.log)

		reporterDone := make(chan struct{})
		go func() {
			defer close(reporterDone)
			console.NewReporter(session.Outcomes(), sink, cm.stats, console.DefaultFlushDelay).Run(ctx)
		}()

		var lost error
		select {
		case lost = <-session.Closed():
		case <-ctx.Done():
		}

		session.Close()
		<-reporterDone

		if ctx.Err() != nil {
			return
		}

		cm.setConn(nil, "")
		notify(linkLostMsg{err: lost})

		if !cm.reconnect(ctx, notify) {
			return
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect(ctx context.Context, notify func(tea.Msg)) bool {
	backoff := cm.backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := cm.maxBackoff
	if maxBackoff < backoff {
		maxBackoff = 30 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := cm.open()
		if err == nil {
			cm.setConn(conn, connInfo)
			notify(reconnectedMsg{connInfo: connInfo})
			return true
		}
		cm.log.Debug().Err(err).Dur("backoff", backoff).Msg("reconnect failed")

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
