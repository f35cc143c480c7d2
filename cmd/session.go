// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/Thermoquad/linkshell/pkg/uart"
	"github.com/rs/zerolog"
)

// linkSession runs the receive side of an open secondary link: the wire
// goroutine feeding the register model and the interrupt handler
// classifying what arrives.
type linkSession struct {
	conn     Connection
	uart     *uart.PL011
	receiver *uart.Receiver
	stats    *uart.Statistics
	log      zerolog.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	wireErr   chan error
	closeOnce sync.Once
	closeErr  error
}

// startLinkSession starts servicing conn. When rec is set, every wire-side
// receive event is also written to it.
func startLinkSession(ctx context.Context, conn Connection, stats *uart.Statistics, queueDepth int, rec *uart.Recorder, log zerolog.Logger) *linkSession {
	s := &linkSession{
		conn:    conn,
		uart:    uart.NewPL011(),
		stats:   stats,
		log:     log,
		wireErr: make(chan error, 1),
	}
	s.receiver = uart.NewReceiver(s.uart, queueDepth, stats, log)

	wire := &uart.Wire{
		Source:   conn,
		UART:     s.uart,
		Recorder: rec,
		IsFatal:  isFatalReadError,
		Log:      log,
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.receiver.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		err := wire.Run(ctx)
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("secondary link closed")
		}
		s.wireErr <- err
	}()

	return s
}

// Outcomes returns the classified receive events
func (s *linkSession) Outcomes() <-chan uart.Outcome {
	return s.receiver.Outcomes()
}

// Closed is signalled with the wire's error when the link goes away
func (s *linkSession) Closed() <-chan error {
	return s.wireErr
}

// Close stops both goroutines and closes the connection. Later calls return
// the first call's result.
func (s *linkSession) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.conn.Close()
		s.wg.Wait()
	})
	return s.closeErr
}

// openCapture creates a capture file for --record. An empty path records
// nothing and returns a nil recorder.
func openCapture(path string, log zerolog.Logger) (*uart.Recorder, func() error, error) {
	if path == "" {
		return nil, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create capture: %w", err)
	}
	log.Info().Str("path", path).Msg("recording receive events")
	return uart.NewRecorder(f), f.Close, nil
}
