// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reader is the inbound half of a secondary link connection
type Reader interface {
	Read(p []byte) (int, error)
}

// Wire feeds bytes read from a connection into the register model, playing
// the role of the UART's shift register.
type Wire struct {
	Source   Reader
	UART     *PL011
	Recorder *Recorder // optional

	// IsFatal reports whether a read error ends the wire. Other errors
	// are logged and retried after RetryDelay.
	IsFatal    func(error) bool
	RetryDelay time.Duration

	Log zerolog.Logger
}

// Run reads until ctx is cancelled or a fatal read error occurs.
// Closing the connection is the way to unblock a pending read.
func (w *Wire) Run(ctx context.Context) error {
	retry := w.RetryDelay
	if retry <= 0 {
		retry = 10 * time.Millisecond
	}

	buf := make([]byte, 128)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := w.Source.Read(buf)
		for i := 0; i < n; i++ {
			if rerr := w.receive(ctx, buf[i]); rerr != nil {
				return rerr
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if w.IsFatal != nil && w.IsFatal(err) {
				return err
			}
			w.Log.Debug().Err(err).Msg("link read error")
			time.Sleep(retry)
		}
	}
}

// receive waits for FIFO space, so a burst larger than the FIFO is paced by
// the interrupt handler rather than overrunning it
func (w *Wire) receive(ctx context.Context, b byte) error {
	if err := w.UART.ReceiveWait(ctx, b, 0); err != nil {
		return err
	}

	if w.Recorder != nil {
		ev := Event{At: time.Now().UnixNano(), Data: b}
		if err := w.Recorder.Record(ev); err != nil {
			w.Log.Error().Err(err).Msg("capture write failed")
		}
	}
	return nil
}
