// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultQueueDepth is the outcome queue size used by NewReceiver callers
const DefaultQueueDepth = 256

// Receiver runs the receive interrupt handler. It waits on the register
// block's interrupt line, services every pending event and queues the
// classified outcomes for a single consumer.
type Receiver struct {
	regs  InterruptSource
	out   chan Outcome
	stats *Statistics
	log   zerolog.Logger
}

// NewReceiver creates a receiver with an outcome queue of the given depth.
// stats may be nil.
func NewReceiver(regs InterruptSource, depth int, stats *Statistics, log zerolog.Logger) *Receiver {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Receiver{
		regs:  regs,
		out:   make(chan Outcome, depth),
		stats: stats,
		log:   log,
	}
}

// Outcomes returns the queue of classified events. It is closed when Run
// returns.
func (r *Receiver) Outcomes() <-chan Outcome {
	return r.out
}

// Run services interrupts until ctx is cancelled
func (r *Receiver) Run(ctx context.Context) {
	defer close(r.out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.regs.Interrupt():
		}

		r.drain()
	}
}

// drain services events until the RX interrupt is no longer pending
func (r *Receiver) drain() {
	for {
		o, ok := Service(r.regs)
		if !ok {
			return
		}

		if r.stats != nil {
			r.stats.RecordOutcome(o)
		}

		select {
		case r.out <- o:
		default:
			// Never block the handler on a slow consumer
			if r.stats != nil {
				r.stats.RecordDropped()
			}
			r.log.Warn().Stringer("outcome", o).Msg("receive queue full, outcome dropped")
		}
	}
}
