// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/linkshell/pkg/uart"
)

// DefaultFlushDelay is how long a partial inbound message waits for its
// terminator before being shown anyway
const DefaultFlushDelay = 250 * time.Millisecond

// Sink receives what the reporter decodes from the secondary link
type Sink interface {
	Message(msg []byte)
	Fault(f uart.Fault)
}

// TextSink writes reports as terminal text
type TextSink struct {
	Out io.Writer
}

// Message prints an inbound message as "< text"
func (s TextSink) Message(msg []byte) {
	io.WriteString(s.Out, fmt.Sprintf("< %s\n", msg))
}

// Fault prints a receive fault, e.g. "[LINK ERROR] Framing Overrun Error"
func (s TextSink) Fault(f uart.Fault) {
	io.WriteString(s.Out, fmt.Sprintf("\n[LINK ERROR] %s\n", f.Error()))
}

// Reporter consumes classified receive outcomes and reports them
type Reporter struct {
	outcomes   <-chan uart.Outcome
	sink       Sink
	stats      *uart.Statistics
	assembler  *uart.Assembler
	flushDelay time.Duration
}

// NewReporter creates a reporter. stats may be nil; flushDelay <= 0 uses
// DefaultFlushDelay.
func NewReporter(outcomes <-chan uart.Outcome, sink Sink, stats *uart.Statistics, flushDelay time.Duration) *Reporter {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Reporter{
		outcomes:   outcomes,
		sink:       sink,
		stats:      stats,
		assembler:  uart.NewAssembler(),
		flushDelay: flushDelay,
	}
}

// Run reports outcomes until the queue is closed or ctx is cancelled
func (r *Reporter) Run(ctx context.Context) {
	flush := time.NewTimer(r.flushDelay)
	flush.Stop()
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush()
			return

		case <-flush.C:
			r.flush()

		case o, ok := <-r.outcomes:
			if !ok {
				r.flush()
				return
			}
			r.handle(o)
			if r.assembler.Pending() > 0 {
				flush.Reset(r.flushDelay)
			}
		}
	}
}

func (r *Reporter) handle(o uart.Outcome) {
	if f, ok := o.Fault(); ok {
		r.sink.Fault(f)
		return
	}

	b, _ := o.Data()
	if msg, ok := r.assembler.AddByte(b); ok {
		r.deliver(msg)
	}
}

func (r *Reporter) flush() {
	if msg, ok := r.assembler.Flush(); ok {
		r.deliver(msg)
	}
}

func (r *Reporter) deliver(msg []byte) {
	if r.stats != nil {
		r.stats.RecordMessage()
	}
	r.sink.Message(msg)
}
