// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Event is one wire-side receive event as stored in a capture
type Event struct {
	At     int64  `cbor:"0,keyasint"` // unix nanoseconds
	Data   byte   `cbor:"1,keyasint"`
	Status uint32 `cbor:"2,keyasint,omitempty"`
	Lost   bool   `cbor:"3,keyasint,omitempty"` // dropped on the wire, e.g. a full FIFO
}

// Recorder writes receive events to a capture as a CBOR sequence
type Recorder struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewRecorder creates a recorder writing to w
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: cbor.NewEncoder(w)}
}

// Record appends one event
func (r *Recorder) Record(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enc.Encode(ev); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Replay applies a recorded event to the register model
func (e Event) Replay(u *PL011) {
	if e.Lost {
		u.MarkOverrun()
		return
	}
	u.Receive(e.Data, e.Status)
}

// Replay plays every event from p through u and passes each serviced
// outcome to emit, in order. Returns the number of events read.
//
// Captures carry no interrupt timing, so the receive interrupt is serviced
// only when the FIFO is full and once more at the end of the capture. A lost
// event therefore meets the same pending bytes it did on the live link, and
// its overrun is reported against the byte at the head of the FIFO.
func Replay(p *Player, u *PL011, emit func(Outcome)) (int, error) {
	service := func() bool {
		o, ok := Service(u)
		if ok {
			emit(o)
		}
		return ok
	}

	events := 0
	for {
		ev, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return events, err
		}
		events++

		if !ev.Lost && u.Buffered() == RxFifoDepth {
			service()
		}
		ev.Replay(u)
	}

	for service() {
	}
	return events, nil
}

// Player reads events back from a capture
type Player struct {
	dec *cbor.Decoder
}

// NewPlayer creates a player reading from r
func NewPlayer(r io.Reader) *Player {
	return &Player{dec: cbor.NewDecoder(r)}
}

// Next returns the next event, or io.EOF at the end of the capture
func (p *Player) Next() (Event, error) {
	var ev Event
	if err := p.dec.Decode(&ev); err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return ev, nil
}
