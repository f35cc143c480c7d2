// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"fmt"
	"strings"
)

// Fault describes which receive errors were flagged for one byte
type Fault struct {
	Parity  bool
	Framing bool
	Overrun bool
}

// FaultFromStatus extracts the fault flags from a receive status value
func FaultFromStatus(status uint32) Fault {
	return Fault{
		Parity:  status&StatusPE != 0,
		Framing: status&StatusFE != 0,
		Overrun: status&StatusOE != 0,
	}
}

// Any reports whether at least one flag is set
func (f Fault) Any() bool {
	return f.Parity || f.Framing || f.Overrun
}

// Status converts the flags back to receive status bits
func (f Fault) Status() uint32 {
	var s uint32
	if f.Parity {
		s |= StatusPE
	}
	if f.Framing {
		s |= StatusFE
	}
	if f.Overrun {
		s |= StatusOE
	}
	return s
}

// Error implements the error interface, e.g. "Framing Overrun Error"
func (f Fault) Error() string {
	var b strings.Builder
	if f.Parity {
		b.WriteString("Parity ")
	}
	if f.Framing {
		b.WriteString("Framing ")
	}
	if f.Overrun {
		b.WriteString("Overrun ")
	}
	b.WriteString("Error")
	return b.String()
}

// Outcome is the result of servicing one receive event.
// Exactly one of Data or Fault holds.
type Outcome struct {
	data    byte
	fault   Fault
	isFault bool
}

// DataOutcome creates an outcome carrying a valid byte
func DataOutcome(b byte) Outcome {
	return Outcome{data: b}
}

// FaultOutcome creates an outcome for a faulted byte.
// The fault must have at least one flag set.
func FaultOutcome(f Fault) Outcome {
	return Outcome{fault: f, isFault: true}
}

// Data returns the received byte, if this is a data outcome
func (o Outcome) Data() (byte, bool) {
	if o.isFault {
		return 0, false
	}
	return o.data, true
}

// Fault returns the fault flags, if this is a fault outcome
func (o Outcome) Fault() (Fault, bool) {
	if !o.isFault {
		return Fault{}, false
	}
	return o.fault, true
}

// IsFault reports whether the event was a receive fault
func (o Outcome) IsFault() bool {
	return o.isFault
}

// String returns a short description for logs
func (o Outcome) String() string {
	if o.isFault {
		return "fault(" + o.fault.Error() + ")"
	}
	return fmt.Sprintf("data(0x%02X)", o.data)
}
