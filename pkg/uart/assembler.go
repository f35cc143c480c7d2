// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

// Assembler state
const (
	stateIdle = iota
	stateCollect
)

// Assembler rebuilds NUL-terminated messages from received data bytes
type Assembler struct {
	state  int
	buffer [MaxMessageSize]byte
	index  int
}

// NewAssembler creates an idle assembler
func NewAssembler() *Assembler {
	return &Assembler{state: stateIdle}
}

// Reset drops any partial message
func (a *Assembler) Reset() {
	a.state = stateIdle
	a.index = 0
}

// Pending returns the number of bytes held for an incomplete message
func (a *Assembler) Pending() int {
	return a.index
}

// AddByte processes one data byte. It returns a completed message when b is
// the NUL terminator or when the buffer fills up. Empty messages (a bare NUL)
// are not reported. The returned slice is a copy.
func (a *Assembler) AddByte(b byte) ([]byte, bool) {
	switch a.state {
	case stateIdle:
		if b == 0 {
			return nil, false
		}
		a.state = stateCollect
		fallthrough

	case stateCollect:
		if b == 0 {
			return a.complete()
		}
		a.buffer[a.index] = b
		a.index++
		if a.index >= MaxMessageSize {
			return a.complete()
		}
		return nil, false

	default:
		a.Reset()
		return nil, false
	}
}

// Flush returns any partial message and resets the assembler
func (a *Assembler) Flush() ([]byte, bool) {
	if a.index == 0 {
		a.Reset()
		return nil, false
	}
	return a.complete()
}

func (a *Assembler) complete() ([]byte, bool) {
	msg := make([]byte, a.index)
	copy(msg, a.buffer[:a.index])
	a.Reset()
	return msg, true
}
