// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"context"
	"sync"
)

// RxRegisters is the narrow register view the receive classifier needs
type RxRegisters interface {
	// MaskedInterruptStatus reads MIS
	MaskedInterruptStatus() uint32
	// ReceiveStatus reads RSR for the pending byte
	ReceiveStatus() uint32
	// ReadData reads DR, popping the pending byte
	ReadData() uint32
	// ClearInterrupt writes ICR
	ClearInterrupt(mask uint32)
	// ClearErrors writes ECR
	ClearErrors()
}

// InterruptSource is a register block that can raise an interrupt line
type InterruptSource interface {
	RxRegisters
	Interrupt() <-chan struct{}
}

// PL011 models the receive half of a PL011-style UART.
//
// Bytes enter from the wire side through Receive. Each FIFO entry keeps its
// own parity/framing/break flags; overrun is sticky in RSR until ECR is
// written. The RX interrupt stays asserted while the FIFO holds data, so an
// acknowledge with bytes still pending re-raises it.
type PL011 struct {
	mu sync.Mutex

	fifo  [RxFifoDepth]uint32
	head  int
	count int

	rsr  uint32 // sticky overrun
	ris  uint32
	imsc uint32

	irq   chan struct{}
	space chan struct{} // signalled when DR read frees an entry
}

// NewPL011 creates a register model with the RX interrupt unmasked
func NewPL011() *PL011 {
	return &PL011{
		imsc:  IntRX,
		irq:   make(chan struct{}, 1),
		space: make(chan struct{}, 1),
	}
}

// Receive pushes one byte from the wire with its line status
// (StatusPE/FE/BE apply to this byte, StatusOE marks data lost before it).
// Returns false if the FIFO was full and the byte was lost.
func (u *PL011) Receive(b byte, status uint32) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if status&StatusOE != 0 {
		u.rsr |= StatusOE
	}

	if u.count == RxFifoDepth {
		u.rsr |= StatusOE
		u.raiseLocked(IntRX)
		return false
	}

	u.pushLocked(b, status)
	return true
}

// ReceiveWait pushes one byte like Receive, but waits for a free FIFO entry
// instead of overrunning. The host connection is flow controlled, so a byte
// read from it is never lost to a full FIFO. Returns ctx.Err() if ctx ends
// first; the byte is not queued in that case.
func (u *PL011) ReceiveWait(ctx context.Context, b byte, status uint32) error {
	for {
		u.mu.Lock()
		if u.count < RxFifoDepth {
			if status&StatusOE != 0 {
				u.rsr |= StatusOE
			}
			u.pushLocked(b, status)
			u.mu.Unlock()
			return nil
		}
		u.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-u.space:
		}
	}
}

func (u *PL011) pushLocked(b byte, status uint32) {
	entry := uint32(b) | (status&(StatusPE|StatusFE|StatusBE))<<drStatusShift
	u.fifo[(u.head+u.count)%RxFifoDepth] = entry
	u.count++
	u.raiseLocked(IntRX)
}

// MarkOverrun flags data lost on the wire without queueing a byte
func (u *PL011) MarkOverrun() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rsr |= StatusOE
	u.raiseLocked(IntRX)
}

// Interrupt returns the interrupt line. It is signalled whenever a masked
// interrupt becomes pending.
func (u *PL011) Interrupt() <-chan struct{} {
	return u.irq
}

// SetInterruptMask writes IMSC
func (u *PL011) SetInterruptMask(mask uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.imsc = mask
	u.signalLocked()
}

// MaskedInterruptStatus reads MIS
func (u *PL011) MaskedInterruptStatus() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ris & u.imsc
}

// RawInterruptStatus reads RIS
func (u *PL011) RawInterruptStatus() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ris
}

// ReceiveStatus reads RSR: sticky overrun plus the flags of the pending byte
func (u *PL011) ReceiveStatus() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()

	status := u.rsr
	if u.count > 0 {
		status |= u.fifo[u.head] >> drStatusShift
	}
	return status
}

// ReadData reads DR. An empty FIFO reads as zero.
func (u *PL011) ReadData() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.count == 0 {
		return 0
	}
	entry := u.fifo[u.head]
	u.head = (u.head + 1) % RxFifoDepth
	u.count--
	select {
	case u.space <- struct{}{}:
	default:
	}
	if u.rsr&StatusOE != 0 {
		entry |= StatusOE << drStatusShift
	}
	return entry
}

// ClearInterrupt writes ICR
func (u *PL011) ClearInterrupt(mask uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.ris &^= mask
	if u.count > 0 {
		u.raiseLocked(IntRX)
	}
}

// ClearErrors writes ECR
func (u *PL011) ClearErrors() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rsr = 0
}

// Buffered returns the number of bytes waiting in the FIFO
func (u *PL011) Buffered() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.count
}

func (u *PL011) raiseLocked(bits uint32) {
	u.ris |= bits
	u.signalLocked()
}

func (u *PL011) signalLocked() {
	if u.ris&u.imsc == 0 {
		return
	}
	select {
	case u.irq <- struct{}{}:
	default:
	}
}
