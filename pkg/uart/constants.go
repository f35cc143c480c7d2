// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package uart models the receive side of the secondary serial link: a
// PL011-style register block, the receive-error classifier that services it,
// and the plumbing that turns classified bytes into operator diagnostics.
package uart

// Interrupt bits (RIS/MIS/IMSC/ICR share positions)
const (
	IntRX uint32 = 0x010 // receive
	IntRT uint32 = 0x040 // receive timeout
)

// Receive status bits (RSR/ECR)
const (
	StatusFE uint32 = 0x1 // framing error
	StatusPE uint32 = 0x2 // parity error
	StatusBE uint32 = 0x4 // break error
	StatusOE uint32 = 0x8 // overrun error

	StatusFaultMask = StatusPE | StatusFE | StatusOE
)

// Data register layout: error flags ride above the data byte
const (
	drDataMask    uint32 = 0xFF
	drStatusShift        = 8
)

// RxFifoDepth is the receive FIFO depth of the modelled UART
const RxFifoDepth = 16

// MaxMessageSize bounds one assembled inbound message
const MaxMessageSize = 80
