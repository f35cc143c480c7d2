// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

// Service handles one receive interrupt event.
//
// It returns false without touching the registers if the RX interrupt is not
// pending. Otherwise it reads the status snapshot and the pending byte, and
// always acknowledges the interrupt before returning. A byte flagged with a
// parity, framing or overrun error is read and dropped, and the error
// condition is cleared so the link keeps receiving.
func Service(regs RxRegisters) (Outcome, bool) {
	if regs.MaskedInterruptStatus()&IntRX == 0 {
		return Outcome{}, false
	}

	status := regs.ReceiveStatus()
	if status&StatusFaultMask != 0 {
		_ = regs.ReadData()
		regs.ClearErrors()
		regs.ClearInterrupt(IntRX)
		return FaultOutcome(FaultFromStatus(status)), true
	}

	b := byte(regs.ReadData() & drDataMask)
	regs.ClearInterrupt(IntRX)
	return DataOutcome(b), true
}
