// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"fmt"
	"sync"
	"time"
)

// Counters is a point-in-time copy of the statistics
type Counters struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Receive counters
	TotalEvents   uint64
	DataBytes     uint64
	Faults        uint64
	ParityErrors  uint64
	FramingErrors uint64
	OverrunErrors uint64
	Messages      uint64
	Dropped       uint64 // outcomes lost on a full queue

	// Command counters
	LinesSent       uint64
	UnknownCommands uint64
	SendFailures    uint64

	// Rates (calculated)
	EventRate float64 // events/sec
	FaultRate float64 // faults/sec
}

// Statistics tracks link activity and receive error rates.
// It is safe for concurrent use.
type Statistics struct {
	mu sync.Mutex
	Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		Counters: Counters{
			StartTime:      now,
			LastUpdateTime: now,
		},
	}
}

// RecordOutcome counts one serviced receive event
func (s *Statistics) RecordOutcome(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalEvents++
	if f, ok := o.Fault(); ok {
		s.Faults++
		// One event may carry several flags
		if f.Parity {
			s.ParityErrors++
		}
		if f.Framing {
			s.FramingErrors++
		}
		if f.Overrun {
			s.OverrunErrors++
		}
	} else {
		s.DataBytes++
	}
	s.LastUpdateTime = time.Now()
}

// RecordDropped counts an outcome that could not be queued
func (s *Statistics) RecordDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dropped++
}

// RecordMessage counts an assembled inbound message
func (s *Statistics) RecordMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages++
}

// RecordSent counts a line forwarded to the secondary link
func (s *Statistics) RecordSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LinesSent++
}

// RecordSendFailure counts a failed write to the secondary link
func (s *Statistics) RecordSendFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SendFailures++
}

// RecordUnknown counts an unrecognized command line
func (s *Statistics) RecordUnknown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UnknownCommands++
}

// CalculateRates calculates event and fault rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRatesLocked()
}

func (s *Statistics) calculateRatesLocked() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.EventRate = float64(s.TotalEvents) / elapsed
		s.FaultRate = float64(s.Faults) / elapsed
	}
}

// Snapshot returns a copy of the counters with rates updated
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRatesLocked()
	return s.Counters
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()

	var faultPercent float64
	if snap.TotalEvents > 0 {
		faultPercent = float64(snap.Faults) * 100.0 / float64(snap.TotalEvents)
	}

	elapsed := time.Since(snap.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Receive Events:  %8d\n", snap.TotalEvents)
	result += fmt.Sprintf("Data Bytes:      %8d\n", snap.DataBytes)
	result += fmt.Sprintf("Messages:        %8d\n", snap.Messages)

	if snap.Faults > 0 {
		result += fmt.Sprintf("Receive Faults:  %8d (%.1f%%)\n", snap.Faults, faultPercent)
		if snap.ParityErrors > 0 {
			result += fmt.Sprintf("  Parity:           %5d\n", snap.ParityErrors)
		}
		if snap.FramingErrors > 0 {
			result += fmt.Sprintf("  Framing:          %5d\n", snap.FramingErrors)
		}
		if snap.OverrunErrors > 0 {
			result += fmt.Sprintf("  Overrun:          %5d\n", snap.OverrunErrors)
		}
	}
	if snap.Dropped > 0 {
		result += fmt.Sprintf("Dropped Events:  %8d\n", snap.Dropped)
	}

	result += fmt.Sprintf("Lines Sent:      %8d\n", snap.LinesSent)
	if snap.SendFailures > 0 {
		result += fmt.Sprintf("Send Failures:   %8d\n", snap.SendFailures)
	}
	result += fmt.Sprintf("Unknown Cmds:    %8d\n", snap.UnknownCommands)
	result += fmt.Sprintf("Event Rate:      %8.1f events/sec\n", snap.EventRate)
	result += fmt.Sprintf("Fault Rate:      %8.1f faults/sec\n", snap.FaultRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Counters = Counters{
		StartTime:      now,
		LastUpdateTime: now,
	}
}
