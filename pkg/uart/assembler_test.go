// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func feed(a *Assembler, data []byte) [][]byte {
	var msgs [][]byte
	for _, b := range data {
		if msg, ok := a.AddByte(b); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestAssembler_NulTerminated(t *testing.T) {
	a := NewAssembler()
	msgs := feed(a, []byte("foo bar\x00baz\x00"))
	require.Equal(t, [][]byte{[]byte("foo bar"), []byte("baz")}, msgs)
	require.Zero(t, a.Pending())
}

func TestAssembler_SkipsEmptyMessages(t *testing.T) {
	a := NewAssembler()
	msgs := feed(a, []byte("\x00\x00x\x00\x00"))
	require.Equal(t, [][]byte{[]byte("x")}, msgs)
}

func TestAssembler_SplitsAtCapacity(t *testing.T) {
	a := NewAssembler()
	long := bytes.Repeat([]byte{'q'}, MaxMessageSize+3)
	msgs := feed(a, long)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0], MaxMessageSize)
	require.Equal(t, 3, a.Pending())

	rest, ok := a.Flush()
	require.True(t, ok)
	require.Equal(t, []byte("qqq"), rest)
}

func TestAssembler_FlushEmpty(t *testing.T) {
	a := NewAssembler()
	_, ok := a.Flush()
	require.False(t, ok)
}

func TestAssembler_ReturnsCopy(t *testing.T) {
	a := NewAssembler()
	msgs := feed(a, []byte("one\x00"))
	feed(a, []byte("two\x00"))
	require.Equal(t, []byte("one"), msgs[0])
}
