// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package console drives the operator side of the bridge: the terminal link,
// line entry, command dispatch and receive diagnostics.
package console

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// Terminal is the operator link. Input is read by a single goroutine;
// output is shared and every write is serialized so concurrent writers
// never tear each other's text.
type Terminal struct {
	in *bufio.Reader

	mu   sync.Mutex
	out  io.Writer
	crlf bool
}

// NewTerminal wraps an input and output stream. When crlf is set, '\n' in
// output is sent as "\r\n" (needed while the TTY is in raw mode).
func NewTerminal(in io.Reader, out io.Writer, crlf bool) *Terminal {
	return &Terminal{
		in:   bufio.NewReader(in),
		out:  out,
		crlf: crlf,
	}
}

// ReadByte blocks until one input byte is available
func (t *Terminal) ReadByte() (byte, error) {
	return t.in.ReadByte()
}

// HasInput reports whether input is already buffered (non-blocking)
func (t *Terminal) HasInput() bool {
	return t.in.Buffered() > 0
}

// Write writes p as one unit
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.crlf || bytes.IndexByte(p, '\n') < 0 {
		return t.out.Write(p)
	}

	translated := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	if _, err := t.out.Write(translated); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString writes s as one unit
func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}
