// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"errors"
	"io"

	"github.com/Thermoquad/linkshell/pkg/command"
)

// ErrInterrupted is returned when Ctrl+C arrives as input, which is how
// it reaches us while the TTY is in raw mode
var ErrInterrupted = errors.New("interrupted")

// Control characters handled during line entry
const (
	charEndOfText = 3
	charEndOfTx   = 4
	charBackspace = 8
	charLineFeed  = 10
	charReturn    = 13
	charDelete    = 127
)

// LineReader collects one operator line at a time from a terminal
type LineReader struct {
	term *Terminal
	echo bool

	lastCR bool
}

// NewLineReader creates a line reader. With echo set, accepted characters
// are written back and backspace erases on screen.
func NewLineReader(term *Terminal, echo bool) *LineReader {
	return &LineReader{term: term, echo: echo}
}

// ReadLine blocks until a full line has been entered into line.
//
// CR or LF ends the line; an LF directly after a CR is skipped so CRLF input
// yields one line. Backspace and delete remove the last character. Printable
// characters past command.MaxChars are discarded until the line ends. Ctrl+C
// returns ErrInterrupted and Ctrl+D on an empty line returns io.EOF. Other
// control characters are ignored. On a read error the partial line is kept
// and the error returned.
func (r *LineReader) ReadLine(line *command.Line) error {
	line.Reset()

	for {
		c, err := r.term.ReadByte()
		if err != nil {
			return err
		}

		afterCR := r.lastCR
		r.lastCR = c == charReturn

		switch {
		case c == charLineFeed && afterCR:
			continue

		case c == charReturn || c == charLineFeed:
			if r.echo {
				r.term.WriteString("\n")
			}
			return nil

		case c == charEndOfText:
			return ErrInterrupted

		case c == charEndOfTx && line.Len() == 0:
			return io.EOF

		case c == charBackspace || c == charDelete:
			if line.Backspace() && r.echo {
				r.term.WriteString("\b \b")
			}

		case c >= 32:
			if line.Append(c) && r.echo {
				r.term.Write([]byte{c})
			}
		}
	}
}
