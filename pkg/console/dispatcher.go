// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"context"
	"errors"
	"io"

	"github.com/Thermoquad/linkshell/pkg/command"
	"github.com/Thermoquad/linkshell/pkg/uart"
	"github.com/rs/zerolog"
)

// Operator commands
const (
	CommandSend    = "send"
	sendMinArgs    = 1
	fieldSeparator = ' '
	frameEnd       = 0
)

// Operator replies
const (
	ReplySent       = "Sent.\n"
	ReplyUnknown    = "Unknown command.\n"
	ReplySendFailed = "Send failed.\n"
	ReplyReady      = "Command interface ready.\n"
)

// Dispatcher matches tokenized operator lines against the supported
// commands and performs them on the secondary link.
type Dispatcher struct {
	out   io.Writer
	link  io.Writer
	stats *uart.Statistics
	log   zerolog.Logger

	line  command.Line
	frame [command.MaxChars + 1]byte
}

// NewDispatcher creates a dispatcher that replies on out and forwards to
// link. stats may be nil.
func NewDispatcher(out io.Writer, link io.Writer, stats *uart.Statistics, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		out:   out,
		link:  link,
		stats: stats,
		log:   log,
	}
}

// Line returns the dispatcher's line buffer for the next command cycle
func (d *Dispatcher) Line() *command.Line {
	return &d.line
}

// ExecuteString loads text into the line buffer and executes it
func (d *Dispatcher) ExecuteString(text string) {
	d.line.SetString(text)
	d.Execute(&d.line)
}

// Execute tokenizes line and runs the command it names
func (d *Dispatcher) Execute(line *command.Line) {
	line.Tokenize()

	switch {
	case line.IsCommand(CommandSend, sendMinArgs):
		d.send(line)

	default:
		d.log.Debug().Str("line", line.String()).Msg("unknown command")
		if d.stats != nil {
			d.stats.RecordUnknown()
		}
		io.WriteString(d.out, ReplyUnknown)
	}
}

// send forwards fields 1..n-1, space separated and NUL terminated
func (d *Dispatcher) send(line *command.Line) {
	n := 0
	for i := 1; i < line.FieldCount(); i++ {
		if i > 1 {
			d.frame[n] = fieldSeparator
			n++
		}
		text, _ := line.FieldBytes(i)
		n += copy(d.frame[n:], text)
	}
	d.frame[n] = frameEnd
	n++

	if _, err := d.link.Write(d.frame[:n]); err != nil {
		d.log.Error().Err(err).Msg("secondary link write failed")
		if d.stats != nil {
			d.stats.RecordSendFailure()
		}
		io.WriteString(d.out, ReplySendFailed)
		return
	}

	d.log.Debug().Int("bytes", n).Msg("line forwarded")
	if d.stats != nil {
		d.stats.RecordSent()
	}
	io.WriteString(d.out, ReplySent)
}

// Run reads and executes lines until ctx is cancelled or the reader fails.
// Terminal EOF and an operator interrupt end the loop without error.
func (d *Dispatcher) Run(ctx context.Context, reader *LineReader) error {
	io.WriteString(d.out, ReplyReady)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := reader.ReadLine(&d.line)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Run a final unterminated line, as piped input often has one
				if d.line.Len() > 0 {
					d.Execute(&d.line)
				}
				return nil
			}
			if errors.Is(err, ErrInterrupted) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		d.Execute(&d.line)
	}
}
