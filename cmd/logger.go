// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// NewLogger creates the diagnostic logger. Diagnostics go to w (stderr in
// practice) so they never mix with operator output on the terminal link.
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05.000",
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "linkshell").Logger(), nil
}
