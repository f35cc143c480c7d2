// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package command implements the operator command interpreter: a line
// buffer, the field tokenizer, typed field accessors and command matching.
package command

// Capacity limits
const (
	MaxChars  = 80 // printable characters per line
	MaxFields = 5  // fields kept per line
)

// Kind classifies a field by its first character.
type Kind uint8

const (
	KindAlpha Kind = iota
	KindNumeric
)

// String returns the short name used in diagnostics
func (k Kind) String() string {
	switch k {
	case KindAlpha:
		return "alpha"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Character classes

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isNumeric(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '.'
}

func isDelimiter(c byte) bool {
	return !isAlpha(c) && !isNumeric(c)
}
