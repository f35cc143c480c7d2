// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package command

// Field locates one token inside a Line's buffer
type Field struct {
	Start  uint8
	Length uint8
	Kind   Kind
}

// Line holds one operator input line and its field table.
// The zero value is an empty, untokenized line.
type Line struct {
	buf    [MaxChars + 1]byte
	length int

	fields     [MaxFields]Field
	fieldCount int
}

// NewLine creates a line from text, truncating it to MaxChars
func NewLine(text string) *Line {
	l := &Line{}
	l.SetString(text)
	return l
}

// Reset empties the line buffer. The field table keeps its previous
// contents until the next Tokenize call.
func (l *Line) Reset() {
	l.length = 0
	l.buf[0] = 0
}

// Append adds a character, returning false once the line is full
func (l *Line) Append(c byte) bool {
	if l.length >= MaxChars {
		return false
	}
	l.buf[l.length] = c
	l.length++
	l.buf[l.length] = 0
	return true
}

// Backspace removes the last character, returning false on an empty line
func (l *Line) Backspace() bool {
	if l.length == 0 {
		return false
	}
	l.length--
	l.buf[l.length] = 0
	return true
}

// SetString replaces the buffer contents with text (truncated to MaxChars).
// A NUL byte inside text ends the line, as it would on the wire.
func (l *Line) SetString(text string) {
	l.Reset()
	for i := 0; i < len(text); i++ {
		if text[i] == 0 || !l.Append(text[i]) {
			return
		}
	}
}

// Len returns the number of characters in the buffer
func (l *Line) Len() int {
	return l.length
}

// Full reports whether the line has reached MaxChars
func (l *Line) Full() bool {
	return l.length >= MaxChars
}

// Bytes returns the raw line contents (without terminator).
// The slice aliases the line buffer and is only valid until the next edit.
func (l *Line) Bytes() []byte {
	return l.buf[:l.length]
}

// String returns a copy of the raw line contents
func (l *Line) String() string {
	return string(l.buf[:l.length])
}
